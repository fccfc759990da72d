package transform

import (
	"fmt"

	"github.com/sawpanic/capitolflow/internal/domain"
)

// PromptVariant selects the prompt template and response modality keyed on
// (content_type, source_site), per spec.md §4.3: Senate HTML and
// Capitol-Trades HTML both get a single-shot text prompt; House PDFs
// require the multimodal variant since the disclosure form is a scanned
// or rendered document, not a text listing.
type PromptVariant struct {
	Name         string
	SourceFormat domain.SourceFormat
	Multimodal   bool
	Template     string
}

var (
	variantSenateHTML = PromptVariant{
		Name:         "senate-html",
		SourceFormat: domain.SourceSenateHTML,
		Multimodal:   false,
		Template:     senateHTMLPrompt,
	}
	variantHousePDF = PromptVariant{
		Name:         "house-pdf",
		SourceFormat: domain.SourceHousePDF,
		Multimodal:   true,
		Template:     housePDFPrompt,
	}
	variantCapitolTradesHTML = PromptVariant{
		Name:         "capitoltrades-html",
		SourceFormat: domain.SourceCapitolTradesHTML,
		Multimodal:   false,
		Template:     capitolTradesHTMLPrompt,
	}
)

// variantFor dispatches on the fetcher's declared content type and source
// site; unknown combinations are a configuration error, not a retryable
// transform failure.
func variantFor(contentType, sourceSite string) (PromptVariant, error) {
	switch {
	case contentType == "text/html" && sourceSite == "senate.gov":
		return variantSenateHTML, nil
	case contentType == "application/pdf" && sourceSite == "house.gov":
		return variantHousePDF, nil
	case contentType == "text/html" && sourceSite == "capitoltrades.com":
		return variantCapitolTradesHTML, nil
	default:
		return PromptVariant{}, fmt.Errorf("no prompt variant for content_type=%q source_site=%q", contentType, sourceSite)
	}
}

const candidateSchemaDescription = `Return a JSON array. Each element is an object with exactly these keys:
chamber (string: "Senate" or "House"), surface_name (string, as disclosed),
transaction_date (string, YYYY-MM-DD), filing_date (string, YYYY-MM-DD),
ticker_raw (string, may be empty), asset_name_raw (string), asset_type (string),
transaction_type (string: "Buy", "Sale", or "Exchange"),
amount_bucket (string, exact disclosed range text), owner (string: "Self",
"Spouse", "Joint", "Dependent-Child", or "Unknown"), comment (string, may be
empty), extraction_confidence (number in [0,1], your confidence this row was
read correctly). Emit no prose outside the JSON array.`

const senateHTMLPrompt = "You are reading a rendered Senate Periodic Transaction Report results table (HTML). " +
	"Extract every disclosed transaction row. " + candidateSchemaDescription

const housePDFPrompt = "You are reading a scanned or rendered House Periodic Transaction Report PDF. " +
	"Politician names in the filing header are in \"LAST, First (suffix)\" form; normalize to surface_name " +
	"as printed. Extract every disclosed transaction line item. " + candidateSchemaDescription

const capitolTradesHTMLPrompt = "You are reading a trimmed Capitol Trades listing table (HTML rows only). " +
	"Extract every disclosed transaction row. " + candidateSchemaDescription
