package domain

import "time"

// ExtractionStatus enumerates the terminal states of a Transformer/Loader
// invocation (spec.md §3 ExtractionLog).
type ExtractionStatus string

const (
	ExtractionSuccess      ExtractionStatus = "success"
	ExtractionPartial      ExtractionStatus = "partial"
	ExtractionManualReview ExtractionStatus = "manual_review"
	ExtractionFailed       ExtractionStatus = "failed"
)

// ExtractionLog is one append-only row per Transformer invocation
// (spec.md §3, §4.3, §4.4 step 5).
type ExtractionLog struct {
	ID              string
	SourceIdentifier string
	SourceFormat    SourceFormat
	RawRecordCount  int
	ExtractedCount  int
	DuplicateCount  int
	Confidence      float64
	Status          ExtractionStatus
	ErrorMessage    string
	LLMCallCount    int
	Timestamp       time.Time
}

// ExtractionResult is the Transformer's output: a set of Trade candidates
// plus an overall confidence and source_format tag (spec.md §4.3).
type ExtractionResult struct {
	Candidates      []CandidateTrade
	OverallConfidence float64
	SourceFormat    SourceFormat
	SourceIdentifier string
	LLMCallCount    int
}

// CandidateTrade is a not-yet-validated, not-yet-normalized trade as
// extracted by the LLM, before the Loader's name/ticker normalization and
// hashing (§4.3 emits candidates; §4.4 persists surviving trades).
type CandidateTrade struct {
	Chamber             Chamber
	SurfaceName         string
	TransactionDate     time.Time
	FilingDate          time.Time
	TickerRaw           string // may be empty, a raw symbol, or a qualified symbol like "AAPL (put)"
	AssetNameRaw        string
	AssetType           string
	TransactionType     TransactionType
	AmountBucket        string
	Owner               Owner
	Comment             string
	SourceURL           string
	ExtractionConfidence float64
}
