// Package metrics exposes Prometheus counters, gauges, and histograms for
// every pipeline stage named in spec.md §A.5, served over the standard
// /metrics HTTP handler the way the teacher exposes its own client_golang
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capitolflow_pipeline_fetch_total",
		Help: "Fetch attempts by fetcher and outcome.",
	}, []string{"fetcher", "outcome"})

	TransformLLMCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capitolflow_pipeline_transform_llm_calls_total",
		Help: "LLM extraction calls issued by the Transformer, by source format and outcome.",
	}, []string{"source_format", "outcome"})

	TransformRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capitolflow_pipeline_transform_retries_total",
		Help: "Transformer FSM retries, by source format and retry kind.",
	}, []string{"source_format", "kind"})

	LoaderTradesPersistedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capitolflow_loader_trades_persisted_total",
		Help: "Trades persisted by the Loader, by status.",
	}, []string{"status"})

	LoaderDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capitolflow_loader_duplicates_total",
		Help: "Candidate trades skipped as duplicates by the Loader's hash+insert dedup.",
	})

	LoaderNameUnresolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capitolflow_loader_name_unresolved_total",
		Help: "Candidate trades dropped for unresolvable politician names.",
	})

	ConvergenceEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capitolflow_convergence_events_total",
		Help: "Convergence events detected in the most recent scoring pass.",
	})

	SignalsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capitolflow_signals_generated_total",
		Help: "AlphaSignal rows generated, by direction.",
	}, []string{"direction"})

	SignalsHardFilteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capitolflow_signals_hard_filtered_total",
		Help: "EnhancedSignal rows suppressed by a hard filter, by reason.",
	}, []string{"reason"})

	BacktestGuardrailTriggeredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capitolflow_backtest_guardrail_triggered_total",
		Help: "Backtest batches marked review_required by a guardrail trip.",
	})

	PipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "capitolflow_pipeline_run_duration_seconds",
		Help:    "Wall-clock duration of a full ETL run, by chamber.",
		Buckets: prometheus.DefBuckets,
	}, []string{"chamber"})

	ProviderBudgetRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "capitolflow_provider_budget_remaining",
		Help: "Remaining daily request budget per external provider.",
	}, []string{"provider"})
)

// Handler returns the standard Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
