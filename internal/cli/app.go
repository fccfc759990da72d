// Package cli wires every collaborator package into cobra subcommands:
// etl (fetch/transform/load), score (SQS/convergence/PIS/signals),
// backtest, and schedule. Construction lives here so each subcommand
// body stays a thin call into the already-built pipeline.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sawpanic/capitolflow/internal/backtest"
	"github.com/sawpanic/capitolflow/internal/config"
	"github.com/sawpanic/capitolflow/internal/domain"
	"github.com/sawpanic/capitolflow/internal/fetch"
	"github.com/sawpanic/capitolflow/internal/fetch/capitoltrades"
	"github.com/sawpanic/capitolflow/internal/fetch/house"
	"github.com/sawpanic/capitolflow/internal/fetch/senate"
	"github.com/sawpanic/capitolflow/internal/load"
	"github.com/sawpanic/capitolflow/internal/load/names"
	"github.com/sawpanic/capitolflow/internal/load/tickers"
	"github.com/sawpanic/capitolflow/internal/marketdata"
	"github.com/sawpanic/capitolflow/internal/netkit/budget"
	"github.com/sawpanic/capitolflow/internal/netkit/circuit"
	"github.com/sawpanic/capitolflow/internal/netkit/ratelimit"
	"github.com/sawpanic/capitolflow/internal/pipeline"
	"github.com/sawpanic/capitolflow/internal/politician"
	"github.com/sawpanic/capitolflow/internal/score"
	"github.com/sawpanic/capitolflow/internal/score/marketcap"
	"github.com/sawpanic/capitolflow/internal/score/oversight"
	"github.com/sawpanic/capitolflow/internal/signal"
	"github.com/sawpanic/capitolflow/internal/signal/contracts"
	"github.com/sawpanic/capitolflow/internal/store"
	"github.com/sawpanic/capitolflow/internal/store/cache"
	"github.com/sawpanic/capitolflow/internal/store/postgres"
	"github.com/sawpanic/capitolflow/internal/transform"
)

const appName = "capitolflow"

var (
	flagPipelineConfigPath  string
	flagProvidersConfigPath string
	flagPostgresDSN         string
	flagContractsFixture    string
	flagOversightFixture    string
	flagMarketcapFixture    string
	flagDays                int
	flagChambers            []string
)

// Execute builds and runs the root cobra command.
func Execute() error {
	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:     appName,
		Short:   "Congressional disclosure trading-signal pipeline",
		Version: "1.0.0",
	}
	root.PersistentFlags().StringVar(&flagPipelineConfigPath, "pipeline-config", "", "path to pipeline YAML config (defaults embedded)")
	root.PersistentFlags().StringVar(&flagProvidersConfigPath, "providers-config", "", "path to providers YAML config (defaults embedded)")
	root.PersistentFlags().StringVar(&flagPostgresDSN, "postgres-dsn", os.Getenv("CAPITOLFLOW_PG_DSN"), "Postgres connection string")
	root.PersistentFlags().StringVar(&flagContractsFixture, "contracts-fixture", "", "optional path to a contract-award JSON fixture")
	root.PersistentFlags().StringVar(&flagOversightFixture, "oversight-fixture", "", "optional path to a committee-oversight JSON fixture (SQS information-edge dimension)")
	root.PersistentFlags().StringVar(&flagMarketcapFixture, "marketcap-fixture", "", "optional path to a ticker-to-market-cap-tier JSON fixture (SQS market-impact dimension)")

	root.AddCommand(newETLCmd(log))
	root.AddCommand(newScoreCmd(log))
	root.AddCommand(newBacktestCmd(log))
	root.AddCommand(newScheduleCmd(log))

	return root.Execute()
}

// app bundles every constructed collaborator a subcommand might need.
type app struct {
	pipeCfg      *config.PipelineConfig
	providersCfg *config.ProvidersConfig
	secrets      *config.Secrets
	store        store.Store
	market       *marketdata.Client
	contracts    *contracts.Lookup
	committees   *oversight.Lookup
	caps         *marketcap.Lookup
	log          zerolog.Logger
}

func bootstrap(ctx context.Context, log zerolog.Logger) (*app, error) {
	pipeCfg, err := config.LoadPipelineConfig(flagPipelineConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	var providersCfg *config.ProvidersConfig
	if flagProvidersConfigPath != "" {
		providersCfg, err = config.LoadProvidersConfig(flagProvidersConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load providers config: %w", err)
		}
	} else {
		providersCfg = config.DefaultProvidersConfig()
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	if flagPostgresDSN == "" {
		return nil, fmt.Errorf("postgres DSN required: set --postgres-dsn or CAPITOLFLOW_PG_DSN")
	}
	pgCfg := postgres.DefaultConfig()
	pgCfg.DSN = flagPostgresDSN
	st, err := postgres.Open(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	priceCfg := providersCfg.Providers["price"]
	factorCfg := providersCfg.Providers["factor"]
	priceCache := cache.NewFromEnv(os.Getenv("CAPITOLFLOW_REDIS_ADDR"))
	market := marketdata.New(priceCfg, factorCfg, secrets.PriceProviderKey,
		ratelimit.NewLimiter(float64(priceCfg.RPS), priceCfg.Burst),
		ratelimit.NewLimiter(float64(factorCfg.RPS), factorCfg.Burst),
		circuit.NewBreaker(toCircuitConfig(priceCfg.Circuit)),
		circuit.NewBreaker(toCircuitConfig(factorCfg.Circuit)),
		budget.NewTracker("price", int64(priceCfg.DailyBudget), providersCfg.Budget.ResetHour, providersCfg.Budget.WarnThreshold),
		budget.NewTracker("factor", int64(factorCfg.DailyBudget), providersCfg.Budget.ResetHour, providersCfg.Budget.WarnThreshold),
		priceCache)

	var contractLookup *contracts.Lookup
	if flagContractsFixture != "" {
		contractLookup, err = contracts.LoadFixture(flagContractsFixture, 30*24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("load contracts fixture: %w", err)
		}
	}

	var committeeLookup *oversight.Lookup
	if flagOversightFixture != "" {
		committeeLookup, err = oversight.LoadFixture(flagOversightFixture)
		if err != nil {
			return nil, fmt.Errorf("load oversight fixture: %w", err)
		}
	}

	var capLookup *marketcap.Lookup
	if flagMarketcapFixture != "" {
		capLookup, err = marketcap.LoadFixture(flagMarketcapFixture)
		if err != nil {
			return nil, fmt.Errorf("load marketcap fixture: %w", err)
		}
	}

	return &app{
		pipeCfg:      pipeCfg,
		providersCfg: providersCfg,
		secrets:      secrets,
		store:        st,
		market:       market,
		contracts:    contractLookup,
		committees:   committeeLookup,
		caps:         capLookup,
		log:          log,
	}, nil
}

func toCircuitConfig(c config.CircuitConfig) circuit.Config {
	return circuit.Config{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		Timeout:          time.Duration(c.TimeoutMS) * time.Millisecond,
		RequestTimeout:   time.Duration(c.TimeoutMS) * time.Millisecond,
	}
}

// buildOrchestrator assembles the fetch->transform->load pipeline for the
// requested chambers, applying the Senate->CapitolTrades fallback chain
// and House's single-source chain.
func (a *app) buildOrchestrator(chambers []string) (*pipeline.Orchestrator, []pipeline.ChamberSource, error) {
	senateCfg := a.providersCfg.Providers["senate"]
	houseCfg := a.providersCfg.Providers["house"]
	ctCfg := a.providersCfg.Providers["capitoltrades"]
	llmCfg := a.providersCfg.Providers["llm"]

	senateLimiter := ratelimit.NewLimiter(float64(senateCfg.RPS), senateCfg.Burst)
	senateBreaker := circuit.NewBreaker(toCircuitConfig(senateCfg.Circuit))
	houseLimiter := ratelimit.NewLimiter(float64(houseCfg.RPS), houseCfg.Burst)
	houseBreaker := circuit.NewBreaker(toCircuitConfig(houseCfg.Circuit))
	ctLimiter := ratelimit.NewLimiter(float64(ctCfg.RPS), ctCfg.Burst)
	ctBreaker := circuit.NewBreaker(toCircuitConfig(ctCfg.Circuit))
	llmLimiter := ratelimit.NewLimiter(float64(llmCfg.RPS), llmCfg.Burst)
	llmBreaker := circuit.NewBreaker(toCircuitConfig(llmCfg.Circuit))
	llmBudget := budget.NewTracker("llm", int64(llmCfg.DailyBudget), a.providersCfg.Budget.ResetHour, a.providersCfg.Budget.WarnThreshold)

	senateFetcher := senate.New(senateCfg, senateLimiter, senateBreaker, "", a.log)
	houseFetcher := house.New(houseCfg, houseLimiter, houseBreaker, a.log)
	ctFetcher := capitoltrades.New(ctCfg, ctLimiter, ctBreaker, a.log)

	llmClient := transform.NewHTTPClient(llmCfg, *a.secrets, llmLimiter, llmBreaker, llmBudget, "extraction-v1")
	transformer := transform.New(llmClient, *a.pipeCfg, a.log)

	tradeWriter, _ := a.store.Trades()
	logWriter, _ := a.store.ExtractionLogs()
	nameRes := names.NewResolver(nil, nil, a.pipeCfg.NameSimilarityThreshold)
	tickerRes := tickers.NewResolver(nil, a.market)
	loader := load.New(tradeWriter, logWriter, nameRes, tickerRes, *a.pipeCfg, a.log)

	orch := pipeline.New(transformer, loader, a.log)

	var sources []pipeline.ChamberSource
	want := map[string]bool{}
	if len(chambers) == 0 {
		want["senate"] = true
		want["house"] = true
	} else {
		for _, c := range chambers {
			want[c] = true
		}
	}
	if want["senate"] {
		sources = append(sources, pipeline.ChamberSource{
			Chamber:  domain.ChamberSenate,
			Fetchers: []fetch.Fetcher{senateFetcher, ctFetcher},
		})
	}
	if want["house"] {
		sources = append(sources, pipeline.ChamberSource{
			Chamber:  domain.ChamberHouse,
			Fetchers: []fetch.Fetcher{houseFetcher},
		})
	}
	return orch, sources, nil
}

func (a *app) buildScorers() (*score.SQSScorer, store.SQSWriter, store.TradeReader, *score.ConvergenceDetector, *politician.Ranker) {
	_, tradeReader := a.store.Trades()
	sqsWriter, _ := a.store.SQS()
	pisWriter, pisReader := a.store.PIS()
	convWriter, _ := a.store.Convergence()

	sqsScorer := score.NewSQSScorer(config.DefaultSQSWeights(), config.DefaultGradeBands(), pisReader, tradeReader, a.committees, a.caps)
	conv := score.NewConvergenceDetector(tradeReader, convWriter, a.pipeCfg.ConvergenceWindowDays, nil)
	ranker := politician.New(tradeReader, pisWriter)
	return sqsScorer, sqsWriter, tradeReader, conv, ranker
}

func (a *app) buildSignalStages(guardrails *backtest.GuardrailLookup) (*signal.Generator, *signal.Enhancer) {
	_, tradeReader := a.store.Trades()
	_, sqsReader := a.store.SQS()
	_, convReader := a.store.Convergence()
	_, pisReader := a.store.PIS()
	sigWriter, sigReader := a.store.Signals()
	enhWriter, _ := a.store.EnhancedSignals()

	gen := signal.NewGenerator(tradeReader, sqsReader, convReader, pisReader, sigWriter,
		config.DefaultMultiplierLadder(), config.DefaultExpectedAlphaBaseline(), *a.pipeCfg)
	enh := signal.NewEnhancer(tradeReader, sqsReader, convReader, sigReader, enhWriter, a.market, a.contracts, guardrails,
		config.DefaultPACSWeights(), config.DefaultVIXRegimeBands(), *a.pipeCfg)
	return gen, enh
}

// runGuardrailBacktest backtests every canonical trade and folds the
// resulting guardrail verdict into a lookup the Enhancer consults, wiring
// the backtester's statistical review gate into signal enhancement (§4.8
// scenario 4) without making the Enhancer itself depend on a live price
// feed. A nil price/factor client (a.market) yields a nil lookup, which
// the Enhancer already treats as "never flag for review."
func (a *app) runGuardrailBacktest(ctx context.Context, tradeReader store.TradeReader, sigReader store.SignalReader) (*backtest.GuardrailLookup, error) {
	if a.market == nil {
		return nil, nil
	}
	trades, err := tradeReader.AllCanonical(ctx)
	if err != nil {
		return nil, fmt.Errorf("load canonical trades for backtest: %w", err)
	}
	bt := a.buildBacktester()
	batch, err := bt.Run(ctx, trades, sigReader)
	if err != nil {
		return nil, fmt.Errorf("run guardrail backtest: %w", err)
	}
	return backtest.NewGuardrailLookup(batch), nil
}

func (a *app) buildBacktester() *backtest.Backtester {
	return backtest.New(a.market, a.market)
}
