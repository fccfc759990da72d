package postgres

// schema is applied once at startup. It is intentionally idempotent
// (CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT EXISTS) so repeated
// runs against an already-migrated database are no-ops, matching the
// append-only, re-derivation-friendly model in spec.md §4.1.
const schema = `
CREATE TABLE IF NOT EXISTS trades (
	data_hash             TEXT PRIMARY KEY,
	chamber               TEXT NOT NULL,
	politician_name       TEXT NOT NULL,
	surface_name          TEXT NOT NULL,
	transaction_date      DATE NOT NULL,
	filing_date           DATE NOT NULL,
	ticker                TEXT,
	asset_name            TEXT NOT NULL,
	asset_type            TEXT NOT NULL,
	transaction_type      TEXT NOT NULL,
	amount_bucket         TEXT NOT NULL,
	owner                 TEXT NOT NULL,
	comment               TEXT NOT NULL DEFAULT '',
	source_url            TEXT NOT NULL,
	source_format         TEXT NOT NULL,
	extraction_confidence DOUBLE PRECISION NOT NULL,
	status                TEXT NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_trades_politician ON trades (politician_name, transaction_date);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades (ticker, transaction_date);
CREATE INDEX IF NOT EXISTS idx_trades_ordering ON trades (transaction_date, filing_date, data_hash);

CREATE TABLE IF NOT EXISTS extraction_logs (
	id                TEXT PRIMARY KEY,
	source_identifier TEXT NOT NULL,
	source_format     TEXT NOT NULL,
	raw_record_count  INT NOT NULL,
	extracted_count   INT NOT NULL,
	duplicate_count   INT NOT NULL DEFAULT 0,
	confidence        DOUBLE PRECISION NOT NULL,
	status            TEXT NOT NULL,
	error_message     TEXT NOT NULL DEFAULT '',
	llm_call_count    INT NOT NULL DEFAULT 0,
	ts                TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_extraction_logs_source ON extraction_logs (source_identifier, ts);

CREATE TABLE IF NOT EXISTS sqs_records (
	trade_hash       TEXT PRIMARY KEY REFERENCES trades(data_hash),
	actionability    DOUBLE PRECISION NOT NULL,
	timeliness       DOUBLE PRECISION NOT NULL,
	conviction       DOUBLE PRECISION NOT NULL,
	information_edge DOUBLE PRECISION NOT NULL,
	market_impact    DOUBLE PRECISION NOT NULL,
	sqs              DOUBLE PRECISION NOT NULL,
	grade            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS convergence_events (
	ticker        TEXT NOT NULL,
	direction     TEXT NOT NULL,
	window_start  DATE NOT NULL,
	window_end    DATE NOT NULL,
	span_days     INT NOT NULL,
	participants  JSONB NOT NULL,
	score         DOUBLE PRECISION NOT NULL,
	score_breakdown JSONB NOT NULL,
	PRIMARY KEY (ticker, direction, window_start)
);

CREATE TABLE IF NOT EXISTS alpha_signals (
	trade_hash          TEXT PRIMARY KEY REFERENCES trades(data_hash),
	direction           TEXT NOT NULL,
	expected_alpha_5d   DOUBLE PRECISION NOT NULL,
	expected_alpha_20d  DOUBLE PRECISION NOT NULL,
	confidence          DOUBLE PRECISION NOT NULL,
	signal_strength     DOUBLE PRECISION NOT NULL,
	combined_multiplier DOUBLE PRECISION NOT NULL,
	convergence_bonus   DOUBLE PRECISION NOT NULL,
	politician_grade    TEXT NOT NULL,
	filing_lag_days     INT NOT NULL,
	sqs_snapshot        DOUBLE PRECISION NOT NULL,
	sqs_grade           TEXT NOT NULL,
	reasoning           JSONB NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enhanced_signals (
	trade_hash         TEXT PRIMARY KEY REFERENCES trades(data_hash),
	pacs               DOUBLE PRECISION NOT NULL,
	vix_at_filing      DOUBLE PRECISION NOT NULL,
	vix_multiplier     DOUBLE PRECISION NOT NULL,
	enhanced_strength  DOUBLE PRECISION NOT NULL,
	amount_sweet_spot  BOOLEAN NOT NULL,
	burst_convergence  BOOLEAN NOT NULL,
	contract_bonus     DOUBLE PRECISION NOT NULL,
	decayed_alpha_20d  DOUBLE PRECISION NOT NULL,
	hard_filtered      BOOLEAN NOT NULL,
	hard_filter_reason TEXT NOT NULL DEFAULT '',
	review_required    BOOLEAN NOT NULL DEFAULT false,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS politician_pis (
	politician_name TEXT PRIMARY KEY,
	activity        DOUBLE PRECISION NOT NULL,
	conviction      DOUBLE PRECISION NOT NULL,
	diversification DOUBLE PRECISION NOT NULL,
	timing          DOUBLE PRECISION NOT NULL,
	composite       DOUBLE PRECISION NOT NULL,
	rank            INT NOT NULL DEFAULT 0
);
`
