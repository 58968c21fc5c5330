package store

// schemaDDL is idempotent; EnsureSchema runs it on startup.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	created_at        TIMESTAMPTZ NOT NULL,
	total_rows        INTEGER NOT NULL,
	accepted          INTEGER NOT NULL,
	rejected          INTEGER NOT NULL,
	locations         INTEGER NOT NULL,
	first_date        TEXT,
	last_date         TEXT,
	void_rate         DOUBLE PRECISION NOT NULL,
	refund_rate       DOUBLE PRECISION NOT NULL,
	avg_discount_rate DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id            BIGSERIAL PRIMARY KEY,
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	order_id      TEXT NOT NULL,
	location_id   TEXT NOT NULL,
	ts            TIMESTAMPTZ NOT NULL,
	staff_ref     TEXT,
	category      TEXT,
	product       TEXT,
	quantity      DOUBLE PRECISION NOT NULL,
	unit_price    DOUBLE PRECISION NOT NULL,
	unit_cost     DOUBLE PRECISION,
	discount_rate DOUBLE PRECISION NOT NULL,
	tender        TEXT NOT NULL,
	order_type    TEXT NOT NULL,
	status        TEXT NOT NULL,
	excise_tax    DOUBLE PRECISION NOT NULL,
	state_tax     DOUBLE PRECISION NOT NULL,
	local_tax     DOUBLE PRECISION NOT NULL,
	total_tax     DOUBLE PRECISION NOT NULL,
	total         DOUBLE PRECISION NOT NULL,
	sale_date     TEXT NOT NULL,
	sale_hour     INTEGER NOT NULL,
	day_of_week   TEXT NOT NULL,
	daypart       TEXT NOT NULL,
	margin        DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS transactions_run_id_idx
	ON transactions (run_id);
CREATE INDEX IF NOT EXISTS transactions_location_date_idx
	ON transactions (location_id, sale_date);

CREATE TABLE IF NOT EXISTS exceptions (
	id              BIGSERIAL PRIMARY KEY,
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	kind            TEXT NOT NULL,
	severity        TEXT NOT NULL,
	transaction_ref TEXT,
	location_id     TEXT,
	sale_date       TEXT,
	staff_ref       TEXT,
	detail          TEXT NOT NULL,
	computed_value  DOUBLE PRECISION,
	expected_value  DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS exceptions_run_id_idx
	ON exceptions (run_id);

CREATE TABLE IF NOT EXISTS rejected_rows (
	id      BIGSERIAL PRIMARY KEY,
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	line    INTEGER NOT NULL,
	reason  TEXT NOT NULL,
	raw_row JSONB
);
`
