package sqlstore

import "strings"

// Records are keyed by (user_id, id). Money is stored as NUMERIC on
// PostgreSQL and as exact decimal TEXT on SQLite; timestamps are always
// written in UTC.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	amount {{MONEY}} NOT NULL,
	date {{TIMESTAMP}} NOT NULL,
	is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
	recurring_frequency TEXT NOT NULL DEFAULT '',
	attachment_uri TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions (user_id, date);
CREATE TABLE IF NOT EXISTS budgets (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	category TEXT NOT NULL,
	limit_amount {{MONEY}} NOT NULL,
	spent {{MONEY}},
	period TEXT NOT NULL DEFAULT '',
	start_date {{TIMESTAMP}},
	end_date {{TIMESTAMP}},
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets (user_id);
CREATE TABLE IF NOT EXISTS insights (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at {{TIMESTAMP}} NOT NULL,
	related_transaction_ids TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_insights_user_created ON insights (user_id, created_at)
`

func schema(d Dialect) []string {
	money, ts := "TEXT", "DATETIME"
	if d == DialectPostgres {
		money, ts = "NUMERIC", "TIMESTAMPTZ"
	}
	ddl := strings.NewReplacer("{{MONEY}}", money, "{{TIMESTAMP}}", ts).Replace(schemaTemplate)

	var stmts []string
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
