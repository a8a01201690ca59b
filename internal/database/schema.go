package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements is the full relational schema. Statements are idempotent so
// EnsureSchema can run on every startup. Row-level security on the
// tenant-scoped tables is keyed to the transaction-local setting
// app.tenant_id; the repository binds it with SET LOCAL at the start of
// every transaction.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS ledgers (
		id         UUID PRIMARY KEY,
		tenant_id  UUID NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		id            UUID PRIMARY KEY,
		tenant_id     UUID NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		ledger_id     UUID NOT NULL REFERENCES ledgers(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		name          TEXT NOT NULL,
		currency      CHAR(3) NOT NULL,
		balance_minor BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id         UUID PRIMARY KEY,
		tenant_id  UUID NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		ledger_id  UUID NOT NULL REFERENCES ledgers(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		reference  TEXT NOT NULL,
		currency   CHAR(3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_tenant_reference_key
		ON transactions (tenant_id, reference)`,

	`CREATE TABLE IF NOT EXISTS entries (
		id             UUID PRIMARY KEY,
		tenant_id      UUID NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		transaction_id UUID NOT NULL REFERENCES transactions(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		account_id     UUID NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		direction      TEXT NOT NULL CHECK (direction IN ('DEBIT', 'CREDIT')),
		amount_minor   BIGINT NOT NULL CHECK (amount_minor > 0),
		currency       CHAR(3) NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id         UUID PRIMARY KEY,
		tenant_id  UUID NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL CHECK (role IN ('ADMIN', 'SERVICE')),
		key_hash   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		revoked_at TIMESTAMPTZ
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS api_keys_key_hash_key ON api_keys (key_hash)`,

	`CREATE INDEX IF NOT EXISTS accounts_tenant_created_idx ON accounts (tenant_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS transactions_tenant_created_idx ON transactions (tenant_id, created_at, id)`,
	`CREATE INDEX IF NOT EXISTS entries_tenant_created_idx ON entries (tenant_id, created_at, id)`,

	// FORCE is required as well: the pool connects as the role that
	// owns these tables, and owners bypass row security otherwise.
	`ALTER TABLE ledgers ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE ledgers FORCE ROW LEVEL SECURITY`,
	`ALTER TABLE accounts ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE accounts FORCE ROW LEVEL SECURITY`,
	`ALTER TABLE transactions ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE transactions FORCE ROW LEVEL SECURITY`,
	`ALTER TABLE entries ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE entries FORCE ROW LEVEL SECURITY`,

	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE tablename = 'ledgers' AND policyname = 'ledgers_tenant_isolation') THEN
			CREATE POLICY ledgers_tenant_isolation ON ledgers
				USING (tenant_id::text = current_setting('app.tenant_id', true));
		END IF;
	END $$`,

	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE tablename = 'accounts' AND policyname = 'accounts_tenant_isolation') THEN
			CREATE POLICY accounts_tenant_isolation ON accounts
				USING (tenant_id::text = current_setting('app.tenant_id', true));
		END IF;
	END $$`,

	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE tablename = 'transactions' AND policyname = 'transactions_tenant_isolation') THEN
			CREATE POLICY transactions_tenant_isolation ON transactions
				USING (tenant_id::text = current_setting('app.tenant_id', true));
		END IF;
	END $$`,

	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_policies WHERE tablename = 'entries' AND policyname = 'entries_tenant_isolation') THEN
			CREATE POLICY entries_tenant_isolation ON entries
				USING (tenant_id::text = current_setting('app.tenant_id', true));
		END IF;
	END $$`,
}

// EnsureSchema applies the schema statements in order.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema setup failed: %w", err)
		}
	}
	return nil
}
