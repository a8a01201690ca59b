package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
)

// Postgres is the single concrete store. It satisfies LedgerRepository,
// LedgerReadRepository and ApiKeyRepository.
type Postgres struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgres(db *sql.DB, logger zerolog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger.With().Str("component", "repository").Logger()}
}

// withTenantTx runs fn inside one database transaction with the tenant
// identifier bound to the transaction-local app.tenant_id setting. Row
// level security on the tenant-scoped tables keys off that setting, so
// the binding must happen before any other statement; it dies with the
// transaction, which keeps pooled connections clean.
func (r *Postgres) withTenantTx(ctx context.Context, tenantID string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.RepositoryError("begin transaction failed", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT set_config('app.tenant_id', $1, true)`, tenantID); err != nil {
		return apperr.RepositoryError("bind tenant failed", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.RepositoryError("commit transaction failed", err)
	}
	return nil
}

// --- LedgerRepository ---

func (r *Postgres) CreateLedger(ctx context.Context, tenantID, name string) (*models.Ledger, error) {
	ledger := &models.Ledger{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Name:     name,
	}
	err := r.withTenantTx(ctx, tenantID, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO ledgers (id, tenant_id, name)
			VALUES ($1, $2, $3)
			RETURNING created_at, updated_at`,
			ledger.ID, ledger.TenantID, ledger.Name,
		).Scan(&ledger.CreatedAt, &ledger.UpdatedAt)
		if err != nil {
			return translateDBError("insert ledger", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (r *Postgres) CreateAccount(ctx context.Context, tenantID, ledgerID, name, currency string) (*models.Account, error) {
	account := &models.Account{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		LedgerID: ledgerID,
		Name:     name,
		Currency: currency,
	}
	err := r.withTenantTx(ctx, tenantID, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM ledgers WHERE id = $1 AND tenant_id = $2`,
			ledgerID, tenantID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.LedgerNotFound(ledgerID)
		}
		if err != nil {
			return translateDBError("check ledger", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO accounts (id, tenant_id, ledger_id, name, currency)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING balance_minor, created_at, updated_at`,
			account.ID, account.TenantID, account.LedgerID, account.Name, account.Currency,
		).Scan(&account.BalanceMinor, &account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			return translateDBError("insert account", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// PostTransaction is the atomic write path. The transaction row is
// inserted idempotently on (tenant_id, reference); a conflict means the
// reference was already committed (or just lost a race), in which case
// the existing id is returned and nothing else changes. Fresh inserts
// write all entry rows and then apply balance deltas in ascending
// account-id order so that concurrent postings touching overlapping
// account sets acquire row locks in the same order.
func (r *Postgres) PostTransaction(ctx context.Context, input models.PostTransactionInput) (*models.PostTransactionResult, error) {
	result := &models.PostTransactionResult{}
	err := r.withTenantTx(ctx, input.TenantID, func(tx *sql.Tx) error {
		var insertedID string
		err := tx.QueryRowContext(ctx, `
			INSERT INTO transactions (id, tenant_id, ledger_id, reference, currency)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, reference) DO NOTHING
			RETURNING id`,
			uuid.NewString(), input.TenantID, input.LedgerID, input.Reference, input.Currency,
		).Scan(&insertedID)

		if errors.Is(err, sql.ErrNoRows) {
			var existingID string
			err := tx.QueryRowContext(ctx, `
				SELECT id FROM transactions WHERE tenant_id = $1 AND reference = $2`,
				input.TenantID, input.Reference,
			).Scan(&existingID)
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.RepositoryError("transaction missing after reference conflict", nil)
			}
			if err != nil {
				return translateDBError("load existing transaction", err)
			}
			result.TransactionID = existingID
			return nil
		}
		if err != nil {
			return translateDBError("insert transaction", err)
		}

		if err := insertEntries(ctx, tx, insertedID, input); err != nil {
			return err
		}
		if err := applyBalanceDeltas(ctx, tx, input); err != nil {
			return err
		}

		result.TransactionID = insertedID
		result.Created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, transactionID string, input models.PostTransactionInput) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO entries (id, tenant_id, transaction_id, account_id, direction, amount_minor, currency) VALUES `)

	args := make([]any, 0, len(input.Entries)*7)
	for i, e := range input.Entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, uuid.NewString(), input.TenantID, transactionID,
			e.AccountID, e.Direction, e.AmountMinor, input.Currency)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return translateDBError("insert entries", err)
	}
	return nil
}

func applyBalanceDeltas(ctx context.Context, tx *sql.Tx, input models.PostTransactionInput) error {
	deltas := make(map[string]int64, len(input.Entries))
	for _, e := range input.Entries {
		if e.Direction == models.DirectionDebit {
			deltas[e.AccountID] -= e.AmountMinor
		} else {
			deltas[e.AccountID] += e.AmountMinor
		}
	}

	// Ascending account-id order imposes a global lock order across
	// concurrent postings; do not skip the sort.
	accountIDs := make([]string, 0, len(deltas))
	for id := range deltas {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	for _, accountID := range accountIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET balance_minor = balance_minor + $1, updated_at = now()
			WHERE id = $2 AND tenant_id = $3 AND ledger_id = $4 AND currency = $5`,
			deltas[accountID], accountID, input.TenantID, input.LedgerID, input.Currency)
		if err != nil {
			return apperr.RepositoryError("update account balance failed", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return apperr.RepositoryError("update account balance failed", err)
		}
		if affected == 0 {
			return apperr.InvariantViolation("account ledger/currency mismatch")
		}
	}
	return nil
}

// --- LedgerReadRepository ---

func (r *Postgres) GetLedgerByID(ctx context.Context, tenantID, ledgerID string) (*models.Ledger, error) {
	var ledger models.Ledger
	err := r.withTenantTx(ctx, tenantID, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT id, tenant_id, name, created_at, updated_at
			FROM ledgers WHERE id = $1 AND tenant_id = $2`,
			ledgerID, tenantID,
		).Scan(&ledger.ID, &ledger.TenantID, &ledger.Name, &ledger.CreatedAt, &ledger.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.LedgerNotFound(ledgerID)
		}
		if err != nil {
			return translateDBError("get ledger", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *Postgres) GetLedgersByTenant(ctx context.Context, tenantID string) ([]models.Ledger, error) {
	var ledgers []models.Ledger
	err := r.withTenantTx(ctx, tenantID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, tenant_id, name, created_at, updated_at
			FROM ledgers WHERE tenant_id = $1
			ORDER BY created_at ASC, id ASC`,
			tenantID)
		if err != nil {
			return translateDBError("list ledgers", err)
		}
		defer rows.Close()
		for rows.Next() {
			var l models.Ledger
			if err := rows.Scan(&l.ID, &l.TenantID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
				return translateDBError("scan ledger", err)
			}
			ledgers = append(ledgers, l)
		}
		if err := rows.Err(); err != nil {
			return translateDBError("list ledgers", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledgers, nil
}

func parseOptionalCursor(raw string) (listCursor, bool, error) {
	if raw == "" {
		return listCursor{}, false, nil
	}
	cur, err := decodeCursor(raw)
	if err != nil {
		return listCursor{}, false, err
	}
	return cur, true, nil
}

// listQueryFor builds the shared keyset query: filter by tenant, seek
// past the cursor, order by (created_at, id) and probe one row past the
// limit so the caller can tell whether another page exists.
func listQueryFor(table, columns string, q models.ListQuery, cur listCursor, hasCursor bool) (string, []any) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = $1`, columns, table)
	args := []any{q.TenantID}
	if hasCursor {
		query += ` AND (created_at > $2 OR (created_at = $2 AND id > $3))`
		args = append(args, cur.CreatedAt, cur.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC, id ASC LIMIT $%d`, len(args)+1)
	args = append(args, q.Limit+1)
	return query, args
}

func (r *Postgres) ListAccounts(ctx context.Context, q models.ListQuery) (*models.Page[models.Account], error) {
	cur, hasCursor, err := parseOptionalCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	page := &models.Page[models.Account]{Data: []models.Account{}}
	err = r.withTenantTx(ctx, q.TenantID, func(tx *sql.Tx) error {
		query, args := listQueryFor("accounts",
			"id, tenant_id, ledger_id, name, currency, balance_minor, created_at, updated_at",
			q, cur, hasCursor)
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return translateDBError("list accounts", err)
		}
		defer rows.Close()
		for rows.Next() {
			var a models.Account
			if err := rows.Scan(&a.ID, &a.TenantID, &a.LedgerID, &a.Name, &a.Currency,
				&a.BalanceMinor, &a.CreatedAt, &a.UpdatedAt); err != nil {
				return translateDBError("scan account", err)
			}
			page.Data = append(page.Data, a)
		}
		if err := rows.Err(); err != nil {
			return translateDBError("list accounts", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(page.Data) > q.Limit {
		last := page.Data[q.Limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
		page.Data = page.Data[:q.Limit]
	}
	return page, nil
}

func (r *Postgres) ListTransactions(ctx context.Context, q models.ListQuery) (*models.Page[models.Transaction], error) {
	cur, hasCursor, err := parseOptionalCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	page := &models.Page[models.Transaction]{Data: []models.Transaction{}}
	err = r.withTenantTx(ctx, q.TenantID, func(tx *sql.Tx) error {
		query, args := listQueryFor("transactions",
			"id, tenant_id, ledger_id, reference, currency, created_at",
			q, cur, hasCursor)
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return translateDBError("list transactions", err)
		}
		defer rows.Close()
		for rows.Next() {
			var t models.Transaction
			if err := rows.Scan(&t.ID, &t.TenantID, &t.LedgerID, &t.Reference,
				&t.Currency, &t.CreatedAt); err != nil {
				return translateDBError("scan transaction", err)
			}
			page.Data = append(page.Data, t)
		}
		if err := rows.Err(); err != nil {
			return translateDBError("list transactions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(page.Data) > q.Limit {
		last := page.Data[q.Limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
		page.Data = page.Data[:q.Limit]
	}
	return page, nil
}

func (r *Postgres) ListEntries(ctx context.Context, q models.ListQuery) (*models.Page[models.Entry], error) {
	cur, hasCursor, err := parseOptionalCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	page := &models.Page[models.Entry]{Data: []models.Entry{}}
	err = r.withTenantTx(ctx, q.TenantID, func(tx *sql.Tx) error {
		// Entries carry their own tenant_id so this stays a
		// single-table query covered by the entries RLS policy.
		query, args := listQueryFor("entries",
			"id, tenant_id, transaction_id, account_id, direction, amount_minor, currency, created_at",
			q, cur, hasCursor)
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return translateDBError("list entries", err)
		}
		defer rows.Close()
		for rows.Next() {
			var e models.Entry
			if err := rows.Scan(&e.ID, &e.TenantID, &e.TransactionID, &e.AccountID,
				&e.Direction, &e.AmountMinor, &e.Currency, &e.CreatedAt); err != nil {
				return translateDBError("scan entry", err)
			}
			page.Data = append(page.Data, e)
		}
		if err := rows.Err(); err != nil {
			return translateDBError("list entries", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(page.Data) > q.Limit {
		last := page.Data[q.Limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
		page.Data = page.Data[:q.Limit]
	}
	return page, nil
}

func (r *Postgres) GetLedgerAccounts(ctx context.Context, tenantID, ledgerID string) ([]models.Account, error) {
	accounts := []models.Account{}
	err := r.withTenantTx(ctx, tenantID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id, tenant_id, ledger_id, name, currency, balance_minor, created_at, updated_at
			FROM accounts WHERE tenant_id = $1 AND ledger_id = $2
			ORDER BY created_at ASC, id ASC`,
			tenantID, ledgerID)
		if err != nil {
			return translateDBError("list ledger accounts", err)
		}
		defer rows.Close()
		for rows.Next() {
			var a models.Account
			if err := rows.Scan(&a.ID, &a.TenantID, &a.LedgerID, &a.Name, &a.Currency,
				&a.BalanceMinor, &a.CreatedAt, &a.UpdatedAt); err != nil {
				return translateDBError("scan account", err)
			}
			accounts = append(accounts, a)
		}
		if err := rows.Err(); err != nil {
			return translateDBError("list ledger accounts", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// --- ApiKeyRepository ---
//
// api_keys and tenants carry no RLS policy: key lookup happens before
// any tenant is known, so these run outside the tenant-bound helper and
// filter explicitly.

func (r *Postgres) InsertApiKey(ctx context.Context, key models.ApiKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, tenant_id, name, role, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.TenantID, key.Name, key.Role, key.KeyHash, key.CreatedAt)
	if err != nil {
		return translateDBError("insert api key", err)
	}
	return nil
}

func (r *Postgres) GetApiKeyByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	var key models.ApiKey
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, role, key_hash, created_at, revoked_at
		FROM api_keys WHERE key_hash = $1`,
		keyHash,
	).Scan(&key.ID, &key.TenantID, &key.Name, &key.Role, &key.KeyHash, &key.CreatedAt, &key.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translateDBError("get api key", err)
	}
	return &key, nil
}

func (r *Postgres) ListApiKeys(ctx context.Context, tenantID string) ([]models.ApiKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, role, key_hash, created_at, revoked_at
		FROM api_keys WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC`,
		tenantID)
	if err != nil {
		return nil, translateDBError("list api keys", err)
	}
	defer rows.Close()

	keys := []models.ApiKey{}
	for rows.Next() {
		var key models.ApiKey
		if err := rows.Scan(&key.ID, &key.TenantID, &key.Name, &key.Role, &key.KeyHash,
			&key.CreatedAt, &key.RevokedAt); err != nil {
			return nil, translateDBError("scan api key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError("list api keys", err)
	}
	return keys, nil
}

func (r *Postgres) RevokeApiKey(ctx context.Context, tenantID, apiKeyID string, revokedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE api_keys SET revoked_at = $1
		WHERE id = $2 AND tenant_id = $3 AND revoked_at IS NULL`,
		revokedAt, apiKeyID, tenantID)
	if err != nil {
		return false, translateDBError("revoke api key", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, translateDBError("revoke api key", err)
	}
	return affected > 0, nil
}

// Bootstrap provisions the first tenant and admin key on an empty
// key table. It is an idempotent no-op once any key exists.
func (r *Postgres) Bootstrap(ctx context.Context, tenantName string, key models.ApiKey) (*models.BootstrapResult, error) {
	result := &models.BootstrapResult{}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.RepositoryError("begin transaction failed", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM api_keys`).Scan(&count); err != nil {
		return nil, translateDBError("count api keys", err)
	}
	if count > 0 {
		if err := tx.Commit(); err != nil {
			return nil, apperr.RepositoryError("commit transaction failed", err)
		}
		return result, nil
	}

	tenantID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tenants (id, name) VALUES ($1, $2)`,
		tenantID, tenantName); err != nil {
		return nil, translateDBError("insert tenant", err)
	}

	key.TenantID = tenantID
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO api_keys (id, tenant_id, name, role, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.TenantID, key.Name, key.Role, key.KeyHash, key.CreatedAt); err != nil {
		return nil, translateDBError("insert api key", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.RepositoryError("commit transaction failed", err)
	}

	result.Created = true
	result.TenantID = tenantID
	result.ApiKeyID = key.ID
	r.logger.Info().Str("tenant_id", tenantID).Msg("bootstrapped initial tenant and admin key")
	return result, nil
}
