package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
)

// fakeStore is an in-memory stand-in for the Postgres repository. It
// implements all three repository interfaces the services consume.
type fakeStore struct {
	ledgers      map[string]models.Ledger
	accounts     map[string]*models.Account
	transactions map[string]models.Transaction
	entries      []models.Entry
	apiKeys      map[string]*models.ApiKey

	postCalls int
	clock     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledgers:      map[string]models.Ledger{},
		accounts:     map[string]*models.Account{},
		transactions: map[string]models.Transaction{},
		apiKeys:      map[string]*models.ApiKey{},
		clock:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) addLedger(tenantID, name string) models.Ledger {
	l := models.Ledger{ID: uuid.NewString(), TenantID: tenantID, Name: name, CreatedAt: f.tick(), UpdatedAt: f.clock}
	f.ledgers[l.ID] = l
	return l
}

func (f *fakeStore) addAccount(tenantID, ledgerID, name, currency string, balance int64) *models.Account {
	a := &models.Account{
		ID: uuid.NewString(), TenantID: tenantID, LedgerID: ledgerID,
		Name: name, Currency: currency, BalanceMinor: balance,
		CreatedAt: f.tick(), UpdatedAt: f.clock,
	}
	f.accounts[a.ID] = a
	return a
}

// --- LedgerRepository ---

func (f *fakeStore) CreateLedger(ctx context.Context, tenantID, name string) (*models.Ledger, error) {
	l := f.addLedger(tenantID, name)
	return &l, nil
}

func (f *fakeStore) CreateAccount(ctx context.Context, tenantID, ledgerID, name, currency string) (*models.Account, error) {
	if l, ok := f.ledgers[ledgerID]; !ok || l.TenantID != tenantID {
		return nil, apperr.LedgerNotFound(ledgerID)
	}
	return f.addAccount(tenantID, ledgerID, name, currency, 0), nil
}

func (f *fakeStore) PostTransaction(ctx context.Context, input models.PostTransactionInput) (*models.PostTransactionResult, error) {
	f.postCalls++

	refKey := input.TenantID + "/" + input.Reference
	if existing, ok := f.transactions[refKey]; ok {
		return &models.PostTransactionResult{TransactionID: existing.ID, Created: false}, nil
	}

	deltas := map[string]int64{}
	for _, e := range input.Entries {
		a, ok := f.accounts[e.AccountID]
		if !ok || a.TenantID != input.TenantID || a.LedgerID != input.LedgerID || a.Currency != input.Currency {
			return nil, apperr.InvariantViolation("account ledger/currency mismatch")
		}
		if e.Direction == models.DirectionDebit {
			deltas[e.AccountID] -= e.AmountMinor
		} else {
			deltas[e.AccountID] += e.AmountMinor
		}
	}

	tx := models.Transaction{
		ID: uuid.NewString(), TenantID: input.TenantID, LedgerID: input.LedgerID,
		Reference: input.Reference, Currency: input.Currency, CreatedAt: f.tick(),
	}
	f.transactions[refKey] = tx
	for _, e := range input.Entries {
		f.entries = append(f.entries, models.Entry{
			ID: uuid.NewString(), TenantID: input.TenantID, TransactionID: tx.ID,
			AccountID: e.AccountID, Direction: e.Direction, AmountMinor: e.AmountMinor,
			Currency: e.Currency, CreatedAt: tx.CreatedAt,
		})
	}
	for id, delta := range deltas {
		f.accounts[id].BalanceMinor += delta
	}
	return &models.PostTransactionResult{TransactionID: tx.ID, Created: true}, nil
}

// --- LedgerReadRepository ---

func (f *fakeStore) GetLedgerByID(ctx context.Context, tenantID, ledgerID string) (*models.Ledger, error) {
	l, ok := f.ledgers[ledgerID]
	if !ok || l.TenantID != tenantID {
		return nil, apperr.LedgerNotFound(ledgerID)
	}
	return &l, nil
}

func (f *fakeStore) GetLedgersByTenant(ctx context.Context, tenantID string) ([]models.Ledger, error) {
	var out []models.Ledger
	for _, l := range f.ledgers {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListAccounts(ctx context.Context, q models.ListQuery) (*models.Page[models.Account], error) {
	var all []models.Account
	for _, a := range f.accounts {
		if a.TenantID == q.TenantID {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	page := &models.Page[models.Account]{Data: all}
	if len(all) > q.Limit {
		page.Data = all[:q.Limit]
		page.NextCursor = fmt.Sprintf("cursor-%s", all[q.Limit-1].ID)
	}
	return page, nil
}

func (f *fakeStore) ListTransactions(ctx context.Context, q models.ListQuery) (*models.Page[models.Transaction], error) {
	var all []models.Transaction
	for _, t := range f.transactions {
		if t.TenantID == q.TenantID {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return &models.Page[models.Transaction]{Data: all}, nil
}

func (f *fakeStore) ListEntries(ctx context.Context, q models.ListQuery) (*models.Page[models.Entry], error) {
	var all []models.Entry
	for _, e := range f.entries {
		if e.TenantID == q.TenantID {
			all = append(all, e)
		}
	}
	return &models.Page[models.Entry]{Data: all}, nil
}

func (f *fakeStore) GetLedgerAccounts(ctx context.Context, tenantID, ledgerID string) ([]models.Account, error) {
	var out []models.Account
	for _, a := range f.accounts {
		if a.TenantID == tenantID && a.LedgerID == ledgerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- ApiKeyRepository ---

func (f *fakeStore) InsertApiKey(ctx context.Context, key models.ApiKey) error {
	stored := key
	f.apiKeys[key.ID] = &stored
	return nil
}

func (f *fakeStore) GetApiKeyByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	for _, k := range f.apiKeys {
		if k.KeyHash == keyHash {
			copied := *k
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListApiKeys(ctx context.Context, tenantID string) ([]models.ApiKey, error) {
	var out []models.ApiKey
	for _, k := range f.apiKeys {
		if k.TenantID == tenantID {
			out = append(out, *k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) RevokeApiKey(ctx context.Context, tenantID, apiKeyID string, revokedAt time.Time) (bool, error) {
	k, ok := f.apiKeys[apiKeyID]
	if !ok || k.TenantID != tenantID || k.RevokedAt != nil {
		return false, nil
	}
	k.RevokedAt = &revokedAt
	return true, nil
}

func (f *fakeStore) Bootstrap(ctx context.Context, tenantName string, key models.ApiKey) (*models.BootstrapResult, error) {
	if len(f.apiKeys) > 0 {
		return &models.BootstrapResult{}, nil
	}
	tenantID := uuid.NewString()
	key.TenantID = tenantID
	stored := key
	f.apiKeys[key.ID] = &stored
	return &models.BootstrapResult{Created: true, TenantID: tenantID, ApiKeyID: key.ID}, nil
}
