package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlink/backend/internal/apperr"
	"github.com/ledgerlink/backend/internal/models"
)

func TestReadServiceListValidation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	service := NewReadService(store, zerolog.Nop())

	t.Run("tenant is required", func(t *testing.T) {
		_, err := service.ListAccounts(ctx, models.ListQuery{Limit: 50})
		assert.True(t, apperr.IsInvariantViolation(err))
	})

	t.Run("limit bounds are enforced", func(t *testing.T) {
		for _, limit := range []int{0, -1, 201} {
			_, err := service.ListAccounts(ctx, models.ListQuery{TenantID: "tenant-1", Limit: limit})
			assert.True(t, apperr.IsInvariantViolation(err), "limit %d", limit)
		}
		for _, limit := range []int{1, 50, 200} {
			_, err := service.ListAccounts(ctx, models.ListQuery{TenantID: "tenant-1", Limit: limit})
			assert.NoError(t, err, "limit %d", limit)
		}
	})

	t.Run("transactions and entries share the same checks", func(t *testing.T) {
		_, err := service.ListTransactions(ctx, models.ListQuery{TenantID: "tenant-1", Limit: 0})
		assert.True(t, apperr.IsInvariantViolation(err))
		_, err = service.ListEntries(ctx, models.ListQuery{TenantID: "tenant-1", Limit: 201})
		assert.True(t, apperr.IsInvariantViolation(err))
	})
}

func TestReadServiceTenantIsolation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ledgerA := store.addLedger("tenant-a", "a")
	ledgerB := store.addLedger("tenant-b", "b")
	store.addAccount("tenant-a", ledgerA.ID, "Cash A", "USD", 0)
	store.addAccount("tenant-b", ledgerB.ID, "Cash B", "USD", 0)
	service := NewReadService(store, zerolog.Nop())

	page, err := service.ListAccounts(ctx, models.ListQuery{TenantID: "tenant-a", Limit: 50})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Cash A", page.Data[0].Name)

	_, err = service.TrialBalance(ctx, "tenant-a", ledgerB.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestReadServiceTrialBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies accounts and sums both sides", func(t *testing.T) {
		store := newFakeStore()
		ledger := store.addLedger("tenant-1", "main")
		cash := store.addAccount("tenant-1", ledger.ID, "Cash", "USD", -100)
		revenue := store.addAccount("tenant-1", ledger.ID, "Revenue", "USD", 70)
		fees := store.addAccount("tenant-1", ledger.ID, "Fees", "USD", 30)
		dormant := store.addAccount("tenant-1", ledger.ID, "Dormant", "USD", 0)
		service := NewReadService(store, zerolog.Nop())

		tb, err := service.TrialBalance(ctx, "tenant-1", ledger.ID)
		require.NoError(t, err)
		require.Len(t, tb.Rows, 4)

		bySide := map[string]string{}
		for _, row := range tb.Rows {
			bySide[row.AccountID] = row.Side
		}
		assert.Equal(t, models.SideDebit, bySide[cash.ID])
		assert.Equal(t, models.SideCredit, bySide[revenue.ID])
		assert.Equal(t, models.SideCredit, bySide[fees.ID])
		// Zero balances report on the debit side by convention.
		assert.Equal(t, models.SideDebit, bySide[dormant.ID])

		assert.Equal(t, int64(100), tb.TotalDebitsMinor)
		assert.Equal(t, int64(100), tb.TotalCreditsMinor)
		assert.Equal(t, tb.Rows[0].AccountID, tb.Rows[0].Code)
	})

	t.Run("missing ledger reports LEDGER_NOT_FOUND", func(t *testing.T) {
		store := newFakeStore()
		service := NewReadService(store, zerolog.Nop())

		_, err := service.TrialBalance(ctx, "tenant-1", "no-such-ledger")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("diverging totals report corruption", func(t *testing.T) {
		store := newFakeStore()
		ledger := store.addLedger("tenant-1", "main")
		store.addAccount("tenant-1", ledger.ID, "Cash", "USD", -100)
		store.addAccount("tenant-1", ledger.ID, "Revenue", "USD", 99)
		service := NewReadService(store, zerolog.Nop())

		_, err := service.TrialBalance(ctx, "tenant-1", ledger.ID)
		assert.Error(t, err)
		assert.Equal(t, apperr.CodeRepositoryError, apperr.CodeOf(err))
	})

	t.Run("empty ledger balances trivially", func(t *testing.T) {
		store := newFakeStore()
		ledger := store.addLedger("tenant-1", "main")
		service := NewReadService(store, zerolog.Nop())

		tb, err := service.TrialBalance(ctx, "tenant-1", ledger.ID)
		require.NoError(t, err)
		assert.Empty(t, tb.Rows)
		assert.Zero(t, tb.TotalDebitsMinor)
		assert.Zero(t, tb.TotalCreditsMinor)
	})
}
