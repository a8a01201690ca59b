package handlers

import (
	"strconv"
	"time"

	"github.com/ledgerlink/backend/internal/models"
)

// Monetary values are rendered as decimal strings so 64-bit amounts
// survive JSON clients that parse numbers as float64.

type ledgerResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLedgerResponse(l models.Ledger) ledgerResponse {
	return ledgerResponse{
		ID:        l.ID,
		TenantID:  l.TenantID,
		Name:      l.Name,
		CreatedAt: l.CreatedAt.UTC(),
		UpdatedAt: l.UpdatedAt.UTC(),
	}
}

type accountResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	LedgerID     string    `json:"ledger_id"`
	Name         string    `json:"name"`
	Currency     string    `json:"currency"`
	BalanceMinor string    `json:"balance_minor"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		TenantID:     a.TenantID,
		LedgerID:     a.LedgerID,
		Name:         a.Name,
		Currency:     a.Currency,
		BalanceMinor: strconv.FormatInt(a.BalanceMinor, 10),
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

type transactionResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	LedgerID  string    `json:"ledger_id"`
	Reference string    `json:"reference"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		TenantID:  t.TenantID,
		LedgerID:  t.LedgerID,
		Reference: t.Reference,
		Currency:  t.Currency,
		CreatedAt: t.CreatedAt.UTC(),
	}
}

type entryResponse struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Direction     string    `json:"direction"`
	AmountMinor   string    `json:"amount_minor"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
}

func toEntryResponse(e models.Entry) entryResponse {
	return entryResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		Direction:     e.Direction,
		AmountMinor:   strconv.FormatInt(e.AmountMinor, 10),
		Currency:      e.Currency,
		CreatedAt:     e.CreatedAt.UTC(),
	}
}

type pageResponse[T any] struct {
	Data       []T     `json:"data"`
	NextCursor *string `json:"next_cursor"`
}

func toPageResponse[S, T any](page *models.Page[S], convert func(S) T) pageResponse[T] {
	out := pageResponse[T]{Data: make([]T, 0, len(page.Data))}
	for _, item := range page.Data {
		out.Data = append(out.Data, convert(item))
	}
	if page.NextCursor != "" {
		cursor := page.NextCursor
		out.NextCursor = &cursor
	}
	return out
}

type trialBalanceRowResponse struct {
	AccountID     string `json:"account_id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	Side          string `json:"side"`
	BalanceMinor  string `json:"balance_minor"`
	AbsoluteMinor string `json:"absolute_minor"`
}

type trialBalanceResponse struct {
	LedgerID          string                    `json:"ledger_id"`
	Rows              []trialBalanceRowResponse `json:"rows"`
	TotalDebitsMinor  string                    `json:"total_debits_minor"`
	TotalCreditsMinor string                    `json:"total_credits_minor"`
}

func toTrialBalanceResponse(tb *models.TrialBalance) trialBalanceResponse {
	out := trialBalanceResponse{
		LedgerID:          tb.LedgerID,
		Rows:              make([]trialBalanceRowResponse, 0, len(tb.Rows)),
		TotalDebitsMinor:  strconv.FormatInt(tb.TotalDebitsMinor, 10),
		TotalCreditsMinor: strconv.FormatInt(tb.TotalCreditsMinor, 10),
	}
	for _, row := range tb.Rows {
		out.Rows = append(out.Rows, trialBalanceRowResponse{
			AccountID:     row.AccountID,
			Code:          row.Code,
			Name:          row.Name,
			Currency:      row.Currency,
			Side:          row.Side,
			BalanceMinor:  strconv.FormatInt(row.BalanceMinor, 10),
			AbsoluteMinor: strconv.FormatInt(row.AbsoluteMinor, 10),
		})
	}
	return out
}

type apiKeyResponse struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func toApiKeyResponse(k models.ApiKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		TenantID:  k.TenantID,
		Name:      k.Name,
		Role:      k.Role,
		CreatedAt: k.CreatedAt.UTC(),
	}
	if k.RevokedAt != nil {
		revoked := k.RevokedAt.UTC()
		resp.RevokedAt = &revoked
	}
	return resp
}
