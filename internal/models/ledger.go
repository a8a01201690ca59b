package models

import (
	"time"
)

// Direction of an entry against an account.
const (
	DirectionDebit  = "DEBIT"
	DirectionCredit = "CREDIT"
)

func ValidDirection(d string) bool {
	return d == DirectionDebit || d == DirectionCredit
}

type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Ledger struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Account carries its running balance in signed minor units. DEBIT
// entries decrease the balance, CREDIT entries increase it.
type Account struct {
	ID           string    `json:"id" db:"id"`
	TenantID     string    `json:"tenant_id" db:"tenant_id"`
	LedgerID     string    `json:"ledger_id" db:"ledger_id"`
	Name         string    `json:"name" db:"name"`
	Currency     string    `json:"currency" db:"currency"`
	BalanceMinor int64     `json:"balance_minor" db:"balance_minor"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction groups the entries posted under one caller-supplied
// reference. (tenant_id, reference) is the idempotency key.
type Transaction struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	LedgerID  string    `json:"ledger_id" db:"ledger_id"`
	Reference string    `json:"reference" db:"reference"`
	Currency  string    `json:"currency" db:"currency"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Entry is one directional contribution against an account. tenant_id
// is denormalized so listings stay single-table under RLS.
type Entry struct {
	ID            string    `json:"id" db:"id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	AccountID     string    `json:"account_id" db:"account_id"`
	Direction     string    `json:"direction" db:"direction"`
	AmountMinor   int64     `json:"amount_minor" db:"amount_minor"`
	Currency      string    `json:"currency" db:"currency"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// NewEntry is one entry of a posting request, before persistence.
type NewEntry struct {
	AccountID   string
	Direction   string
	AmountMinor int64
	Currency    string
}

// PostTransactionInput is the posting service input.
type PostTransactionInput struct {
	TenantID  string
	LedgerID  string
	Reference string
	Currency  string
	Entries   []NewEntry
}

// PostTransactionResult reports the persisted transaction id. Created
// is false when an identical (tenant, reference) was already committed.
type PostTransactionResult struct {
	TransactionID string
	Created       bool
}

// ListQuery is the shared input of the three listings.
type ListQuery struct {
	TenantID string
	Limit    int
	Cursor   string
}

// Page is one page of a listing plus the opaque cursor of the next one.
// NextCursor is empty on the last page.
type Page[T any] struct {
	Data       []T
	NextCursor string
}

// Trial balance sides.
const (
	SideDebit  = "DEBIT"
	SideCredit = "CREDIT"
)

// TrialBalanceRow classifies one account. A balance <= 0 reports on the
// debit side; amounts are absolute values. Code is the account id until
// accounts grow a chart-of-accounts code column.
type TrialBalanceRow struct {
	AccountID     string `json:"account_id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	Side          string `json:"side"`
	BalanceMinor  int64  `json:"balance_minor"`
	AbsoluteMinor int64  `json:"absolute_minor"`
}

type TrialBalance struct {
	LedgerID          string            `json:"ledger_id"`
	Rows              []TrialBalanceRow `json:"rows"`
	TotalDebitsMinor  int64             `json:"total_debits_minor"`
	TotalCreditsMinor int64             `json:"total_credits_minor"`
}
