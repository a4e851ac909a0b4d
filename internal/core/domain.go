// Package core holds the domain types shared by every other package:
// transactions, categories, budgets and the derived budget status.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxType distinguishes money coming in from money going out.
type TxType string

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Currencies accepted on budget and transaction forms. Aggregation treats
// currency as an opaque key; this list only gates user input.
var Currencies = []string{"USD", "INR", "EUR", "GBP"}

// DefaultCurrency is assumed when a form omits the currency field.
const DefaultCurrency = "USD"

func SupportedCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCurrency = errors.New("unsupported currency")
	ErrEmptyCategory   = errors.New("category name is required")
	ErrNotFound        = errors.New("not found")
)

type User struct {
	ID       int64
	Username string
	Email    string
}

// Category is a named classification scoped to an owner and a type.
// Name uniqueness within (owner, type) is case-insensitive and enforced by
// resolve-or-create, not by a stored constraint.
type Category struct {
	ID      int64
	OwnerID int64
	Name    string
	Type    TxType
	Active  bool
}

// Transaction is one logical ledger entry. Entries backed by the primary
// store carry ID; entries that only ever reached the fallback file carry
// FallbackID instead.
type Transaction struct {
	ID          int64
	FallbackID  string
	OwnerID     int64
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	CategoryID  int64
	Category    string
	Type        TxType
	Currency    string
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !SupportedCurrency(t.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// Budget is a monthly spending limit for one (owner, category, currency)
// tuple. Spend against it is always derived at read time, never stored.
type Budget struct {
	ID         int64
	OwnerID    int64
	CategoryID int64
	Category   string
	Currency   string
	Amount     decimal.Decimal
}
