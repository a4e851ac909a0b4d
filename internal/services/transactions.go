// Package services orchestrates the domain operations behind the HTTP
// handlers: transaction writes through the dual-store ledger, and cached
// report aggregation.
package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

const dateLayout = "2006-01-02"

// Ledger is the dual-store transaction port.
type Ledger interface {
	Append(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, tx core.Transaction) error
	Remove(ctx context.Context, owner int64, key string) error
	Get(ctx context.Context, owner, id int64) (core.Transaction, error)
	Merged(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error)
}

// CategoryResolver maps free-form category names onto stored categories.
type CategoryResolver interface {
	ResolveOrCreateCategory(ctx context.Context, owner int64, name string, typ core.TxType) (core.Category, error)
}

// Alerter is told about expense writes so it can check budgets. It never
// returns an error; alerting must not fail a save.
type Alerter interface {
	MaybeNotify(ctx context.Context, owner int64, categoryName, currency string)
}

// Invalidator drops an owner's cached reports after a write.
type Invalidator interface {
	Invalidate(owner int64)
}

// TxInput is the user-supplied form for creating or editing a transaction.
type TxInput struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"transaction_type"`
	Currency    string `json:"currency"`
}

type TransactionService struct {
	ledger   Ledger
	resolver CategoryResolver
	alerter  Alerter
	reports  Invalidator
}

func NewTransactionService(ledger Ledger, resolver CategoryResolver, alerter Alerter, reports Invalidator) *TransactionService {
	return &TransactionService{ledger: ledger, resolver: resolver, alerter: alerter, reports: reports}
}

func (s *TransactionService) parse(input TxInput) (core.Transaction, error) {
	typ := core.TxType(input.Type)
	if !typ.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}

	date, err := time.Parse(dateLayout, input.Date)
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}

	amount, err := core.ParseAmount(input.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	currency := input.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	// Rejecting here keeps a bad currency from resolving, and possibly
	// creating, a category before the save is refused.
	if !core.SupportedCurrency(currency) {
		return core.Transaction{}, core.ErrInvalidCurrency
	}

	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Description: input.Description,
		Category:    input.Category,
		Type:        typ,
		Currency:    currency,
	}, nil
}

// Create validates the input, resolves its category and appends the
// transaction to the ledger. Expense saves trigger a budget check after
// the write has succeeded.
func (s *TransactionService) Create(ctx context.Context, owner int64, input TxInput) (core.Transaction, error) {
	tx, err := s.parse(input)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.OwnerID = owner

	cat, err := s.resolver.ResolveOrCreateCategory(ctx, owner, tx.Category, tx.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.CategoryID = cat.ID
	tx.Category = cat.Name

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.ledger.Append(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	s.reports.Invalidate(owner)

	if saved.Type == core.Expense {
		s.alerter.MaybeNotify(ctx, owner, saved.Category, saved.Currency)
	}
	return saved, nil
}

// Update edits a primary-backed transaction in place. The transaction
// type is immutable; the stored one wins over whatever the form says.
func (s *TransactionService) Update(ctx context.Context, owner, id int64, input TxInput) (core.Transaction, error) {
	existing, err := s.ledger.Get(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}
	input.Type = string(existing.Type)

	tx, err := s.parse(input)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id
	tx.OwnerID = owner

	cat, err := s.resolver.ResolveOrCreateCategory(ctx, owner, tx.Category, tx.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.CategoryID = cat.ID
	tx.Category = cat.Name

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.ledger.Update(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	s.reports.Invalidate(owner)

	if tx.Type == core.Expense {
		s.alerter.MaybeNotify(ctx, owner, tx.Category, tx.Currency)
	}
	return tx, nil
}

// Delete removes a transaction by key: a primary identifier or the
// generated id of a fallback-only record.
func (s *TransactionService) Delete(ctx context.Context, owner int64, key string) error {
	if err := s.ledger.Remove(ctx, owner, key); err != nil {
		return err
	}
	s.reports.Invalidate(owner)
	return nil
}

// List returns the owner's merged ledger for one transaction type.
func (s *TransactionService) List(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error) {
	return s.ledger.Merged(ctx, owner, typ)
}
