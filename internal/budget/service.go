// Package budget implements monthly budget management and the derived
// spend-versus-limit status views.
package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Repo is the subset of the primary store the budget service needs.
type Repo interface {
	ResolveOrCreateCategory(ctx context.Context, owner int64, name string, typ core.TxType) (core.Category, error)
	UpsertBudget(ctx context.Context, owner, categoryID int64, currency string, amount decimal.Decimal) (core.Budget, error)
	ListBudgets(ctx context.Context, owner int64) ([]core.Budget, error)
	FindBudget(ctx context.Context, owner int64, categoryName, currency string) (*core.Budget, error)
	DeleteBudget(ctx context.Context, owner, id int64) error
}

// MergedLedger yields the reconciled transaction list spend is computed
// from. Aggregation never talks to either store directly.
type MergedLedger interface {
	Merged(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error)
}

type Service struct {
	repo   Repo
	ledger MergedLedger
	now    func() time.Time
}

func NewService(repo Repo, ledger MergedLedger) *Service {
	return &Service{repo: repo, ledger: ledger, now: time.Now}
}

// Upsert sets the monthly limit for (owner, category, currency). The
// category is resolved by name among the owner's expense categories,
// created if absent. Repeated calls overwrite the amount; there is never
// more than one budget per tuple.
func (s *Service) Upsert(ctx context.Context, owner int64, categoryName, currency string, amount decimal.Decimal) (core.Budget, error) {
	if !amount.IsPositive() {
		return core.Budget{}, core.ErrInvalidAmount
	}
	if currency == "" {
		currency = core.DefaultCurrency
	}
	if !core.SupportedCurrency(currency) {
		return core.Budget{}, core.ErrInvalidCurrency
	}

	cat, err := s.repo.ResolveOrCreateCategory(ctx, owner, categoryName, core.Expense)
	if err != nil {
		return core.Budget{}, err
	}
	return s.repo.UpsertBudget(ctx, owner, cat.ID, currency, amount)
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	return s.repo.DeleteBudget(ctx, owner, id)
}

func (s *Service) List(ctx context.Context, owner int64) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, owner)
}

// Spent sums the owner's expenses for one (category, currency) pair inside
// the current calendar month. Category names compare case-insensitively;
// currencies compare exactly, so an INR expense never counts against a USD
// budget. No matches yields plain zero.
func (s *Service) Spent(ctx context.Context, owner int64, categoryName, currency string) (decimal.Decimal, error) {
	txs, err := s.ledger.Merged(ctx, owner, core.Expense)
	if err != nil {
		return decimal.Zero, fmt.Errorf("aggregate spend: %w", err)
	}

	anchor := s.now()
	total := decimal.Zero
	for _, tx := range txs {
		if !strings.EqualFold(tx.Category, categoryName) {
			continue
		}
		if tx.Currency != currency {
			continue
		}
		if !core.InMonthWindow(tx.Date, anchor) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total, nil
}

// Statuses returns the derived status of every budget the owner has, in
// the order ListBudgets yields them. One merged ledger read serves all
// budgets.
func (s *Service) Statuses(ctx context.Context, owner int64) ([]core.BudgetStatus, error) {
	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.Merged(ctx, owner, core.Expense)
	if err != nil {
		return nil, fmt.Errorf("aggregate spend: %w", err)
	}

	anchor := s.now()
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := decimal.Zero
		for _, tx := range txs {
			if !strings.EqualFold(tx.Category, b.Category) {
				continue
			}
			if tx.Currency != b.Currency {
				continue
			}
			if !core.InMonthWindow(tx.Date, anchor) {
				continue
			}
			spent = spent.Add(tx.Amount)
		}
		statuses = append(statuses, core.ComputeStatus(b, spent))
	}
	return statuses, nil
}
