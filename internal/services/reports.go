package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// PrimaryReader serves report aggregation. Reports read the primary store
// only; fallback-only records do not appear in them.
type PrimaryReader interface {
	AllTx(ctx context.Context, owner int64) ([]core.Transaction, error)
}

// MonthlySummary is income, expense and net for one (month, currency).
type MonthlySummary struct {
	Month    string          `json:"month"` // YYYY-MM
	Currency string          `json:"currency"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
}

// CategoryTotal is the current-month expense total for one (category,
// currency).
type CategoryTotal struct {
	Category string          `json:"category"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
}

type ReportService struct {
	store      PrimaryReader
	monthly    *cache.LRU[[]MonthlySummary]
	categories *cache.LRU[[]CategoryTotal]
	now        func() time.Time
}

func NewReportService(store PrimaryReader, maxUsers int, ttl time.Duration) *ReportService {
	return &ReportService{
		store:      store,
		monthly:    cache.NewLRU[[]MonthlySummary](maxUsers, ttl),
		categories: cache.NewLRU[[]CategoryTotal](maxUsers, ttl),
		now:        time.Now,
	}
}

// Caches returns the report caches for janitor registration.
func (s *ReportService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.monthly, s.categories}
}

// Invalidate drops the owner's cached reports. Called after every
// transaction write.
func (s *ReportService) Invalidate(owner int64) {
	key := ownerKey(owner)
	s.monthly.Delete(key)
	s.categories.Delete(key)
}

func ownerKey(owner int64) string {
	return fmt.Sprintf("%d", owner)
}

// MonthlyTotals aggregates income, expense and net per (month, currency)
// over the owner's whole history, newest month first.
func (s *ReportService) MonthlyTotals(ctx context.Context, owner int64) ([]MonthlySummary, error) {
	key := ownerKey(owner)
	if cached, ok := s.monthly.Get(key); ok {
		return cached, nil
	}

	txs, err := s.store.AllTx(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}

	type bucket struct{ income, expense decimal.Decimal }
	type groupKey struct{ month, currency string }
	groups := make(map[groupKey]*bucket)
	for _, tx := range txs {
		k := groupKey{month: tx.Date.Format("2006-01"), currency: tx.Currency}
		b, ok := groups[k]
		if !ok {
			b = &bucket{income: decimal.Zero, expense: decimal.Zero}
			groups[k] = b
		}
		if tx.Type == core.Income {
			b.income = b.income.Add(tx.Amount)
		} else {
			b.expense = b.expense.Add(tx.Amount)
		}
	}

	summaries := make([]MonthlySummary, 0, len(groups))
	for k, b := range groups {
		summaries = append(summaries, MonthlySummary{
			Month:    k.month,
			Currency: k.currency,
			Income:   b.income,
			Expense:  b.expense,
			Net:      b.income.Sub(b.expense),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Month != summaries[j].Month {
			return summaries[i].Month > summaries[j].Month
		}
		return summaries[i].Currency < summaries[j].Currency
	})

	s.monthly.Set(key, summaries)
	return summaries, nil
}

// CategoryBreakdown totals the owner's current-month expenses per
// (category, currency), largest first.
func (s *ReportService) CategoryBreakdown(ctx context.Context, owner int64) ([]CategoryTotal, error) {
	key := ownerKey(owner)
	if cached, ok := s.categories.Get(key); ok {
		return cached, nil
	}

	txs, err := s.store.AllTx(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}

	anchor := s.now()
	type groupKey struct{ category, currency string }
	groups := make(map[groupKey]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if !core.InMonthWindow(tx.Date, anchor) {
			continue
		}
		k := groupKey{category: tx.Category, currency: tx.Currency}
		groups[k] = groups[k].Add(tx.Amount)
	}

	totals := make([]CategoryTotal, 0, len(groups))
	for k, total := range groups {
		totals = append(totals, CategoryTotal{Category: k.category, Currency: k.currency, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Total.Equal(totals[j].Total) {
			return totals[i].Total.GreaterThan(totals[j].Total)
		}
		return totals[i].Category < totals[j].Category
	})

	s.categories.Set(key, totals)
	return totals, nil
}
