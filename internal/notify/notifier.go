// Package notify decides when a budget alert is owed and hands it to the
// message broker. Delivery happens out of process in the mail worker.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Repo looks up the budget and the recipient.
type Repo interface {
	FindBudget(ctx context.Context, owner int64, categoryName, currency string) (*core.Budget, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
}

// Spender aggregates current-month spend for one (category, currency).
type Spender interface {
	Spent(ctx context.Context, owner int64, categoryName, currency string) (decimal.Decimal, error)
}

// Publisher ships a rendered alert to the broker.
type Publisher interface {
	PublishBudgetAlert(ctx context.Context, alert *amqp.BudgetAlert) error
}

// Notifier fires a budget-exceeded alert after expense writes. Alerts are
// strictly best-effort: no failure here may ever block or fail the write
// that triggered the check.
type Notifier struct {
	repo      Repo
	spender   Spender
	publisher Publisher
}

func New(repo Repo, spender Spender, publisher Publisher) *Notifier {
	return &Notifier{repo: repo, spender: spender, publisher: publisher}
}

// MaybeNotify checks the (owner, category, currency) budget after an
// expense write and publishes an alert when current-month spend exceeds
// the limit. Reaching the limit exactly does not alert. Every alert-worthy
// write re-alerts; there is no cooldown between alerts.
func (n *Notifier) MaybeNotify(ctx context.Context, owner int64, categoryName, currency string) {
	b, err := n.repo.FindBudget(ctx, owner, categoryName, currency)
	if err != nil {
		slog.WarnContext(ctx, "budget lookup failed, skipping alert",
			"owner_id", owner, "category", categoryName, "error", err)
		return
	}
	if b == nil {
		return
	}

	spent, err := n.spender.Spent(ctx, owner, b.Category, currency)
	if err != nil {
		slog.WarnContext(ctx, "spend aggregation failed, skipping alert",
			"owner_id", owner, "category", b.Category, "error", err)
		return
	}
	if !spent.GreaterThan(b.Amount) {
		return
	}

	user, err := n.repo.GetUser(ctx, owner)
	if err != nil {
		slog.WarnContext(ctx, "recipient lookup failed, skipping alert",
			"owner_id", owner, "error", err)
		return
	}

	alert := amqp.NewBudgetAlert(
		user.Email,
		fmt.Sprintf("Budget Exceeded (%s)!", b.Category),
		fmt.Sprintf("You have exceeded your %s budget for %s.\nSpent: %s\nBudget: %s",
			b.Currency, b.Category, spent.String(), b.Amount.String()),
	)

	if n.publisher == nil {
		slog.WarnContext(ctx, "no alert publisher configured, dropping alert",
			"owner_id", owner, "category", b.Category)
		return
	}
	if err := n.publisher.PublishBudgetAlert(ctx, alert); err != nil {
		slog.ErrorContext(ctx, "publish alert failed",
			"owner_id", owner, "category", b.Category, "error", err)
		return
	}

	slog.InfoContext(ctx, "budget alert queued",
		"owner_id", owner, "category", b.Category, "currency", b.Currency,
		"spent", spent.String(), "budget", b.Amount.String())
}
