package notify

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	budget    *core.Budget
	budgetErr error
	user      core.User
	userErr   error
}

func (r *fakeRepo) FindBudget(_ context.Context, _ int64, _, _ string) (*core.Budget, error) {
	return r.budget, r.budgetErr
}

func (r *fakeRepo) GetUser(_ context.Context, _ int64) (core.User, error) {
	return r.user, r.userErr
}

type fakeSpender struct {
	spent decimal.Decimal
	err   error
}

func (s *fakeSpender) Spent(_ context.Context, _ int64, _, _ string) (decimal.Decimal, error) {
	return s.spent, s.err
}

type fakePublisher struct {
	alerts []*amqp.BudgetAlert
	err    error
}

func (p *fakePublisher) PublishBudgetAlert(_ context.Context, alert *amqp.BudgetAlert) error {
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, alert)
	return nil
}

func usdBudget(amount string) *core.Budget {
	return &core.Budget{
		ID: 1, OwnerID: 1, CategoryID: 1,
		Category: "Travel", Currency: "USD",
		Amount: decimal.RequireFromString(amount),
	}
}

func TestNoBudgetNoAlert(t *testing.T) {
	pub := &fakePublisher{}
	n := New(&fakeRepo{}, &fakeSpender{spent: decimal.NewFromInt(9999)}, pub)

	n.MaybeNotify(context.Background(), 1, "Travel", "USD")
	if len(pub.alerts) != 0 {
		t.Errorf("expected no alert without a budget, got %d", len(pub.alerts))
	}
}

func TestSpendAtLimitNoAlert(t *testing.T) {
	pub := &fakePublisher{}
	repo := &fakeRepo{budget: usdBudget("200"), user: core.User{ID: 1, Email: "a@b.c"}}
	n := New(repo, &fakeSpender{spent: decimal.NewFromInt(200)}, pub)

	n.MaybeNotify(context.Background(), 1, "Travel", "USD")
	if len(pub.alerts) != 0 {
		t.Errorf("spend equal to limit must not alert, got %d alerts", len(pub.alerts))
	}
}

func TestSpendOverLimitAlerts(t *testing.T) {
	pub := &fakePublisher{}
	repo := &fakeRepo{budget: usdBudget("200"), user: core.User{ID: 1, Email: "a@b.c"}}
	n := New(repo, &fakeSpender{spent: decimal.RequireFromString("250.50")}, pub)

	n.MaybeNotify(context.Background(), 1, "Travel", "USD")
	if len(pub.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(pub.alerts))
	}

	alert := pub.alerts[0]
	if alert.Recipient != "a@b.c" {
		t.Errorf("recipient = %q, want a@b.c", alert.Recipient)
	}
	if alert.Subject != "Budget Exceeded (Travel)!" {
		t.Errorf("subject = %q", alert.Subject)
	}
	want := "You have exceeded your USD budget for Travel.\nSpent: 250.5\nBudget: 200"
	if alert.Body != want {
		t.Errorf("body = %q, want %q", alert.Body, want)
	}
}

func TestEveryOverLimitWriteRealerts(t *testing.T) {
	pub := &fakePublisher{}
	repo := &fakeRepo{budget: usdBudget("200"), user: core.User{ID: 1, Email: "a@b.c"}}
	n := New(repo, &fakeSpender{spent: decimal.NewFromInt(300)}, pub)
	ctx := context.Background()

	n.MaybeNotify(ctx, 1, "Travel", "USD")
	n.MaybeNotify(ctx, 1, "Travel", "USD")
	if len(pub.alerts) != 2 {
		t.Errorf("no cooldown between alerts: expected 2, got %d", len(pub.alerts))
	}
}

type fakeMailer struct {
	sent []*amqp.BudgetAlert
	err  error
}

func (m *fakeMailer) Send(alert *amqp.BudgetAlert) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, alert)
	return nil
}

func TestDelivererAcksFailedSends(t *testing.T) {
	alert := amqp.NewBudgetAlert("a@b.c", "Budget Exceeded (Travel)!", "body")

	d := NewDeliverer(&fakeMailer{err: errors.New("relay refused recipient")})
	if err := d.Handle(alert); err != nil {
		t.Errorf("failed send must still ack, got handler error %v", err)
	}

	ok := &fakeMailer{}
	if err := NewDeliverer(ok).Handle(alert); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(ok.sent) != 1 {
		t.Errorf("expected 1 delivery, got %d", len(ok.sent))
	}
}

func TestFailuresNeverPanic(t *testing.T) {
	ctx := context.Background()
	over := &fakeSpender{spent: decimal.NewFromInt(300)}

	// Budget lookup failure.
	New(&fakeRepo{budgetErr: errors.New("db down")}, over, &fakePublisher{}).
		MaybeNotify(ctx, 1, "Travel", "USD")

	// Spend aggregation failure.
	New(&fakeRepo{budget: usdBudget("200")}, &fakeSpender{err: errors.New("ledger down")}, &fakePublisher{}).
		MaybeNotify(ctx, 1, "Travel", "USD")

	// Recipient lookup failure.
	New(&fakeRepo{budget: usdBudget("200"), userErr: core.ErrNotFound}, over, &fakePublisher{}).
		MaybeNotify(ctx, 1, "Travel", "USD")

	// Publish failure.
	New(&fakeRepo{budget: usdBudget("200"), user: core.User{Email: "a@b.c"}}, over, &fakePublisher{err: errors.New("broker down")}).
		MaybeNotify(ctx, 1, "Travel", "USD")

	// No publisher configured.
	New(&fakeRepo{budget: usdBudget("200"), user: core.User{Email: "a@b.c"}}, over, nil).
		MaybeNotify(ctx, 1, "Travel", "USD")
}
