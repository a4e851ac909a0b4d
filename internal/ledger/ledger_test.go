package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/fallback"

	"github.com/shopspring/decimal"
)

type fakePrimary struct {
	nextID    int64
	insertErr error
	deleteErr error
	txs       map[int64]core.Transaction
	deleted   []int64
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{nextID: 1, txs: make(map[int64]core.Transaction)}
}

func (p *fakePrimary) InsertTx(_ context.Context, tx core.Transaction) (int64, error) {
	if p.insertErr != nil {
		return 0, p.insertErr
	}
	id := p.nextID
	p.nextID++
	tx.ID = id
	p.txs[id] = tx
	return id, nil
}

func (p *fakePrimary) UpdateTx(_ context.Context, tx core.Transaction) error {
	if _, ok := p.txs[tx.ID]; !ok {
		return core.ErrNotFound
	}
	p.txs[tx.ID] = tx
	return nil
}

func (p *fakePrimary) DeleteTx(_ context.Context, _, id int64) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, id)
	delete(p.txs, id)
	return nil
}

func (p *fakePrimary) ListTx(_ context.Context, owner int64, typ core.TxType) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range p.txs {
		if tx.OwnerID == owner && tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (p *fakePrimary) GetTx(_ context.Context, _, id int64) (core.Transaction, error) {
	tx, ok := p.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func newTestLedger(t *testing.T, primary *fakePrimary) (*Ledger, *fallback.Store) {
	t.Helper()
	files, err := fallback.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return New(primary, files), files
}

func expense(owner int64, amount, category string) core.Transaction {
	return core.Transaction{
		OwnerID:  owner,
		Date:     time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Type:     core.Expense,
		Currency: "USD",
	}
}

func TestAppendMirrorsToFallback(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)

	tx, err := l.Append(context.Background(), expense(1, "42.50", "Food"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if tx.ID != 1 {
		t.Errorf("primary id = %d, want 1", tx.ID)
	}

	recs := files.Transactions(1)
	if len(recs) != 1 {
		t.Fatalf("expected 1 fallback record, got %d", len(recs))
	}
	if recs[0].DBID != 1 {
		t.Errorf("fallback db_id = %d, want 1", recs[0].DBID)
	}
	if recs[0].ID != "" {
		t.Errorf("dual-written record should carry no generated id, got %q", recs[0].ID)
	}
}

func TestAppendPrimaryFailureFallsBack(t *testing.T) {
	primary := newFakePrimary()
	primary.insertErr = errors.New("disk full")
	l, files := newTestLedger(t, primary)

	tx, err := l.Append(context.Background(), expense(1, "9.99", "Food"))
	if err != nil {
		t.Fatalf("Append should succeed via fallback: %v", err)
	}
	if tx.ID != 0 {
		t.Errorf("no primary id expected, got %d", tx.ID)
	}
	if tx.FallbackID == "" {
		t.Error("fallback-only transaction should carry a generated id")
	}

	recs := files.Transactions(1)
	if len(recs) != 1 {
		t.Fatalf("expected 1 fallback record, got %d", len(recs))
	}
	if recs[0].DBID != 0 {
		t.Errorf("fallback-only record should have db_id 0, got %d", recs[0].DBID)
	}
}

func TestMergedDeduplicatesByDBID(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)
	ctx := context.Background()

	// Dual-written transaction: lands in both stores with matching db_id.
	saved, err := l.Append(ctx, expense(1, "30.00", "Travel"))
	if err != nil {
		t.Fatal(err)
	}

	// Fallback-only record from an earlier primary outage.
	if err := files.Append(1, fallback.Record{
		Date: "2024-06-05", Amount: "12.00", Category: "Food",
		Type: "expense", Currency: "USD",
	}); err != nil {
		t.Fatal(err)
	}

	merged, err := l.Merged(ctx, 1, core.Expense)
	if err != nil {
		t.Fatalf("Merged: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 logical transactions, got %d", len(merged))
	}

	var sawPrimary, sawFallbackOnly bool
	for _, tx := range merged {
		if tx.ID == saved.ID && tx.Category == "Travel" {
			sawPrimary = true
		}
		if tx.ID == 0 && tx.FallbackID != "" && tx.Category == "Food" {
			sawFallbackOnly = true
		}
	}
	if !sawPrimary || !sawFallbackOnly {
		t.Errorf("merge lost a record: primary=%v fallbackOnly=%v", sawPrimary, sawFallbackOnly)
	}
}

func TestMergedFiltersType(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)

	if err := files.Append(1, fallback.Record{
		Date: "2024-06-01", Amount: "500.00", Category: "Salary",
		Type: "income", Currency: "USD",
	}); err != nil {
		t.Fatal(err)
	}

	merged, err := l.Merged(context.Background(), 1, core.Expense)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 0 {
		t.Errorf("income record leaked into expense merge: %d records", len(merged))
	}
}

func TestMergedKeepsRecordPointingAtOtherTypeRow(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)
	ctx := context.Background()

	income := expense(1, "500.00", "Salary")
	income.Type = core.Income
	if _, err := primary.InsertTx(ctx, income); err != nil {
		t.Fatal(err)
	}

	// A hand-edited expense record whose db_id references the income row.
	// Dedup only keys against same-type primary rows, so the record stays.
	if err := files.Append(1, fallback.Record{
		DBID: 1, Date: "2024-06-05", Amount: "12.00", Category: "Food",
		Type: "expense", Currency: "USD",
	}); err != nil {
		t.Fatal(err)
	}

	merged, err := l.Merged(ctx, 1, core.Expense)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected the cross-referenced record kept, got %d records", len(merged))
	}
	if merged[0].Category != "Food" {
		t.Errorf("kept record category = %q, want Food", merged[0].Category)
	}
}

func TestMergedSkipsMalformedRecords(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)

	if err := files.Append(1, fallback.Record{
		Date: "not-a-date", Amount: "10.00", Category: "Food",
		Type: "expense", Currency: "USD",
	}); err != nil {
		t.Fatal(err)
	}
	if err := files.Append(1, fallback.Record{
		Date: "2024-06-02", Amount: "15.00", Category: "Food",
		Type: "expense", Currency: "USD",
	}); err != nil {
		t.Fatal(err)
	}

	merged, err := l.Merged(context.Background(), 1, core.Expense)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected malformed record to be skipped, got %d records", len(merged))
	}
	if !merged[0].Amount.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("kept the wrong record: %s", merged[0].Amount)
	}
}

func TestUpdateUpsertsFallback(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)
	ctx := context.Background()

	saved, err := l.Append(ctx, expense(1, "20.00", "Food"))
	if err != nil {
		t.Fatal(err)
	}

	saved.Amount = decimal.RequireFromString("35.00")
	if err := l.Update(ctx, saved); err != nil {
		t.Fatalf("Update: %v", err)
	}

	recs := files.Transactions(1)
	if len(recs) != 1 {
		t.Fatalf("update should replace, not append: %d records", len(recs))
	}
	if recs[0].Amount != "35" {
		t.Errorf("fallback amount = %s, want 35", recs[0].Amount)
	}
}

func TestRemoveByPrimaryID(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)
	ctx := context.Background()

	saved, err := l.Append(ctx, expense(1, "20.00", "Food"))
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Remove(ctx, 1, "1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := primary.txs[saved.ID]; ok {
		t.Error("primary row should be deleted")
	}
	if got := files.Transactions(1); len(got) != 0 {
		t.Errorf("fallback record should be removed, got %d", len(got))
	}
}

func TestRemoveFallbackOnlyKey(t *testing.T) {
	primary := newFakePrimary()
	primary.insertErr = errors.New("down")
	l, files := newTestLedger(t, primary)
	ctx := context.Background()

	saved, err := l.Append(ctx, expense(1, "20.00", "Food"))
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Remove(ctx, 1, saved.FallbackID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := files.Transactions(1); len(got) != 0 {
		t.Errorf("expected empty fallback, got %d records", len(got))
	}
	if len(primary.deleted) != 0 {
		t.Errorf("non-numeric key should not reach the primary store")
	}
}

func TestRemoveSwallowsPrimaryError(t *testing.T) {
	primary := newFakePrimary()
	l, files := newTestLedger(t, primary)
	ctx := context.Background()

	if _, err := l.Append(ctx, expense(1, "20.00", "Food")); err != nil {
		t.Fatal(err)
	}
	primary.deleteErr = errors.New("locked")

	if err := l.Remove(ctx, 1, "1"); err != nil {
		t.Fatalf("Remove should tolerate a primary delete failure: %v", err)
	}
	if got := files.Transactions(1); len(got) != 0 {
		t.Errorf("fallback record should still be removed, got %d", len(got))
	}
}
