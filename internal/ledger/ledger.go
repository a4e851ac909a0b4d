// Package ledger presents the two persistence stores as one logical
// transaction ledger. The primary relational store is authoritative; the
// per-user fallback file is a best-effort mirror that also catches writes
// the primary store rejects.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/fallback"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrimaryStore is the relational side of the ledger.
type PrimaryStore interface {
	InsertTx(ctx context.Context, tx core.Transaction) (int64, error)
	UpdateTx(ctx context.Context, tx core.Transaction) error
	DeleteTx(ctx context.Context, owner, id int64) error
	ListTx(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error)
	GetTx(ctx context.Context, owner, id int64) (core.Transaction, error)
}

// FallbackStore is the per-user file side of the ledger.
type FallbackStore interface {
	Append(owner int64, rec fallback.Record) error
	Update(owner int64, rec fallback.Record) error
	Remove(owner int64, key string) error
	Transactions(owner int64) []fallback.Record
}

// Ledger coordinates writes to both stores and merges reads.
type Ledger struct {
	primary PrimaryStore
	files   FallbackStore
}

func New(primary PrimaryStore, files FallbackStore) *Ledger {
	return &Ledger{primary: primary, files: files}
}

// Append writes a transaction to the primary store and mirrors it to the
// fallback file with db_id set. If the primary write fails, a
// fallback-only record with a generated identifier is written instead and
// the divergence is logged, not raised. Only when both stores reject the
// write does the caller see an error.
func (l *Ledger) Append(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	id, err := l.primary.InsertTx(ctx, tx)
	if err != nil {
		slog.WarnContext(ctx, "primary insert failed, writing fallback-only record",
			"owner_id", tx.OwnerID, "category", tx.Category, "error", err)
		rec := recordFrom(tx)
		rec.ID = uuid.NewString()
		if ferr := l.files.Append(tx.OwnerID, rec); ferr != nil {
			return core.Transaction{}, fmt.Errorf("append transaction: primary: %v, fallback: %w", err, ferr)
		}
		tx.FallbackID = rec.ID
		return tx, nil
	}

	tx.ID = id
	rec := recordFrom(tx)
	rec.DBID = id
	if ferr := l.files.Append(tx.OwnerID, rec); ferr != nil {
		slog.WarnContext(ctx, "fallback mirror failed after primary insert",
			"owner_id", tx.OwnerID, "transaction_id", id, "error", ferr)
	}
	return tx, nil
}

// Update overwrites the primary record identified by tx.ID, then upserts
// the matching fallback record. Fallback failures are logged only; the
// primary store already holds the truth.
func (l *Ledger) Update(ctx context.Context, tx core.Transaction) error {
	if err := l.primary.UpdateTx(ctx, tx); err != nil {
		return err
	}
	rec := recordFrom(tx)
	rec.DBID = tx.ID
	if err := l.files.Update(tx.OwnerID, rec); err != nil {
		slog.WarnContext(ctx, "fallback update failed after primary update",
			"owner_id", tx.OwnerID, "transaction_id", tx.ID, "error", err)
	}
	return nil
}

// Remove deletes a transaction from both stores. key is either a primary
// identifier (numeric) or a fallback-only generated id. Primary deletion
// errors are swallowed (the row may already be gone); the fallback record
// is removed regardless of the primary outcome.
func (l *Ledger) Remove(ctx context.Context, owner int64, key string) error {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		if derr := l.primary.DeleteTx(ctx, owner, id); derr != nil {
			slog.WarnContext(ctx, "primary delete failed, removing fallback anyway",
				"owner_id", owner, "transaction_id", id, "error", derr)
		}
	}
	if err := l.files.Remove(owner, key); err != nil {
		return fmt.Errorf("remove fallback record: %w", err)
	}
	return nil
}

// Get returns a primary-backed transaction by id.
func (l *Ledger) Get(ctx context.Context, owner, id int64) (core.Transaction, error) {
	return l.primary.GetTx(ctx, owner, id)
}

// Merged returns the owner's logical ledger for one transaction type:
// primary records first (newest date first, store-defined), then fallback
// records whose db_id matches no primary identifier, in file order. No
// global re-sort happens across the two groups.
func (l *Ledger) Merged(ctx context.Context, owner int64, typ core.TxType) ([]core.Transaction, error) {
	primary, err := l.primary.ListTx(ctx, owner, typ)
	if err != nil {
		return nil, fmt.Errorf("list primary transactions: %w", err)
	}
	return MergeRecords(ctx, primary, l.files.Transactions(owner), typ), nil
}

// MergeRecords reconciles the two record sources. The dedup key is db_id:
// a fallback record whose db_id appears among the primary identifiers is a
// dual-written copy and is dropped. The seen set only holds primary rows
// of the requested type; dual writes always share the primary row's type,
// so a hand-edited record pointing its db_id at a row of the other type is
// kept rather than silently dropped. Fallback records that fail to parse
// are skipped with a log line so one malformed entry cannot poison the
// whole ledger.
func MergeRecords(ctx context.Context, primary []core.Transaction, records []fallback.Record, typ core.TxType) []core.Transaction {
	seen := make(map[int64]struct{}, len(primary))
	for _, tx := range primary {
		seen[tx.ID] = struct{}{}
	}

	merged := primary
	for _, rec := range records {
		if core.TxType(rec.Type) != typ {
			continue
		}
		if rec.DBID != 0 {
			if _, dup := seen[rec.DBID]; dup {
				continue
			}
		}
		tx, err := transactionFrom(rec)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed fallback record",
				"key", rec.Key(), "error", err)
			continue
		}
		merged = append(merged, tx)
	}
	return merged
}

func recordFrom(tx core.Transaction) fallback.Record {
	return fallback.Record{
		ID:          tx.FallbackID,
		Date:        tx.Date.Format("2006-01-02"),
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Category:    tx.Category,
		Type:        string(tx.Type),
		Currency:    tx.Currency,
	}
}

func transactionFrom(rec fallback.Record) (core.Transaction, error) {
	d, err := time.Parse("2006-01-02", rec.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", rec.Date, err)
	}
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", rec.Amount, err)
	}
	currency := rec.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	return core.Transaction{
		ID:          rec.DBID,
		FallbackID:  rec.ID,
		Date:        d,
		Amount:      amount,
		Description: rec.Description,
		Category:    rec.Category,
		Type:        core.TxType(rec.Type),
		Currency:    currency,
	}, nil
}
