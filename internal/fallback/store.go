// Package fallback implements the secondary per-user JSON file store. Each
// user owns one file holding their transaction records; the file is read
// whole, modified, and written back under a per-owner mutex.
package fallback

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Record is one transaction as stored in the fallback file. Dual-written
// records carry DBID mirroring the primary identifier; records that never
// reached the primary store carry their own generated ID instead.
type Record struct {
	ID          string `json:"id,omitempty"`
	DBID        int64  `json:"db_id,omitempty"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Type        string `json:"transaction_type"`
	Currency    string `json:"currency"`
}

// Key returns the identifier used for matching on update and remove:
// the primary id when dual-written, the generated id otherwise.
func (r Record) Key() string {
	if r.DBID != 0 {
		return strconv.FormatInt(r.DBID, 10)
	}
	return r.ID
}

// Document is the full content of one user's fallback file.
type Document struct {
	Transactions []Record          `json:"transactions"`
	Budgets      []json.RawMessage `json:"budgets"`
}

func emptyDocument() Document {
	return Document{Transactions: []Record{}, Budgets: []json.RawMessage{}}
}

// Store manages the per-user fallback files under one directory.
// Read-modify-write cycles are serialized per owner; the original design
// had no locking here and lost updates under concurrent edits.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fallback directory: %w", err)
	}
	return &Store{dir: dir, locks: make(map[int64]*sync.Mutex)}, nil
}

func (s *Store) path(owner int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("user_%d.json", owner))
}

func (s *Store) ownerLock(owner int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[owner]
	if !ok {
		l = &sync.Mutex{}
		s.locks[owner] = l
	}
	return l
}

// Load reads the owner's document. A missing or unparseable file yields an
// empty document; corruption is tolerated, not surfaced.
func (s *Store) Load(owner int64) Document {
	data, err := os.ReadFile(s.path(owner))
	if err != nil {
		return emptyDocument()
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("fallback file unparseable, starting empty",
			"owner_id", owner, "error", err)
		return emptyDocument()
	}
	if doc.Transactions == nil {
		doc.Transactions = []Record{}
	}
	return doc
}

func (s *Store) save(owner int64, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal fallback document: %w", err)
	}
	tmp := s.path(owner) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write fallback file: %w", err)
	}
	if err := os.Rename(tmp, s.path(owner)); err != nil {
		return fmt.Errorf("replace fallback file: %w", err)
	}
	return nil
}

// Append adds a record to the owner's file. Records without a primary id
// get a generated identifier so later update/remove calls can address them.
func (s *Store) Append(owner int64, rec Record) error {
	l := s.ownerLock(owner)
	l.Lock()
	defer l.Unlock()

	if rec.ID == "" && rec.DBID == 0 {
		rec.ID = uuid.NewString()
	}
	doc := s.Load(owner)
	doc.Transactions = append(doc.Transactions, rec)
	return s.save(owner, doc)
}

// Update replaces the record matching rec by primary id or generated id.
// An unmatched update appends instead of failing: the fallback treats
// updates as upserts so a record missed on append still lands on edit.
func (s *Store) Update(owner int64, rec Record) error {
	l := s.ownerLock(owner)
	l.Lock()
	defer l.Unlock()

	doc := s.Load(owner)
	for i, existing := range doc.Transactions {
		if matches(existing, rec) {
			if rec.ID == "" {
				rec.ID = existing.ID
			}
			doc.Transactions[i] = rec
			return s.save(owner, doc)
		}
	}
	doc.Transactions = append(doc.Transactions, rec)
	return s.save(owner, doc)
}

func matches(existing, rec Record) bool {
	if rec.DBID != 0 && existing.DBID == rec.DBID {
		return true
	}
	return rec.ID != "" && existing.ID == rec.ID
}

// Remove drops every record whose generated id or primary id equals key.
func (s *Store) Remove(owner int64, key string) error {
	l := s.ownerLock(owner)
	l.Lock()
	defer l.Unlock()

	doc := s.Load(owner)
	kept := doc.Transactions[:0]
	for _, rec := range doc.Transactions {
		if rec.ID == key || (rec.DBID != 0 && strconv.FormatInt(rec.DBID, 10) == key) {
			continue
		}
		kept = append(kept, rec)
	}
	doc.Transactions = kept
	return s.save(owner, doc)
}

// Transactions returns the owner's records in file order.
func (s *Store) Transactions(owner int64) []Record {
	l := s.ownerLock(owner)
	l.Lock()
	defer l.Unlock()
	return s.Load(owner).Transactions
}
