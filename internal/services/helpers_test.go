package services

import (
	"context"
	"strings"
	"sync"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the SQLite repository, good enough
// to wire the real ledger, budget and notification components together.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]core.User
	categories []core.Category
	txs        []core.Transaction
	budgets    []core.Budget
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, users: make(map[int64]core.User)}
}

func (m *memStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memStore) addUser(u core.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memStore) GetUser(_ context.Context, id int64) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ResolveOrCreateCategory(_ context.Context, owner int64, name string, typ core.TxType) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyCategory
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == owner && c.Type == typ && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	c := core.Category{ID: m.id(), OwnerID: owner, Name: name, Type: typ, Active: true}
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *memStore) InsertTx(_ context.Context, tx core.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.ID = m.id()
	m.txs = append(m.txs, tx)
	return tx.ID, nil
}

func (m *memStore) UpdateTx(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.txs {
		if existing.ID == tx.ID && existing.OwnerID == tx.OwnerID {
			tx.Type = existing.Type
			m.txs[i] = tx
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memStore) DeleteTx(_ context.Context, owner, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tx := range m.txs {
		if tx.ID == id && tx.OwnerID == owner {
			m.txs = append(m.txs[:i], m.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *memStore) GetTx(_ context.Context, owner, id int64) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.ID == id && tx.OwnerID == owner {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (m *memStore) ListTx(_ context.Context, owner int64, typ core.TxType) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, tx := range m.txs {
		if tx.OwnerID == owner && tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) AllTx(_ context.Context, owner int64) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, tx := range m.txs {
		if tx.OwnerID == owner {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) UpsertBudget(_ context.Context, owner, categoryID int64, currency string, amount decimal.Decimal) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.budgets {
		if b.OwnerID == owner && b.CategoryID == categoryID && b.Currency == currency {
			m.budgets[i].Amount = amount
			return m.budgets[i], nil
		}
	}
	var name string
	for _, c := range m.categories {
		if c.ID == categoryID {
			name = c.Name
		}
	}
	b := core.Budget{ID: m.id(), OwnerID: owner, CategoryID: categoryID, Category: name, Currency: currency, Amount: amount}
	m.budgets = append(m.budgets, b)
	return b, nil
}

func (m *memStore) ListBudgets(_ context.Context, owner int64) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) FindBudget(_ context.Context, owner int64, categoryName, currency string) (*core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.budgets {
		if b.OwnerID == owner && strings.EqualFold(b.Category, categoryName) && b.Currency == currency {
			bb := b
			return &bb, nil
		}
	}
	return nil, nil
}

func (m *memStore) DeleteBudget(_ context.Context, owner, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.budgets {
		if b.ID == id && b.OwnerID == owner {
			m.budgets = append(m.budgets[:i], m.budgets[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}
