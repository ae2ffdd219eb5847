// Package memory is an in-process catalog store used for demos and tests.
// It mirrors the PostgreSQL repositories, including their conditional
// updates and sentinel errors.
package memory

import (
	"context"
	"sync"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	items      map[uuid.UUID]domain.CatalogItem
	serials    map[uuid.UUID]domain.SerialUnit
	sales      map[uuid.UUID]domain.Sale
	tickets    map[uuid.UUID]domain.ServiceTicket
	staff      map[uuid.UUID]domain.Staff
	categories map[domain.Category]domain.CategoryInfo
}

func newState() *state {
	return &state{
		items:      map[uuid.UUID]domain.CatalogItem{},
		serials:    map[uuid.UUID]domain.SerialUnit{},
		sales:      map[uuid.UUID]domain.Sale{},
		tickets:    map[uuid.UUID]domain.ServiceTicket{},
		staff:      map[uuid.UUID]domain.Staff{},
		categories: map[domain.Category]domain.CategoryInfo{},
	}
}

// clone copies every table. Records are values whose nested pointers are
// replaced, never mutated, so copying the maps is enough.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.serials {
		c.serials[k] = v
	}
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.staff {
		c.staff[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	return c
}

// Store implements repository.Store over maps guarded by one RWMutex.
// Transactions hold the write lock for their whole duration and work on a
// copy that replaces the live state only on commit.
type Store struct {
	mu sync.RWMutex
	st *state
}

// New creates an empty store with the default categories
func New() *Store {
	st := newState()
	seedCategories(st)
	return &Store{st: st}
}

func (s *Store) Repos() repository.Repositories {
	return bind(&view{store: s})
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(bind(&view{store: s, tx: work})); err != nil {
		return err
	}

	s.st = work
	return nil
}

func (s *Store) Close() error {
	return nil
}

func bind(v *view) repository.Repositories {
	return repository.Repositories{
		Catalog:    &catalogRepository{v},
		Serials:    &serialRepository{v},
		Sales:      &saleRepository{v},
		Tickets:    &ticketRepository{v},
		Staff:      &staffRepository{v},
		Categories: &categoryRepository{v},
	}
}

// view routes repository calls either to the live state under the store
// lock or to a transaction's private copy.
type view struct {
	store *Store
	tx    *state
}

func (v *view) read(fn func(*state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.st)
}

func (v *view) write(fn func(*state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

var _ repository.Store = (*Store)(nil)
