package repository

import (
	"context"
	"database/sql"
	"errors"

	"mobile-pos/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Catalog    CatalogRepository
	Serials    SerialRepository
	Sales      SaleRepository
	Tickets    ServiceTicketRepository
	Staff      StaffRepository
	Categories CategoryRepository
}

// Store is the catalog store handle injected into services. WithTx runs fn
// against repositories that share one transaction; any error rolls it back.
type Store interface {
	Repos() Repositories
	WithTx(ctx context.Context, fn func(Repositories) error) error
	Close() error
}

type postgresStore struct {
	db    *sql.DB
	repos Repositories
}

// NewPostgresStore creates a Store backed by PostgreSQL
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db, repos: bind(db)}
}

func bind(q DBTX) Repositories {
	return Repositories{
		Catalog:    NewCatalogRepository(q),
		Serials:    NewSerialRepository(q),
		Sales:      NewSaleRepository(q),
		Tickets:    NewServiceTicketRepository(q),
		Staff:      NewStaffRepository(q),
		Categories: NewCategoryRepository(q),
	}
}

func (s *postgresStore) Repos() Repositories {
	return s.repos
}

func (s *postgresStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(bind(tx))
	})
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isCheckViolation reports whether err is a PostgreSQL check constraint violation
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key violation
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
