package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mobile-pos/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrStaffNotFound      = fmt.Errorf("staff account %w", domain.ErrNotFound)
	ErrStaffAlreadyExists = fmt.Errorf("staff account with this username already exists: %w", domain.ErrDuplicate)
)

// StaffRepository defines the interface for staff account data access
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	FindByUsername(ctx context.Context, username string) (*domain.Staff, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error)
}

type staffRepository struct {
	db DBTX
}

// NewStaffRepository creates a new instance of StaffRepository
func NewStaffRepository(db DBTX) StaffRepository {
	return &staffRepository{db: db}
}

// Create inserts a new staff account using parameterized queries
func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	query := `
		INSERT INTO staff (id, username, password_hash, display_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		staff.ID,
		staff.Username,
		staff.PasswordHash,
		staff.DisplayName,
		staff.Role,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStaffAlreadyExists
		}
		return fmt.Errorf("failed to create staff account: %w", err)
	}

	return nil
}

// FindByUsername retrieves a staff account by username
func (r *staffRepository) FindByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	query := `
		SELECT id, username, password_hash, display_name, role, created_at, updated_at
		FROM staff
		WHERE username = $1
	`

	return r.findOne(ctx, query, username)
}

// FindByID retrieves a staff account by ID
func (r *staffRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	query := `
		SELECT id, username, password_hash, display_name, role, created_at, updated_at
		FROM staff
		WHERE id = $1
	`

	return r.findOne(ctx, query, id)
}

func (r *staffRepository) findOne(ctx context.Context, query string, arg any) (*domain.Staff, error) {
	staff := &domain.Staff{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&staff.ID,
		&staff.Username,
		&staff.PasswordHash,
		&staff.DisplayName,
		&staff.Role,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to find staff account: %w", err)
	}

	return staff, nil
}
