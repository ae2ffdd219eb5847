package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mobile-pos/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSerialNotFound      = fmt.Errorf("serial %w", domain.ErrNotFound)
	ErrSerialAlreadyExists = fmt.Errorf("serial already registered for this item: %w", domain.ErrDuplicate)
	ErrSerialSold          = fmt.Errorf("serial: %w", domain.ErrAlreadySold)
)

// SerialRepository defines the interface for IMEI registry data access
type SerialRepository interface {
	Create(ctx context.Context, unit *domain.SerialUnit) error
	ListByItem(ctx context.Context, itemID uuid.UUID, availableOnly bool) ([]*domain.SerialUnit, error)
	FindBySerial(ctx context.Context, itemID uuid.UUID, serial string) (*domain.SerialUnit, error)
	MarkSold(ctx context.Context, itemID uuid.UUID, serial string, saleLineID uuid.UUID, at time.Time) error
	DeleteUnsold(ctx context.Context, id uuid.UUID) error
}

type serialRepository struct {
	db DBTX
}

// NewSerialRepository creates a new instance of SerialRepository
func NewSerialRepository(db DBTX) SerialRepository {
	return &serialRepository{db: db}
}

const serialColumns = `id, inventory_item_id, imei_number, is_sold, sale_item_id, sold_at, created_at`

func scanSerial(row rowScanner) (*domain.SerialUnit, error) {
	unit := &domain.SerialUnit{}
	var (
		saleLineID uuid.NullUUID
		soldAt     sql.NullTime
	)
	err := row.Scan(
		&unit.ID,
		&unit.CatalogItemID,
		&unit.Serial,
		&unit.Sold,
		&saleLineID,
		&soldAt,
		&unit.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if saleLineID.Valid {
		id := saleLineID.UUID
		unit.SaleLineID = &id
	}
	if soldAt.Valid {
		t := soldAt.Time
		unit.SoldAt = &t
	}
	return unit, nil
}

// Create registers a new unsold serial
func (r *serialRepository) Create(ctx context.Context, unit *domain.SerialUnit) error {
	query := `
		INSERT INTO phone_imei (id, inventory_item_id, imei_number, is_sold, created_at)
		VALUES ($1, $2, $3, false, $4)
	`

	_, err := r.db.ExecContext(ctx, query, unit.ID, unit.CatalogItemID, unit.Serial, unit.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSerialAlreadyExists
		}
		return fmt.Errorf("failed to register serial: %w", err)
	}

	return nil
}

// ListByItem returns the serials of an item in registration order
func (r *serialRepository) ListByItem(ctx context.Context, itemID uuid.UUID, availableOnly bool) ([]*domain.SerialUnit, error) {
	query := `SELECT ` + serialColumns + ` FROM phone_imei WHERE inventory_item_id = $1`
	if availableOnly {
		query += ` AND is_sold = false`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list serials: %w", err)
	}
	defer rows.Close()

	units := []*domain.SerialUnit{}
	for rows.Next() {
		unit, err := scanSerial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan serial: %w", err)
		}
		units = append(units, unit)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating serials: %w", err)
	}

	return units, nil
}

// FindBySerial looks up one serial of an item
func (r *serialRepository) FindBySerial(ctx context.Context, itemID uuid.UUID, serial string) (*domain.SerialUnit, error) {
	query := `SELECT ` + serialColumns + ` FROM phone_imei WHERE inventory_item_id = $1 AND imei_number = $2`

	unit, err := scanSerial(r.db.QueryRowContext(ctx, query, itemID, serial))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSerialNotFound
		}
		return nil, fmt.Errorf("failed to find serial: %w", err)
	}

	return unit, nil
}

// MarkSold flips an unsold serial to sold. The is_sold predicate makes the
// update a compare-and-set, so a concurrent sale loses with ErrSerialSold.
func (r *serialRepository) MarkSold(ctx context.Context, itemID uuid.UUID, serial string, saleLineID uuid.UUID, at time.Time) error {
	query := `
		UPDATE phone_imei
		SET is_sold = true, sale_item_id = $3, sold_at = $4
		WHERE inventory_item_id = $1 AND imei_number = $2 AND is_sold = false
	`

	result, err := r.db.ExecContext(ctx, query, itemID, serial, saleLineID, at)
	if err != nil {
		return fmt.Errorf("failed to mark serial sold: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	if _, err := r.FindBySerial(ctx, itemID, serial); err != nil {
		return err
	}
	return ErrSerialSold
}

// DeleteUnsold removes a serial that has not been sold
func (r *serialRepository) DeleteUnsold(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM phone_imei WHERE id = $1 AND is_sold = false`, id)
	if err != nil {
		return fmt.Errorf("failed to delete serial: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var sold bool
	err = r.db.QueryRowContext(ctx, `SELECT is_sold FROM phone_imei WHERE id = $1`, id).Scan(&sold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSerialNotFound
		}
		return fmt.Errorf("failed to check serial: %w", err)
	}
	return ErrSerialSold
}
