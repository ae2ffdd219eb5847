package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mobile-pos/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCatalogItemNotFound = fmt.Errorf("catalog item %w", domain.ErrNotFound)
	ErrInsufficientStock   = fmt.Errorf("insufficient stock: %w", domain.ErrConflict)
	ErrCatalogItemInUse    = fmt.Errorf("catalog item is referenced by sale lines: %w", domain.ErrConflict)
)

// CatalogRepository defines the interface for catalog item data access
type CatalogRepository interface {
	Create(ctx context.Context, item *domain.CatalogItem) error
	Update(ctx context.Context, item *domain.CatalogItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error)
	List(ctx context.Context, filter domain.CatalogFilter) ([]*domain.CatalogItem, error)
	ListLowStock(ctx context.Context) ([]*domain.CatalogItem, error)
	Count(ctx context.Context) (int, error)
	HasSaleLines(ctx context.Context, id uuid.UUID) (bool, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int, at time.Time) error
}

type catalogRepository struct {
	db DBTX
}

// NewCatalogRepository creates a new instance of CatalogRepository
func NewCatalogRepository(db DBTX) CatalogRepository {
	return &catalogRepository{db: db}
}

const catalogColumns = `id, name, brand, category, sku, price, cost_price, stock_quantity, min_stock_level,
		description, specifications, image_url, status, warranty_duration, warranty_unit, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogItem(row rowScanner) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{}
	var (
		warrantyDuration sql.NullInt32
		warrantyUnit     sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Brand,
		&item.Category,
		&item.SKU,
		&item.Price,
		&item.CostPrice,
		&item.StockQuantity,
		&item.MinStockLevel,
		&item.Description,
		&item.Specifications,
		&item.ImageURL,
		&item.Status,
		&warrantyDuration,
		&warrantyUnit,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if warrantyDuration.Valid && warrantyUnit.Valid {
		item.Warranty = &domain.Warranty{
			Duration: int(warrantyDuration.Int32),
			Unit:     domain.WarrantyUnit(warrantyUnit.String),
		}
	}
	return item, nil
}

func warrantyArgs(w *domain.Warranty) (sql.NullInt32, sql.NullString) {
	if w == nil {
		return sql.NullInt32{}, sql.NullString{}
	}
	return sql.NullInt32{Int32: int32(w.Duration), Valid: true}, sql.NullString{String: string(w.Unit), Valid: true}
}

// Create inserts a new catalog item
func (r *catalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		INSERT INTO inventory_items (` + catalogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	duration, unit := warrantyArgs(item.Warranty)
	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Brand,
		item.Category,
		item.SKU,
		item.Price,
		item.CostPrice,
		item.StockQuantity,
		item.MinStockLevel,
		item.Description,
		item.Specifications,
		item.ImageURL,
		item.Status,
		duration,
		unit,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog item: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of an existing catalog item
func (r *catalogRepository) Update(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		UPDATE inventory_items
		SET name = $2, brand = $3, category = $4, sku = $5, price = $6, cost_price = $7,
		    stock_quantity = $8, min_stock_level = $9, description = $10, specifications = $11,
		    image_url = $12, status = $13, warranty_duration = $14, warranty_unit = $15, updated_at = $16
		WHERE id = $1
	`

	duration, unit := warrantyArgs(item.Warranty)
	result, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Brand,
		item.Category,
		item.SKU,
		item.Price,
		item.CostPrice,
		item.StockQuantity,
		item.MinStockLevel,
		item.Description,
		item.Specifications,
		item.ImageURL,
		item.Status,
		duration,
		unit,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update catalog item: %w", err)
	}

	return expectOneRow(result, ErrCatalogItemNotFound)
}

// Delete physically removes a catalog item. Callers check HasSaleLines first;
// the sale_items foreign key rejects the delete otherwise.
func (r *catalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCatalogItemInUse
		}
		return fmt.Errorf("failed to delete catalog item: %w", err)
	}

	return expectOneRow(result, ErrCatalogItemNotFound)
}

// FindByID retrieves a catalog item by ID
func (r *catalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM inventory_items WHERE id = $1`

	item, err := scanCatalogItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("failed to find catalog item by ID: %w", err)
	}

	return item, nil
}

// List retrieves catalog items matching the filter, newest first
func (r *catalogRepository) List(ctx context.Context, filter domain.CatalogFilter) ([]*domain.CatalogItem, error) {
	conditions := []string{}
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if text := strings.TrimSpace(filter.Text); text != "" {
		args = append(args, "%"+text+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR brand ILIKE $%d OR sku ILIKE $%d)", n, n, n))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM inventory_items %s ORDER BY created_at DESC, id`, catalogColumns, whereClause)
	return r.query(ctx, query, args...)
}

// ListLowStock retrieves items whose stock is at or below their minimum level
func (r *catalogRepository) ListLowStock(ctx context.Context) ([]*domain.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM inventory_items
		WHERE stock_quantity <= min_stock_level AND status <> 'discontinued'
		ORDER BY stock_quantity ASC, name ASC`
	return r.query(ctx, query)
}

func (r *catalogRepository) query(ctx context.Context, query string, args ...any) ([]*domain.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CatalogItem{}
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog items: %w", err)
	}

	return items, nil
}

// Count returns the number of catalog items
func (r *catalogRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_items`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count catalog items: %w", err)
	}
	return total, nil
}

// HasSaleLines reports whether any sale line references the item
func (r *catalogRepository) HasSaleLines(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sale_items WHERE inventory_item_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sale references: %w", err)
	}
	return exists, nil
}

// DecrementStock removes qty units in a single conditional update so two
// checkouts cannot both take the last unit.
func (r *catalogRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int, at time.Time) error {
	query := `
		UPDATE inventory_items
		SET stock_quantity = stock_quantity - $2,
		    status = CASE
		        WHEN status = 'discontinued' THEN status
		        WHEN stock_quantity - $2 = 0 THEN 'out_of_stock'
		        ELSE status
		    END,
		    updated_at = $3
		WHERE id = $1 AND stock_quantity >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, qty, at)
	if err != nil {
		if isCheckViolation(err) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return ErrInsufficientStock
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
