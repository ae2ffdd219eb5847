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
	ErrSaleNotFound      = fmt.Errorf("sale %w", domain.ErrNotFound)
	ErrSaleStatusChanged = fmt.Errorf("sale status changed concurrently: %w", domain.ErrConflict)
)

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.SaleStatus, at time.Time) error
	CountCustomers(ctx context.Context) (int, error)
}

type saleRepository struct {
	db DBTX
}

// NewSaleRepository creates a new instance of SaleRepository
func NewSaleRepository(db DBTX) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `id, customer_name, customer_phone, subtotal, discount_percent, discount_amount,
		gst_amount, cgst_amount, final_amount, payment_method, status, notes, needs_audit, created_at, updated_at`

const saleLineColumns = `id, sale_id, inventory_item_id, item_name, item_sku, quantity, unit_price, total_price, serial`

// Create inserts the sale and its lines in order. Callers run it inside a
// transaction together with stock and serial updates.
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		sale.ID,
		sale.CustomerName,
		sale.CustomerPhone,
		sale.Subtotal,
		sale.DiscountPercent,
		sale.DiscountAmount,
		sale.GSTAmount,
		sale.CGSTAmount,
		sale.FinalAmount,
		sale.PaymentMethod,
		sale.Status,
		sale.Notes,
		sale.NeedsAudit,
		sale.CreatedAt,
		sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	lineQuery := `
		INSERT INTO sale_items (` + saleLineColumns + `, line_no, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for i := range sale.Lines {
		line := &sale.Lines[i]
		line.SaleID = sale.ID
		_, err := r.db.ExecContext(
			ctx,
			lineQuery,
			line.ID,
			line.SaleID,
			line.CatalogItemID,
			line.ItemName,
			line.ItemSKU,
			line.Quantity,
			line.UnitPrice,
			line.LineTotal,
			line.Serial,
			i+1,
			sale.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create sale line %d: %w", i+1, err)
		}
	}

	return nil
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	sale := &domain.Sale{}
	err := row.Scan(
		&sale.ID,
		&sale.CustomerName,
		&sale.CustomerPhone,
		&sale.Subtotal,
		&sale.DiscountPercent,
		&sale.DiscountAmount,
		&sale.GSTAmount,
		&sale.CGSTAmount,
		&sale.FinalAmount,
		&sale.PaymentMethod,
		&sale.Status,
		&sale.Notes,
		&sale.NeedsAudit,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sale.Lines = []domain.SaleLine{}
	return sale, nil
}

// FindByID retrieves a sale with its lines
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	sale, err := scanSale(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale by ID: %w", err)
	}

	lines, err := r.lines(ctx, `sale_id = $1`, id)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines[sale.ID]
	if sale.Lines == nil {
		sale.Lines = []domain.SaleLine{}
	}

	return sale, nil
}

// List retrieves sales matching the filter, newest first, with their lines
func (r *saleRepository) List(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	conditions := []string{}
	args := []any{}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	selectIDs := "SELECT id FROM sales"
	if len(conditions) > 0 {
		selectIDs += " WHERE " + strings.Join(conditions, " AND ")
	}
	selectIDs += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		selectIDs += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	query := fmt.Sprintf(`SELECT %s FROM sales WHERE id IN (%s) ORDER BY created_at DESC, id`, saleColumns, selectIDs)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []*domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	lines, err := r.lines(ctx, fmt.Sprintf("sale_id IN (%s)", selectIDs), args...)
	if err != nil {
		return nil, err
	}
	for _, sale := range sales {
		if l, ok := lines[sale.ID]; ok {
			sale.Lines = l
		}
	}

	return sales, nil
}

func (r *saleRepository) lines(ctx context.Context, where string, args ...any) (map[uuid.UUID][]domain.SaleLine, error) {
	query := fmt.Sprintf(`SELECT %s FROM sale_items WHERE %s ORDER BY sale_id, line_no`, saleLineColumns, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale lines: %w", err)
	}
	defer rows.Close()

	bySale := map[uuid.UUID][]domain.SaleLine{}
	for rows.Next() {
		var line domain.SaleLine
		err := rows.Scan(
			&line.ID,
			&line.SaleID,
			&line.CatalogItemID,
			&line.ItemName,
			&line.ItemSKU,
			&line.Quantity,
			&line.UnitPrice,
			&line.LineTotal,
			&line.Serial,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		bySale[line.SaleID] = append(bySale[line.SaleID], line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale lines: %w", err)
	}

	return bySale, nil
}

// UpdateStatus moves a sale from one status to another. The from predicate
// rejects the update if another request changed the status first.
func (r *saleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.SaleStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sales SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update sale status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check sale: %w", err)
	}
	if !exists {
		return ErrSaleNotFound
	}
	return ErrSaleStatusChanged
}

// CountCustomers returns the number of distinct customer names across all sales
func (r *saleRepository) CountCustomers(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT LOWER(TRIM(customer_name))) FROM sales`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return total, nil
}
