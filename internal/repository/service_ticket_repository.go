package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mobile-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrServiceTicketNotFound = fmt.Errorf("service ticket %w", domain.ErrNotFound)

// ServiceTicketRepository defines the interface for service ticket data access
type ServiceTicketRepository interface {
	Create(ctx context.Context, ticket *domain.ServiceTicket) error
	Update(ctx context.Context, ticket *domain.ServiceTicket) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceTicket, error)
	List(ctx context.Context, filter domain.TicketFilter) ([]*domain.ServiceTicket, error)
}

type serviceTicketRepository struct {
	db DBTX
}

// NewServiceTicketRepository creates a new instance of ServiceTicketRepository
func NewServiceTicketRepository(db DBTX) ServiceTicketRepository {
	return &serviceTicketRepository{db: db}
}

const ticketColumns = `id, model_name, problem, customer_name, phone_number, amount, material_cost,
		status, comments, service_date, created_at, updated_at`

func scanTicket(row rowScanner) (*domain.ServiceTicket, error) {
	ticket := &domain.ServiceTicket{}
	var materialCost decimal.NullDecimal
	err := row.Scan(
		&ticket.ID,
		&ticket.ModelName,
		&ticket.Problem,
		&ticket.CustomerName,
		&ticket.PhoneNumber,
		&ticket.Amount,
		&materialCost,
		&ticket.Status,
		&ticket.Comments,
		&ticket.ServiceDate,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if materialCost.Valid {
		cost := materialCost.Decimal
		ticket.MaterialCost = &cost
	}
	return ticket, nil
}

func materialCostArg(cost *decimal.Decimal) decimal.NullDecimal {
	if cost == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*cost)
}

// Create inserts a new service ticket
func (r *serviceTicketRepository) Create(ctx context.Context, ticket *domain.ServiceTicket) error {
	query := `
		INSERT INTO service_tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		ticket.ID,
		ticket.ModelName,
		ticket.Problem,
		ticket.CustomerName,
		ticket.PhoneNumber,
		ticket.Amount,
		materialCostArg(ticket.MaterialCost),
		ticket.Status,
		ticket.Comments,
		ticket.ServiceDate,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service ticket: %w", err)
	}

	return nil
}

// Update persists the mutable fields of a ticket
func (r *serviceTicketRepository) Update(ctx context.Context, ticket *domain.ServiceTicket) error {
	query := `
		UPDATE service_tickets
		SET amount = $2, material_cost = $3, status = $4, comments = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		ticket.ID,
		ticket.Amount,
		materialCostArg(ticket.MaterialCost),
		ticket.Status,
		ticket.Comments,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update service ticket: %w", err)
	}

	return expectOneRow(result, ErrServiceTicketNotFound)
}

// FindByID retrieves a service ticket by ID
func (r *serviceTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM service_tickets WHERE id = $1`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceTicketNotFound
		}
		return nil, fmt.Errorf("failed to find service ticket by ID: %w", err)
	}

	return ticket, nil
}

// List retrieves tickets matching the filter, most recent service date first
func (r *serviceTicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]*domain.ServiceTicket, error) {
	conditions := []string{}
	args := []any{}

	if text := strings.TrimSpace(filter.Text); text != "" {
		args = append(args, "%"+text+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(model_name ILIKE $%d OR customer_name ILIKE $%d OR phone_number ILIKE $%d OR problem ILIKE $%d)", n, n, n, n))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("service_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("service_date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM service_tickets %s ORDER BY service_date DESC, created_at DESC`, ticketColumns, whereClause)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service tickets: %w", err)
	}
	defer rows.Close()

	tickets := []*domain.ServiceTicket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service tickets: %w", err)
	}

	return tickets, nil
}
