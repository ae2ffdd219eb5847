package service

import (
	"context"
	"strings"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ServiceTicketService manages repair tickets
type ServiceTicketService interface {
	Create(ctx context.Context, ticket *domain.ServiceTicket) (*domain.ServiceTicket, error)
	List(ctx context.Context, filter domain.TicketFilter) ([]*domain.ServiceTicket, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ServiceTicket, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TicketPatch) (*domain.ServiceTicket, error)
}

type serviceTicketService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewServiceTicketService creates a new instance of ServiceTicketService
func NewServiceTicketService(store repository.Store, logger *zap.Logger) ServiceTicketService {
	return &serviceTicketService{store: store, logger: logger}
}

func (s *serviceTicketService) Create(ctx context.Context, ticket *domain.ServiceTicket) (*domain.ServiceTicket, error) {
	ticket.ModelName = strings.TrimSpace(ticket.ModelName)
	ticket.Problem = strings.TrimSpace(ticket.Problem)
	ticket.CustomerName = strings.TrimSpace(ticket.CustomerName)
	ticket.PhoneNumber = strings.TrimSpace(ticket.PhoneNumber)
	if ticket.Status == "" {
		ticket.Status = domain.TicketReceived
	}

	now := time.Now().UTC()
	if ticket.ServiceDate.IsZero() {
		ticket.ServiceDate = now
	}

	if err := validateTicket(ticket); err != nil {
		return nil, err
	}

	ticket.ID = uuid.New()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	if err := s.store.Repos().Tickets.Create(ctx, ticket); err != nil {
		return nil, storeErr("create service ticket", err)
	}

	s.logger.Info("Service ticket created",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("model", ticket.ModelName),
	)
	return ticket, nil
}

func (s *serviceTicketService) List(ctx context.Context, filter domain.TicketFilter) ([]*domain.ServiceTicket, error) {
	tickets, err := s.store.Repos().Tickets.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list service tickets", err)
	}
	return tickets, nil
}

func (s *serviceTicketService) Get(ctx context.Context, id uuid.UUID) (*domain.ServiceTicket, error) {
	ticket, err := s.store.Repos().Tickets.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find service ticket", err)
	}
	return ticket, nil
}

func (s *serviceTicketService) Update(ctx context.Context, id uuid.UUID, patch domain.TicketPatch) (*domain.ServiceTicket, error) {
	repos := s.store.Repos()

	ticket, err := repos.Tickets.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find service ticket", err)
	}

	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Comments != nil {
		ticket.Comments = *patch.Comments
	}
	if patch.Amount != nil {
		ticket.Amount = *patch.Amount
	}
	if patch.MaterialCost != nil {
		cost := *patch.MaterialCost
		ticket.MaterialCost = &cost
	}

	if err := validateTicket(ticket); err != nil {
		return nil, err
	}

	ticket.UpdatedAt = time.Now().UTC()
	if err := repos.Tickets.Update(ctx, ticket); err != nil {
		return nil, storeErr("update service ticket", err)
	}

	return ticket, nil
}

func validateTicket(ticket *domain.ServiceTicket) error {
	issues := domain.NewValidationError()
	collectFieldIssues(issues, ticket)

	if ticket.Amount.IsNegative() {
		issues.Add("amount must not be negative")
	}
	if ticket.MaterialCost != nil && ticket.MaterialCost.LessThan(decimal.Zero) {
		issues.Add("material_cost must not be negative")
	}
	if !ticket.Status.Valid() {
		issues.Add("unknown ticket status %q", ticket.Status)
	}

	return issues.OrNil()
}
