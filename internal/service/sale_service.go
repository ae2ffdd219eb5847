package service

import (
	"context"
	"fmt"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidTransition is returned for status changes the sale lifecycle forbids
var ErrInvalidTransition = fmt.Errorf("sale status transition not allowed: %w", domain.ErrConflict)

// SaleService reads sales and applies status transitions
type SaleService interface {
	List(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SaleStatus) (*domain.Sale, error)
}

type saleService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewSaleService creates a new instance of SaleService
func NewSaleService(store repository.Store, logger *zap.Logger) SaleService {
	return &saleService{store: store, logger: logger}
}

func (s *saleService) List(ctx context.Context, filter domain.SaleFilter) ([]*domain.Sale, error) {
	sales, err := s.store.Repos().Sales.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list sales", err)
	}
	return sales, nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := s.store.Repos().Sales.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find sale", err)
	}
	return sale, nil
}

// UpdateStatus moves a sale along pending -> completed|cancelled and
// completed -> cancelled. Sold serials stay sold.
func (s *saleService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SaleStatus) (*domain.Sale, error) {
	switch status {
	case domain.SaleCompleted, domain.SalePending, domain.SaleCancelled:
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unknown sale status %q", status))
	}

	repos := s.store.Repos()
	sale, err := repos.Sales.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find sale", err)
	}

	if !sale.Status.CanTransition(status) {
		return nil, fmt.Errorf("%s -> %s: %w", sale.Status, status, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	if err := repos.Sales.UpdateStatus(ctx, id, sale.Status, status, now); err != nil {
		return nil, storeErr("update sale status", err)
	}

	s.logger.Info("Sale status changed",
		zap.String("sale_id", id.String()),
		zap.String("from", string(sale.Status)),
		zap.String("to", string(status)),
	)

	sale.Status = status
	sale.UpdatedAt = now
	return sale, nil
}
