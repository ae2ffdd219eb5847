package service

import (
	"context"
	"errors"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService defines the inventory operations on catalog items
type CatalogService interface {
	List(ctx context.Context, filter domain.CatalogFilter) ([]*domain.CatalogItem, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error)
	Create(ctx context.Context, item *domain.CatalogItem) (*domain.CatalogItem, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CatalogPatch) (*domain.CatalogItem, error)
	Delete(ctx context.Context, id uuid.UUID) (domain.DeleteOutcome, error)
	LowStock(ctx context.Context) ([]*domain.CatalogItem, error)
	ListCategories(ctx context.Context) ([]*domain.CategoryInfo, error)
}

type catalogService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(store repository.Store, logger *zap.Logger) CatalogService {
	return &catalogService{store: store, logger: logger}
}

func (s *catalogService) List(ctx context.Context, filter domain.CatalogFilter) ([]*domain.CatalogItem, error) {
	items, err := s.store.Repos().Catalog.List(ctx, filter)
	if err != nil {
		return nil, storeErr("list catalog items", err)
	}
	return items, nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	item, err := s.store.Repos().Catalog.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find catalog item", err)
	}
	return item, nil
}

// Create validates and stores a new catalog item
func (s *catalogService) Create(ctx context.Context, item *domain.CatalogItem) (*domain.CatalogItem, error) {
	repos := s.store.Repos()

	if item.Status == "" {
		item.SyncStockStatus()
	}
	if err := s.validateItem(ctx, repos, item); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item.ID = uuid.New()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := repos.Catalog.Create(ctx, item); err != nil {
		return nil, storeErr("create catalog item", err)
	}

	s.logger.Info("Catalog item created",
		zap.String("item_id", item.ID.String()),
		zap.String("sku", item.SKU),
		zap.String("category", string(item.Category)),
	)
	return item, nil
}

// Update merges the supplied fields into an existing item and revalidates it
func (s *catalogService) Update(ctx context.Context, id uuid.UUID, patch domain.CatalogPatch) (*domain.CatalogItem, error) {
	repos := s.store.Repos()

	item, err := repos.Catalog.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find catalog item", err)
	}

	patch.Apply(item)
	if patch.Status == nil || *patch.Status != domain.StatusDiscontinued {
		item.SyncStockStatus()
	}
	if err := s.validateItem(ctx, repos, item); err != nil {
		return nil, err
	}

	item.UpdatedAt = time.Now().UTC()
	if err := repos.Catalog.Update(ctx, item); err != nil {
		return nil, storeErr("update catalog item", err)
	}

	return item, nil
}

// Delete removes an item, or marks it discontinued when any sale line
// references it. The check and the write share one transaction.
func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) (domain.DeleteOutcome, error) {
	var outcome domain.DeleteOutcome

	err := s.store.WithTx(ctx, func(repos repository.Repositories) error {
		item, err := repos.Catalog.FindByID(ctx, id)
		if err != nil {
			return err
		}

		referenced, err := repos.Catalog.HasSaleLines(ctx, id)
		if err != nil {
			return err
		}

		if !referenced {
			outcome = domain.DeleteRemoved
			return repos.Catalog.Delete(ctx, id)
		}

		item.Status = domain.StatusDiscontinued
		item.UpdatedAt = time.Now().UTC()
		outcome = domain.DeleteSoftDeleted
		return repos.Catalog.Update(ctx, item)
	})
	if err != nil {
		return "", storeErr("delete catalog item", err)
	}

	s.logger.Info("Catalog item deleted",
		zap.String("item_id", id.String()),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

func (s *catalogService) LowStock(ctx context.Context) ([]*domain.CatalogItem, error) {
	items, err := s.store.Repos().Catalog.ListLowStock(ctx)
	if err != nil {
		return nil, storeErr("list low stock", err)
	}
	return items, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.CategoryInfo, error) {
	categories, err := s.store.Repos().Categories.List(ctx)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	return categories, nil
}

func (s *catalogService) validateItem(ctx context.Context, repos repository.Repositories, item *domain.CatalogItem) error {
	issues := domain.NewValidationError()
	collectFieldIssues(issues, item)

	if item.Price.IsNegative() {
		issues.Add("price must not be negative")
	}
	if item.CostPrice.IsNegative() {
		issues.Add("cost_price must not be negative")
	}
	if !wholeCents(item.Price) || !wholeCents(item.CostPrice) {
		issues.Add("prices must not have more than %d decimal places", MoneyPlaces)
	}
	if !item.Status.Valid() {
		issues.Add("unknown status %q", item.Status)
	}
	if item.Warranty != nil {
		if err := item.Warranty.Validate(); err != nil {
			issues.Add("%v", err)
		}
	}

	if item.Category != "" {
		if _, err := repos.Categories.FindByName(ctx, item.Category); err != nil {
			if !errors.Is(err, repository.ErrCategoryNotFound) {
				return storeErr("find category", err)
			}
			issues.Add("unknown category %q", item.Category)
		} else if err := item.Specifications.Check(item.Category); err != nil {
			issues.Add("%v", err)
		}
	}

	return issues.OrNil()
}
