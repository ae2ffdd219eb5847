package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxSerialLength matches the phone_imei.imei_number column
const MaxSerialLength = 32

// ErrSerialPermanent is returned when releasing a serial that was already sold
var ErrSerialPermanent = fmt.Errorf("sold serials are permanent records: %w", domain.ErrConflict)

// SerialRegistry manages the IMEI records of serialized catalog items
type SerialRegistry interface {
	ListAvailable(ctx context.Context, itemID uuid.UUID) ([]*domain.SerialUnit, error)
	ListAll(ctx context.Context, itemID uuid.UUID) ([]*domain.SerialUnit, error)
	Register(ctx context.Context, itemID uuid.UUID, serial string) (*domain.SerialUnit, error)
	Allocate(ctx context.Context, itemID uuid.UUID, serial string, saleLineID uuid.UUID) error
	Release(ctx context.Context, serialID uuid.UUID) error
}

type serialRegistry struct {
	store  repository.Store
	logger *zap.Logger
}

// NewSerialRegistry creates a new instance of SerialRegistry
func NewSerialRegistry(store repository.Store, logger *zap.Logger) SerialRegistry {
	return &serialRegistry{store: store, logger: logger}
}

// ListAvailable returns the unsold serials of an item, oldest first
func (s *serialRegistry) ListAvailable(ctx context.Context, itemID uuid.UUID) ([]*domain.SerialUnit, error) {
	return s.list(ctx, itemID, true)
}

// ListAll returns every serial of an item, sold or not
func (s *serialRegistry) ListAll(ctx context.Context, itemID uuid.UUID) ([]*domain.SerialUnit, error) {
	return s.list(ctx, itemID, false)
}

func (s *serialRegistry) list(ctx context.Context, itemID uuid.UUID, availableOnly bool) ([]*domain.SerialUnit, error) {
	repos := s.store.Repos()
	if _, err := repos.Catalog.FindByID(ctx, itemID); err != nil {
		return nil, storeErr("find catalog item", err)
	}

	units, err := repos.Serials.ListByItem(ctx, itemID, availableOnly)
	if err != nil {
		return nil, storeErr("list serials", err)
	}
	return units, nil
}

// Register records a new physical unit for a serialized item
func (s *serialRegistry) Register(ctx context.Context, itemID uuid.UUID, serial string) (*domain.SerialUnit, error) {
	serial = strings.TrimSpace(serial)

	repos := s.store.Repos()
	item, err := repos.Catalog.FindByID(ctx, itemID)
	if err != nil {
		return nil, storeErr("find catalog item", err)
	}

	issues := domain.NewValidationError()
	if serial == "" {
		issues.Add("serial is required")
	} else if len(serial) > MaxSerialLength {
		issues.Add("serial must be at most %d characters", MaxSerialLength)
	}
	if !item.Category.IsSerialized() {
		issues.Add("category %s does not track serials", item.Category)
	}
	if err := issues.OrNil(); err != nil {
		return nil, err
	}

	unit := &domain.SerialUnit{
		ID:            uuid.New(),
		CatalogItemID: itemID,
		Serial:        serial,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repos.Serials.Create(ctx, unit); err != nil {
		return nil, storeErr("register serial", err)
	}

	s.logger.Info("Serial registered",
		zap.String("item_id", itemID.String()),
		zap.String("serial", serial),
	)
	return unit, nil
}

// Allocate marks a serial sold and links it to a sale line
func (s *serialRegistry) Allocate(ctx context.Context, itemID uuid.UUID, serial string, saleLineID uuid.UUID) error {
	return storeErr("allocate serial", allocateSerial(ctx, s.store.Repos().Serials, itemID, serial, saleLineID, time.Now().UTC()))
}

// allocateSerial is the single compare-and-set used by both the registry and
// checkout. It returns repository.ErrSerialSold or repository.ErrSerialNotFound.
func allocateSerial(ctx context.Context, serials repository.SerialRepository, itemID uuid.UUID, serial string, saleLineID uuid.UUID, at time.Time) error {
	return serials.MarkSold(ctx, itemID, serial, saleLineID, at)
}

// Release removes an unsold serial registered by mistake
func (s *serialRegistry) Release(ctx context.Context, serialID uuid.UUID) error {
	err := s.store.Repos().Serials.DeleteUnsold(ctx, serialID)
	if errors.Is(err, repository.ErrSerialSold) {
		return ErrSerialPermanent
	}
	if err != nil {
		return storeErr("release serial", err)
	}

	s.logger.Info("Serial released", zap.String("serial_id", serialID.String()))
	return nil
}
