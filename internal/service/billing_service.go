package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mobile-pos/internal/config"
	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MoneyPlaces is the number of decimal places kept on persisted amounts
const MoneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
)

// BillingObserver receives checkout outcomes, typically for metrics
type BillingObserver interface {
	CheckoutCompleted(sale *domain.Sale)
	CheckoutRejected(reason string)
}

type noopObserver struct{}

func (noopObserver) CheckoutCompleted(*domain.Sale) {}
func (noopObserver) CheckoutRejected(string)        {}

// BillingService turns carts into persisted sales
type BillingService interface {
	// Quote validates the cart and computes its totals without writing anything
	Quote(ctx context.Context, cart domain.Cart) (*domain.Sale, error)
	// Checkout persists the sale, its lines, the stock decrements and the
	// serial allocations as one unit
	Checkout(ctx context.Context, cart domain.Cart) (*domain.Sale, error)
	// DefaultTaxes returns the configured tax settings
	DefaultTaxes() domain.TaxSettings
}

type billingService struct {
	store    repository.Store
	taxes    domain.TaxSettings
	observer BillingObserver
	logger   *zap.Logger
}

// NewBillingService creates a new instance of BillingService. A nil observer
// discards checkout events.
func NewBillingService(store repository.Store, taxes domain.TaxSettings, observer BillingObserver, logger *zap.Logger) BillingService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &billingService{
		store:    store,
		taxes:    taxes,
		observer: observer,
		logger:   logger,
	}
}

// TaxSettingsFromConfig converts the billing configuration section
func TaxSettingsFromConfig(cfg config.BillingConfig) domain.TaxSettings {
	rule := func(t config.TaxConfig) domain.TaxRule {
		return domain.TaxRule{
			Enabled: t.Enabled,
			Kind:    domain.TaxKind(strings.ToLower(t.Kind)),
			Value:   decimal.NewFromFloat(t.Value),
		}
	}
	return domain.TaxSettings{GST: rule(cfg.GST), CGST: rule(cfg.CGST)}
}

// ComputeTotals derives the bill amounts from the lines. Line totals are
// recomputed from quantity and unit price. The discount percentage is
// clamped to [0, 100] and each enabled tax applies to the discounted amount.
// A negative result is clamped to zero and flagged for audit.
func ComputeTotals(lines []domain.SaleLine, discountPercent decimal.Decimal, taxes domain.TaxSettings) domain.Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = subtotal.Round(MoneyPlaces)

	pct := clampPercent(discountPercent)
	discount := subtotal.Mul(pct).Div(hundred).Round(MoneyPlaces)
	taxable := subtotal.Sub(discount)

	gst := taxes.GST.Amount(taxable).Round(MoneyPlaces)
	cgst := taxes.CGST.Amount(taxable).Round(MoneyPlaces)

	totals := domain.Totals{
		Subtotal:        subtotal,
		DiscountPercent: pct,
		DiscountAmount:  discount,
		GSTAmount:       gst,
		CGSTAmount:      cgst,
		FinalAmount:     taxable.Add(gst).Add(cgst),
	}
	if totals.FinalAmount.IsNegative() {
		totals.FinalAmount = decimal.Zero
		totals.NeedsAudit = true
	}
	return totals
}

// wholeCents reports whether d fits in MoneyPlaces without rounding
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func (s *billingService) DefaultTaxes() domain.TaxSettings {
	return s.taxes
}

func (s *billingService) Quote(ctx context.Context, cart domain.Cart) (*domain.Sale, error) {
	sale, err := s.prepare(ctx, cart)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *billingService) Checkout(ctx context.Context, cart domain.Cart) (*domain.Sale, error) {
	sale, err := s.prepare(ctx, cart)
	if err != nil {
		s.observer.CheckoutRejected("validation")
		return nil, err
	}
	sale.ID = uuid.New()
	for i := range sale.Lines {
		sale.Lines[i].SaleID = sale.ID
	}

	err = s.store.WithTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		for i, line := range sale.Lines {
			n := i + 1
			err := repos.Catalog.DecrementStock(ctx, line.CatalogItemID, line.Quantity, sale.CreatedAt)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return &domain.AllocationConflictError{Line: n, Reason: "stock no longer sufficient"}
			}
			if err != nil {
				return err
			}

			if line.Serial == "" {
				continue
			}
			err = allocateSerial(ctx, repos.Serials, line.CatalogItemID, line.Serial, line.ID, sale.CreatedAt)
			switch {
			case errors.Is(err, repository.ErrSerialSold):
				return &domain.AllocationConflictError{Line: n, Serial: line.Serial, Reason: "already sold"}
			case errors.Is(err, repository.ErrSerialNotFound):
				return &domain.AllocationConflictError{Line: n, Serial: line.Serial, Reason: "no longer registered"}
			case err != nil:
				return err
			}
		}
		return nil
	})
	if err != nil {
		var conflict *domain.AllocationConflictError
		if errors.As(err, &conflict) {
			s.observer.CheckoutRejected("allocation_conflict")
			s.logger.Warn("Checkout lost an allocation race",
				zap.Int("line", conflict.Line),
				zap.String("serial", conflict.Serial),
				zap.String("reason", conflict.Reason),
			)
			return nil, conflict
		}
		s.observer.CheckoutRejected("persistence")
		s.logger.Error("Checkout failed", zap.Error(err))
		return nil, storeErr("checkout", err)
	}

	s.observer.CheckoutCompleted(sale)
	s.logger.Info("Sale checked out",
		zap.String("sale_id", sale.ID.String()),
		zap.String("customer", sale.CustomerName),
		zap.Int("lines", len(sale.Lines)),
		zap.String("final_amount", sale.FinalAmount.StringFixed(MoneyPlaces)),
		zap.Bool("needs_audit", sale.NeedsAudit),
	)
	return sale, nil
}

// prepare validates the cart against the current catalog and builds the
// unsaved sale with its totals. The sale has no id until it is checked out.
func (s *billingService) prepare(ctx context.Context, cart domain.Cart) (*domain.Sale, error) {
	repos := s.store.Repos()
	issues := domain.NewValidationError()

	customer := strings.TrimSpace(cart.CustomerName)
	if customer == "" {
		issues.Add("missing customer")
	}
	if len(cart.Lines) == 0 {
		issues.Add("empty cart")
	}

	payment := cart.PaymentMethod
	if payment == "" {
		payment = domain.PaymentCash
	}
	if !payment.Valid() {
		issues.Add("invalid payment method %q", cart.PaymentMethod)
	}

	status := cart.Status
	if status == "" {
		status = domain.SaleCompleted
	}
	if status != domain.SaleCompleted && status != domain.SalePending {
		issues.Add("new sales must be completed or pending")
	}

	taxes := s.taxes
	if cart.Taxes != nil {
		taxes = *cart.Taxes
	}
	if err := taxes.GST.Validate(); err != nil {
		issues.Add("gst: %v", err)
	}
	if err := taxes.CGST.Validate(); err != nil {
		issues.Add("cgst: %v", err)
	}

	lines := make([]domain.SaleLine, 0, len(cart.Lines))
	items := map[uuid.UUID]*domain.CatalogItem{}
	wanted := map[uuid.UUID]int{}
	seenSerials := map[string]int{}

	for i, cl := range cart.Lines {
		n := i + 1
		if cl.Quantity <= 0 {
			issues.Add("invalid quantity for line %d", n)
		}

		item, ok := items[cl.CatalogItemID]
		if !ok {
			found, err := repos.Catalog.FindByID(ctx, cl.CatalogItemID)
			if errors.Is(err, repository.ErrCatalogItemNotFound) {
				issues.Add("unknown item for line %d", n)
				continue
			}
			if err != nil {
				return nil, storeErr("find catalog item", err)
			}
			item = found
			items[cl.CatalogItemID] = item
		}

		if item.Status == domain.StatusDiscontinued {
			issues.Add("item discontinued for line %d", n)
		}

		price := item.Price
		if cl.UnitPrice != nil {
			price = *cl.UnitPrice
		}
		if price.IsNegative() {
			issues.Add("negative unit price for line %d", n)
		}
		if !wholeCents(price) {
			issues.Add("unit price has more than %d decimal places for line %d", MoneyPlaces, n)
		}

		serial := strings.TrimSpace(cl.Serial)
		if item.Category.IsSerialized() {
			if err := s.checkSerial(ctx, repos, issues, item, serial, n, cl.Quantity, seenSerials); err != nil {
				return nil, err
			}
		} else if serial != "" {
			issues.Add("serial not applicable for line %d", n)
			serial = ""
		}

		if cl.Quantity > 0 {
			wanted[item.ID] += cl.Quantity
			if wanted[item.ID] > item.StockQuantity {
				issues.Add("insufficient stock for line %d", n)
			}
		}

		lines = append(lines, domain.NewSaleLine(item, cl.Quantity, price, serial))
	}

	if err := issues.OrNil(); err != nil {
		return nil, err
	}

	totals := ComputeTotals(lines, cart.DiscountPercent, taxes)
	now := time.Now().UTC()
	sale := &domain.Sale{
		CustomerName:    customer,
		CustomerPhone:   strings.TrimSpace(cart.CustomerPhone),
		Subtotal:        totals.Subtotal,
		DiscountPercent: totals.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		GSTAmount:       totals.GSTAmount,
		CGSTAmount:      totals.CGSTAmount,
		FinalAmount:     totals.FinalAmount,
		PaymentMethod:   payment,
		Status:          status,
		Notes:           strings.TrimSpace(cart.Notes),
		NeedsAudit:      totals.NeedsAudit,
		CreatedAt:       now,
		UpdatedAt:       now,
		Lines:           lines,
	}
	return sale, nil
}

// checkSerial re-reads the chosen serial so a stale cart is rejected before
// any write.
func (s *billingService) checkSerial(
	ctx context.Context,
	repos repository.Repositories,
	issues *domain.ValidationError,
	item *domain.CatalogItem,
	serial string,
	n, quantity int,
	seen map[string]int,
) error {
	if serial == "" {
		issues.Add("missing serial for line %d", n)
		return nil
	}
	if quantity != 1 {
		issues.Add("serialized line %d must have quantity 1", n)
	}

	key := item.ID.String() + "/" + serial
	if first, dup := seen[key]; dup {
		issues.Add("duplicate serial for line %d (already on line %d)", n, first)
		return nil
	}
	seen[key] = n

	unit, err := repos.Serials.FindBySerial(ctx, item.ID, serial)
	if errors.Is(err, repository.ErrSerialNotFound) {
		issues.Add("unknown serial for line %d", n)
		return nil
	}
	if err != nil {
		return storeErr("find serial", err)
	}
	if unit.Sold {
		issues.Add("serial already sold for line %d", n)
	}
	return nil
}
