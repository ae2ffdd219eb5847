package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category classifies a catalog item
type Category string

const (
	CategoryPhones        Category = "phones"
	CategoryFeaturedPhone Category = "featured_phones"
	CategoryButtonPhone   Category = "button_phones"
	CategoryAccessories   Category = "accessories"
	CategoryCases         Category = "cases"
	CategoryChargers      Category = "chargers"
	CategoryTablets       Category = "tablets"
	CategorySmartWatches  Category = "smart_watches"
)

// IsSerialized reports whether units of this category are tracked one IMEI at a time.
func (c Category) IsSerialized() bool {
	switch c {
	case CategoryPhones, CategoryFeaturedPhone, CategoryButtonPhone:
		return true
	}
	return false
}

// ItemStatus is the lifecycle status of a catalog item
type ItemStatus string

const (
	StatusActive       ItemStatus = "active"
	StatusDiscontinued ItemStatus = "discontinued"
	StatusOutOfStock   ItemStatus = "out_of_stock"
)

// Valid reports whether s is a known status
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDiscontinued, StatusOutOfStock:
		return true
	}
	return false
}

// WarrantyUnit is the unit of a warranty duration
type WarrantyUnit string

const (
	WarrantyDays   WarrantyUnit = "days"
	WarrantyMonths WarrantyUnit = "months"
	WarrantyYears  WarrantyUnit = "years"
)

// Warranty describes optional warranty terms
type Warranty struct {
	Duration int          `json:"duration"`
	Unit     WarrantyUnit `json:"unit"`
}

// Validate checks the warranty terms
func (w Warranty) Validate() error {
	if w.Duration <= 0 {
		return errors.New("warranty duration must be positive")
	}
	switch w.Unit {
	case WarrantyDays, WarrantyMonths, WarrantyYears:
		return nil
	}
	return fmt.Errorf("unknown warranty unit %q", w.Unit)
}

func (w Warranty) String() string {
	return fmt.Sprintf("%d %s", w.Duration, w.Unit)
}

// PhoneSpecs are the specifications of serialized handsets
type PhoneSpecs struct {
	Storage string `json:"storage,omitempty"`
	Color   string `json:"color,omitempty"`
	Display string `json:"display,omitempty"`
	RAM     string `json:"ram,omitempty"`
}

// GeneralSpecs are the specifications of accessories and other merchandise
type GeneralSpecs struct {
	Material  string `json:"material,omitempty"`
	Color     string `json:"color,omitempty"`
	Battery   string `json:"battery,omitempty"`
	Features  string `json:"features,omitempty"`
	Power     string `json:"power,omitempty"`
	Connector string `json:"connector,omitempty"`
	Size      string `json:"size,omitempty"`
}

// Specifications is a tagged union: exactly one variant is set, chosen by category.
type Specifications struct {
	Phone   *PhoneSpecs   `json:"phone,omitempty"`
	General *GeneralSpecs `json:"general,omitempty"`
}

// Check verifies the variant matches the category. An empty union is filled
// with the zero value of the expected variant.
func (s *Specifications) Check(c Category) error {
	if s.Phone != nil && s.General != nil {
		return errors.New("specifications must carry exactly one variant")
	}
	if c.IsSerialized() {
		if s.General != nil {
			return fmt.Errorf("category %s requires phone specifications", c)
		}
		if s.Phone == nil {
			s.Phone = &PhoneSpecs{}
		}
		return nil
	}
	if s.Phone != nil {
		return fmt.Errorf("category %s does not accept phone specifications", c)
	}
	if s.General == nil {
		s.General = &GeneralSpecs{}
	}
	return nil
}

// Value implements driver.Valuer for JSONB storage
func (s Specifications) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *Specifications) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Specifications{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("specifications: unsupported type %T", src)
	}
	return json.Unmarshal(raw, s)
}

// CatalogItem is a sellable product or phone model
type CatalogItem struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name" validate:"required,max=255"`
	Brand          string          `json:"brand" validate:"required,max=100"`
	Category       Category        `json:"category" validate:"required"`
	SKU            string          `json:"sku" validate:"required,max=100"`
	Price          decimal.Decimal `json:"price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	StockQuantity  int             `json:"stock_quantity" validate:"gte=0"`
	MinStockLevel  int             `json:"min_stock_level" validate:"gte=0"`
	Description    string          `json:"description"`
	Specifications Specifications  `json:"specifications"`
	ImageURL       string          `json:"image_url"`
	Status         ItemStatus      `json:"status"`
	Warranty       *Warranty       `json:"warranty,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsLowStock reports whether stock has fallen to the minimum threshold
func (i *CatalogItem) IsLowStock() bool {
	return i.StockQuantity <= i.MinStockLevel
}

// SyncStockStatus moves the status between active and out_of_stock to follow
// stock. Discontinued items are left alone.
func (i *CatalogItem) SyncStockStatus() {
	switch {
	case i.Status == StatusDiscontinued:
	case i.StockQuantity == 0:
		i.Status = StatusOutOfStock
	case i.Status == StatusOutOfStock || i.Status == "":
		i.Status = StatusActive
	}
}

// CatalogFilter narrows catalog listings. Zero values match everything.
type CatalogFilter struct {
	Category Category
	Status   ItemStatus
	Text     string
}

// CatalogPatch holds the fields of a partial catalog update
type CatalogPatch struct {
	Name           *string          `json:"name"`
	Brand          *string          `json:"brand"`
	Category       *Category        `json:"category"`
	SKU            *string          `json:"sku"`
	Price          *decimal.Decimal `json:"price"`
	CostPrice      *decimal.Decimal `json:"cost_price"`
	StockQuantity  *int             `json:"stock_quantity"`
	MinStockLevel  *int             `json:"min_stock_level"`
	Description    *string          `json:"description"`
	Specifications *Specifications  `json:"specifications"`
	ImageURL       *string          `json:"image_url"`
	Status         *ItemStatus      `json:"status"`
	Warranty       *Warranty        `json:"warranty"`
	ClearWarranty  bool             `json:"clear_warranty"`
}

// Apply merges the supplied fields into item
func (p CatalogPatch) Apply(item *CatalogItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Brand != nil {
		item.Brand = *p.Brand
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.SKU != nil {
		item.SKU = *p.SKU
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.CostPrice != nil {
		item.CostPrice = *p.CostPrice
	}
	if p.StockQuantity != nil {
		item.StockQuantity = *p.StockQuantity
	}
	if p.MinStockLevel != nil {
		item.MinStockLevel = *p.MinStockLevel
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Specifications != nil {
		item.Specifications = *p.Specifications
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.Warranty != nil {
		w := *p.Warranty
		item.Warranty = &w
	}
	if p.ClearWarranty {
		item.Warranty = nil
	}
}

// CategoryInfo is a row of the categories table
type CategoryInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        Category  `json:"name"`
	DisplayName string    `json:"display_name"`
	Serialized  bool      `json:"serialized"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeleteOutcome reports what Delete did to a catalog item
type DeleteOutcome string

const (
	DeleteRemoved     DeleteOutcome = "removed"
	DeleteSoftDeleted DeleteOutcome = "soft_deleted"
)
