package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxKind selects how a tax value is applied
type TaxKind string

const (
	TaxPercent TaxKind = "percent"
	TaxFixed   TaxKind = "fixed"
)

// TaxRule is one configurable tax such as GST or CGST
type TaxRule struct {
	Enabled bool            `json:"enabled"`
	Kind    TaxKind         `json:"kind"`
	Value   decimal.Decimal `json:"value"`
}

// Validate checks the rule kind
func (t TaxRule) Validate() error {
	if !t.Enabled {
		return nil
	}
	switch t.Kind {
	case TaxPercent, TaxFixed:
		return nil
	}
	return fmt.Errorf("unknown tax kind %q", t.Kind)
}

// Amount returns the tax due on base. Disabled rules yield zero.
func (t TaxRule) Amount(base decimal.Decimal) decimal.Decimal {
	if !t.Enabled {
		return decimal.Zero
	}
	if t.Kind == TaxFixed {
		return t.Value
	}
	return base.Mul(t.Value).Div(decimal.NewFromInt(100))
}

// TaxSettings groups the taxes applied to a bill
type TaxSettings struct {
	GST  TaxRule `json:"gst"`
	CGST TaxRule `json:"cgst"`
}

// Totals are the monetary fields of a bill
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GSTAmount       decimal.Decimal `json:"gst_amount"`
	CGSTAmount      decimal.Decimal `json:"cgst_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	NeedsAudit      bool            `json:"needs_audit"`
}

// CartLine is one entry of a cart. UnitPrice is the price captured when the
// line was added; when nil the current catalog price is used.
type CartLine struct {
	CatalogItemID uuid.UUID        `json:"catalog_item_id"`
	Quantity      int              `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	Serial        string           `json:"serial,omitempty"`
}

// Cart is the checkout input
type Cart struct {
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	Lines           []CartLine      `json:"lines"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Status          SaleStatus      `json:"status"`
	Notes           string          `json:"notes"`
	Taxes           *TaxSettings    `json:"taxes,omitempty"`
}
