package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer:
		return true
	}
	return false
}

// SaleStatus is the lifecycle status of a sale
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleCancelled SaleStatus = "cancelled"
)

// CanTransition reports whether a sale may move from s to next.
func (s SaleStatus) CanTransition(next SaleStatus) bool {
	switch s {
	case SalePending:
		return next == SaleCompleted || next == SaleCancelled
	case SaleCompleted:
		return next == SaleCancelled
	}
	return false
}

// Sale is a persisted checkout. Monetary fields are computed by the billing
// engine and never edited afterwards.
type Sale struct {
	ID              uuid.UUID       `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	GSTAmount       decimal.Decimal `json:"gst_amount"`
	CGSTAmount      decimal.Decimal `json:"cgst_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Status          SaleStatus      `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	NeedsAudit      bool            `json:"needs_audit"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []SaleLine      `json:"lines"`
}

// ItemCount sums the quantities of all lines
func (s *Sale) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// SaleLine is one entry of a sale with its price snapshot. For serialized
// lines ItemSKU holds the allocated serial.
type SaleLine struct {
	ID            uuid.UUID       `json:"id"`
	SaleID        uuid.UUID       `json:"sale_id"`
	CatalogItemID uuid.UUID       `json:"catalog_item_id"`
	ItemName      string          `json:"item_name"`
	ItemSKU       string          `json:"item_sku"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Serial        string          `json:"serial,omitempty"`
}

// NewSaleLine builds a line with its total derived from quantity and unit price.
func NewSaleLine(item *CatalogItem, quantity int, unitPrice decimal.Decimal, serial string) SaleLine {
	sku := item.SKU
	if serial != "" {
		sku = serial
	}
	return SaleLine{
		ID:            uuid.New(),
		CatalogItemID: item.ID,
		ItemName:      item.Name,
		ItemSKU:       sku,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		LineTotal:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Serial:        serial,
	}
}

// SaleFilter narrows sale listings
type SaleFilter struct {
	From   time.Time
	To     time.Time
	Status SaleStatus
	Limit  int
}
