package domain

import (
	"time"

	"github.com/google/uuid"
)

// SerialUnit is one physical handset identified by its IMEI. Once Sold is set
// it is never cleared.
type SerialUnit struct {
	ID            uuid.UUID  `json:"id"`
	CatalogItemID uuid.UUID  `json:"catalog_item_id"`
	Serial        string     `json:"serial"`
	Sold          bool       `json:"sold"`
	SaleLineID    *uuid.UUID `json:"sale_line_id,omitempty"`
	SoldAt        *time.Time `json:"sold_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
