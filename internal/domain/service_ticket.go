package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketStatus tracks a repair through the shop
type TicketStatus string

const (
	TicketReceived   TicketStatus = "received"
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketDelivered  TicketStatus = "delivered"
)

// Valid reports whether s is a known ticket status
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketReceived, TicketInProgress, TicketCompleted, TicketDelivered:
		return true
	}
	return false
}

// ServiceTicket is a repair job. It has no link to the catalog.
type ServiceTicket struct {
	ID           uuid.UUID        `json:"id"`
	ModelName    string           `json:"model_name" validate:"required,max=255"`
	Problem      string           `json:"problem" validate:"required"`
	CustomerName string           `json:"customer_name" validate:"required,max=255"`
	PhoneNumber  string           `json:"phone_number" validate:"max=50"`
	Amount       decimal.Decimal  `json:"amount"`
	MaterialCost *decimal.Decimal `json:"material_cost,omitempty"`
	Status       TicketStatus     `json:"status"`
	Comments     string           `json:"comments"`
	ServiceDate  time.Time        `json:"service_date"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// TicketFilter narrows ticket listings
type TicketFilter struct {
	Text   string
	From   time.Time
	To     time.Time
	Status TicketStatus
}

// TicketPatch holds the mutable fields of a ticket
type TicketPatch struct {
	Status       *TicketStatus    `json:"status"`
	Comments     *string          `json:"comments"`
	Amount       *decimal.Decimal `json:"amount"`
	MaterialCost *decimal.Decimal `json:"material_cost"`
}
