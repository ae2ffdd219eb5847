package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mobile-pos/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServiceTicketService_CreateDefaults(t *testing.T) {
	svc := NewServiceTicketService(newMemoryStore(), zap.NewNop())

	ticket, err := svc.Create(context.Background(), &domain.ServiceTicket{
		ModelName:    " Redmi 9 ",
		Problem:      "Cracked display",
		CustomerName: "Lakshmi",
		PhoneNumber:  "9876543210",
		Amount:       dec("1500"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Redmi 9", ticket.ModelName)
	assert.Equal(t, domain.TicketReceived, ticket.Status)
	assert.False(t, ticket.ServiceDate.IsZero())
	assert.Nil(t, ticket.MaterialCost)
}

func TestServiceTicketService_CreateValidation(t *testing.T) {
	svc := NewServiceTicketService(newMemoryStore(), zap.NewNop())

	_, err := svc.Create(context.Background(), &domain.ServiceTicket{
		Amount:       dec("-1"),
		MaterialCost: decPtr("-2"),
		Status:       "lost",
	})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.Contains(t, verr.Issues, "amount must not be negative")
	assert.Contains(t, verr.Issues, "material_cost must not be negative")
	assert.Contains(t, verr.Issues, `unknown ticket status "lost"`)
	assert.Len(t, verr.Issues, 6)
}

func TestServiceTicketService_UpdateAndFilter(t *testing.T) {
	svc := NewServiceTicketService(newMemoryStore(), zap.NewNop())
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	first, err := svc.Create(ctx, &domain.ServiceTicket{
		ModelName: "Galaxy A14", Problem: "Battery swelling", CustomerName: "Imran", ServiceDate: day,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &domain.ServiceTicket{
		ModelName: "iPhone 11", Problem: "Charging port", CustomerName: "Priya", ServiceDate: day.AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	status := domain.TicketCompleted
	comments := "Battery replaced"
	updated, err := svc.Update(ctx, first.ID, domain.TicketPatch{
		Status:       &status,
		Comments:     &comments,
		Amount:       decPtr("1800"),
		MaterialCost: decPtr("900"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCompleted, updated.Status)
	require.NotNil(t, updated.MaterialCost)
	assert.True(t, updated.MaterialCost.Equal(dec("900")))

	stored, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Battery replaced", stored.Comments)

	found, err := svc.List(ctx, domain.TicketFilter{Text: "galaxy"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	found, err = svc.List(ctx, domain.TicketFilter{From: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "iPhone 11", found[0].ModelName)

	found, err = svc.List(ctx, domain.TicketFilter{Status: domain.TicketCompleted})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	bad := domain.TicketStatus("lost")
	_, err = svc.Update(ctx, first.ID, domain.TicketPatch{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
