package shipment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// Status is the shipment lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusDraft, StatusConfirmed, StatusInTransit, StatusDelivered, StatusCanceled:
		return Status(raw), nil
	}
	return "", fmt.Errorf("unknown shipment status %q", raw)
}

func statusRank(s Status) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusConfirmed:
		return 1
	case StatusInTransit:
		return 2
	case StatusDelivered:
		return 3
	case StatusCanceled:
		return -1
	default:
		return -2
	}
}

// CanTransition reports whether a shipment may move from one status to
// another. The lifecycle only moves forward; cancellation is allowed from
// any state that has not reached a terminal one.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if to == StatusCanceled {
		return from != StatusDelivered && from != StatusCanceled
	}
	if from == StatusCanceled {
		return false
	}
	return statusRank(to) == statusRank(from)+1
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Item is a persisted shipment line with its pricing provenance. TierID is
// nil for rows priced while no tier covered them.
type Item struct {
	ID            uuid.UUID
	ShipmentID    uuid.UUID
	Position      int
	Description   string
	Category      tariff.Category
	Weight        decimal.Decimal
	Quantity      int
	DeclaredValue decimal.Decimal
	ItemCost      decimal.Decimal
	TierID        *uuid.UUID
	Resolved      bool
}

// Shipment is a priced shipment record.
type Shipment struct {
	ID         uuid.UUID
	Reference  string
	Status     Status
	TotalCost  decimal.Decimal
	Items      []Item
	Unresolved int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RepricedAt *time.Time
}
