package shipment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-kargo/internal/common"
	"github.com/noah-isme/backend-kargo/internal/events"
	"github.com/noah-isme/backend-kargo/internal/obs"
	"github.com/noah-isme/backend-kargo/internal/quote"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// Publisher decouples the service from the event bus wiring.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

// Service orchestrates shipment creation, lifecycle and repricing.
type Service struct {
	store    ShipmentStore
	quotes   *quote.Service
	snapshot quote.SnapshotProvider
	bus      Publisher
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    ShipmentStore
	Quotes   *quote.Service
	Snapshot quote.SnapshotProvider
	Bus      Publisher
}

// NewService constructs a shipment Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("shipment: store is required")
	}
	if cfg.Quotes == nil {
		return nil, errors.New("shipment: quote service is required")
	}
	if cfg.Snapshot == nil {
		return nil, errors.New("shipment: snapshot provider is required")
	}
	return &Service{store: cfg.Store, quotes: cfg.Quotes, snapshot: cfg.Snapshot, bus: cfg.Bus}, nil
}

// Create prices the raw line items against the current tariff snapshot and
// persists the shipment with its per-item breakdown. Items the pricing
// engine could not resolve are stored as unresolved rows rather than
// rejected, so a later tariff fix can reprice them.
func (s *Service) Create(ctx context.Context, rawItems []quote.RawLineItem) (Shipment, error) {
	snapshot, err := s.snapshot.ActiveSnapshot(ctx)
	if err != nil {
		return Shipment{}, fmt.Errorf("load tariff snapshot: %w", err)
	}
	result, err := s.quotes.ComputeCost(ctx, rawItems, snapshot)
	if err != nil {
		return Shipment{}, err
	}
	if len(result.Entries) == 0 {
		return Shipment{}, common.NewAppError(common.CodeValidation, "no valid line items", http.StatusBadRequest, nil)
	}

	id := uuid.New()
	sh := Shipment{
		ID:        id,
		Reference: newReference(id),
		Status:    StatusDraft,
		TotalCost: result.TotalCost,
		Items:     itemsFromEntries(id, result.Entries),
	}
	created, err := s.store.Create(ctx, sh)
	if err != nil {
		return Shipment{}, err
	}
	obs.IncShipmentCreated()
	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicShipmentCreated, map[string]any{
			"id":         created.ID.String(),
			"totalCost":  created.TotalCost.StringFixed(2),
			"unresolved": created.Unresolved,
		})
	}
	return created, nil
}

// Get fetches a shipment with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Shipment, error) {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return Shipment{}, s.mapStoreError(err)
	}
	return sh, nil
}

// List returns shipments matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Shipment, int64, error) {
	return s.store.List(ctx, filter)
}

// UpdateStatus moves a shipment through its lifecycle, enforcing the
// draft→confirmed→in_transit→delivered order with cancellation allowed from
// any non-terminal state.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target Status) (Shipment, error) {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return Shipment{}, s.mapStoreError(err)
	}
	if !CanTransition(sh.Status, target) {
		return Shipment{}, common.NewAppError(common.CodeConflict,
			fmt.Sprintf("cannot transition shipment from %s to %s", sh.Status, target),
			http.StatusConflict, nil)
	}
	if err := s.store.UpdateStatus(ctx, id, target); err != nil {
		return Shipment{}, s.mapStoreError(err)
	}
	sh.Status = target
	return sh, nil
}

// Reprice recomputes every item of a shipment against the current tariff
// snapshot. Terminal shipments keep their historical pricing.
func (s *Service) Reprice(ctx context.Context, id uuid.UUID) (Shipment, error) {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		obs.IncShipmentReprice("error")
		return Shipment{}, s.mapStoreError(err)
	}
	if sh.Status.Terminal() {
		obs.IncShipmentReprice("rejected")
		return Shipment{}, common.NewAppError(common.CodeConflict,
			fmt.Sprintf("cannot reprice a %s shipment", sh.Status),
			http.StatusConflict, nil)
	}
	snapshot, err := s.snapshot.ActiveSnapshot(ctx)
	if err != nil {
		obs.IncShipmentReprice("error")
		return Shipment{}, fmt.Errorf("load tariff snapshot: %w", err)
	}

	lineItems := make([]quote.LineItem, 0, len(sh.Items))
	for _, item := range sh.Items {
		lineItems = append(lineItems, quote.LineItem{
			Description:   item.Description,
			Category:      item.Category,
			Weight:        item.Weight,
			Quantity:      item.Quantity,
			DeclaredValue: item.DeclaredValue,
		})
	}
	result, err := quote.Aggregate(lineItems, tariff.NewTable(snapshot))
	if err != nil {
		obs.IncShipmentReprice("error")
		return Shipment{}, err
	}
	// Stored items were validated on create, so entries line up 1:1.
	for i := range sh.Items {
		entry := result.Entries[i]
		sh.Items[i].ItemCost = entry.ItemCost
		sh.Items[i].Resolved = entry.Tier != nil
		sh.Items[i].TierID = nil
		if entry.Tier != nil {
			tierID := entry.Tier.ID
			sh.Items[i].TierID = &tierID
		}
	}
	sh.TotalCost = result.TotalCost

	repriced, err := s.store.Reprice(ctx, sh)
	if err != nil {
		obs.IncShipmentReprice("error")
		return Shipment{}, s.mapStoreError(err)
	}
	obs.IncShipmentReprice("ok")
	if s.bus != nil {
		s.bus.Publish(ctx, events.TopicShipmentRepriced, map[string]any{
			"id":         repriced.ID.String(),
			"totalCost":  repriced.TotalCost.StringFixed(2),
			"unresolved": repriced.Unresolved,
		})
	}
	return repriced, nil
}

func (s *Service) mapStoreError(err error) error {
	if errors.Is(err, ErrShipmentNotFound) {
		return common.NotFound("shipment not found", err)
	}
	return err
}

func itemsFromEntries(shipmentID uuid.UUID, entries []quote.BreakdownEntry) []Item {
	items := make([]Item, 0, len(entries))
	for i, entry := range entries {
		item := Item{
			ID:            uuid.New(),
			ShipmentID:    shipmentID,
			Position:      i,
			Description:   entry.Item.Description,
			Category:      entry.Item.Category,
			Weight:        entry.Item.Weight,
			Quantity:      entry.Item.Quantity,
			DeclaredValue: entry.Item.DeclaredValue,
			ItemCost:      entry.ItemCost,
			Resolved:      entry.Tier != nil,
		}
		if entry.Tier != nil {
			tierID := entry.Tier.ID
			item.TierID = &tierID
		}
		items = append(items, item)
	}
	return items
}

func newReference(id uuid.UUID) string {
	return "SHP-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:10])
}
