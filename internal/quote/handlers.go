package quote

import (
	"context"
	"errors"
	"net/http"

	"github.com/noah-isme/backend-kargo/internal/common"
	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/obs"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// SnapshotProvider supplies the current active tariff tiers. A fresh
// snapshot is loaded per request so tariff edits never bleed into an
// in-flight computation.
type SnapshotProvider interface {
	ActiveSnapshot(ctx context.Context) ([]tariff.Tier, error)
}

// Handler exposes the public quoting endpoint.
type Handler struct {
	Service  *Service
	Snapshot SnapshotProvider
	MaxItems int
}

type quoteRequest struct {
	Items []RawLineItem `json:"items"`
}

// EntryDTO is the per-item breakdown returned to clients.
type EntryDTO struct {
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Weight        money.Value `json:"weight"`
	Quantity      int         `json:"quantity"`
	DeclaredValue money.Value `json:"declaredValue"`
	Tier          *TierRef    `json:"tier,omitempty"`
	ItemCost      money.Value `json:"itemCost"`
}

// TierRef identifies the tariff tier applied to an entry.
type TierRef struct {
	ID         string      `json:"id"`
	MinWeight  money.Value `json:"minWeight"`
	MaxWeight  money.Value `json:"maxWeight"`
	PricePerKg money.Value `json:"pricePerKg"`
	BaseCharge money.Value `json:"baseCharge"`
}

// ItemDTO is the compact line item shape used in unresolved listings.
type ItemDTO struct {
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Weight      money.Value `json:"weight"`
	Quantity    int         `json:"quantity"`
}

// ResultDTO is the full quote response payload.
type ResultDTO struct {
	Entries         []EntryDTO  `json:"entries"`
	TotalCost       money.Value `json:"totalCost"`
	UnresolvedItems []ItemDTO   `json:"unresolvedItems"`
}

// Create handles POST /api/v1/quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Snapshot == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote service not configured", nil)
		return
	}
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, money.ErrInvalidNumberFormat) {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidNumber, "numeric field could not be parsed", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid json payload", nil)
		return
	}
	if len(req.Items) == 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "items is required", nil)
		return
	}
	if h.MaxItems > 0 && len(req.Items) > h.MaxItems {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "too many line items", map[string]any{"max": h.MaxItems})
		return
	}

	snapshot, err := h.Snapshot.ActiveSnapshot(r.Context())
	if err != nil {
		obs.IncQuote("error")
		common.WriteAppError(w, err)
		return
	}

	result, err := h.Service.ComputeCost(r.Context(), req.Items, snapshot)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}
	if len(result.Unresolved) > 0 {
		obs.IncQuote("unresolved")
		obs.AddUnresolvedItems(len(result.Unresolved))
	} else {
		obs.IncQuote("ok")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ToResultDTO(result)})
}

func (h *Handler) writeComputeError(w http.ResponseWriter, err error) {
	var invalid *InvalidItemsError
	switch {
	case errors.As(err, &invalid):
		obs.IncQuote("invalid")
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidNumber, "one or more numeric fields could not be parsed", map[string]any{"fields": invalid.Fields})
	case errors.Is(err, ErrPrecondition):
		obs.IncQuote("error")
		common.JSONError(w, http.StatusInternalServerError, common.CodePrecondition, "caller contract violation", nil)
	default:
		obs.IncQuote("error")
		common.WriteAppError(w, err)
	}
}

// ToResultDTO converts an aggregation result into the response shape.
func ToResultDTO(result Result) ResultDTO {
	dto := ResultDTO{
		Entries:         make([]EntryDTO, 0, len(result.Entries)),
		TotalCost:       money.NewValue(result.TotalCost),
		UnresolvedItems: make([]ItemDTO, 0, len(result.Unresolved)),
	}
	for _, entry := range result.Entries {
		e := EntryDTO{
			Description:   entry.Item.Description,
			Category:      string(entry.Item.Category),
			Weight:        money.NewValue(entry.Item.Weight),
			Quantity:      entry.Item.Quantity,
			DeclaredValue: money.NewValue(entry.Item.DeclaredValue),
			ItemCost:      money.NewValue(entry.ItemCost),
		}
		if entry.Tier != nil {
			e.Tier = &TierRef{
				ID:         entry.Tier.ID.String(),
				MinWeight:  money.NewValue(entry.Tier.MinWeight),
				MaxWeight:  money.NewValue(entry.Tier.MaxWeight),
				PricePerKg: money.NewValue(entry.Tier.PricePerKg),
				BaseCharge: money.NewValue(entry.Tier.BaseCharge),
			}
		}
		dto.Entries = append(dto.Entries, e)
	}
	for _, item := range result.Unresolved {
		dto.UnresolvedItems = append(dto.UnresolvedItems, ItemDTO{
			Description: item.Description,
			Category:    string(item.Category),
			Weight:      money.NewValue(item.Weight),
			Quantity:    item.Quantity,
		})
	}
	return dto
}
