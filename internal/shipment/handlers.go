package shipment

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-kargo/internal/common"
	"github.com/noah-isme/backend-kargo/internal/money"
	"github.com/noah-isme/backend-kargo/internal/quote"
)

// Handler exposes the shipment endpoints.
type Handler struct {
	Service  *Service
	MaxItems int
}

type createRequest struct {
	Items []quote.RawLineItem `json:"items"`
}

// ItemDTO is the API shape of a shipment line.
type ItemDTO struct {
	ID            string      `json:"id"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Weight        money.Value `json:"weight"`
	Quantity      int         `json:"quantity"`
	DeclaredValue money.Value `json:"declaredValue"`
	ItemCost      money.Value `json:"itemCost"`
	TierID        *string     `json:"tierId,omitempty"`
	Resolved      bool        `json:"resolved"`
}

// ShipmentDTO is the API shape of a shipment.
type ShipmentDTO struct {
	ID         string      `json:"id"`
	Reference  string      `json:"reference"`
	Status     string      `json:"status"`
	TotalCost  money.Value `json:"totalCost"`
	Unresolved int         `json:"unresolvedItems"`
	Items      []ItemDTO   `json:"items,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	RepricedAt *time.Time  `json:"repricedAt,omitempty"`
}

func toShipmentDTO(sh Shipment) ShipmentDTO {
	dto := ShipmentDTO{
		ID:         sh.ID.String(),
		Reference:  sh.Reference,
		Status:     string(sh.Status),
		TotalCost:  money.NewValue(sh.TotalCost),
		Unresolved: sh.Unresolved,
		CreatedAt:  sh.CreatedAt,
		UpdatedAt:  sh.UpdatedAt,
		RepricedAt: sh.RepricedAt,
	}
	for _, item := range sh.Items {
		entry := ItemDTO{
			ID:            item.ID.String(),
			Description:   item.Description,
			Category:      string(item.Category),
			Weight:        money.NewValue(item.Weight),
			Quantity:      item.Quantity,
			DeclaredValue: money.NewValue(item.DeclaredValue),
			ItemCost:      money.NewValue(item.ItemCost),
			Resolved:      item.Resolved,
		}
		if item.TierID != nil {
			id := item.TierID.String()
			entry.TierID = &id
		}
		dto.Items = append(dto.Items, entry)
	}
	return dto
}

// Create handles POST /api/v1/shipments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shipment service not configured", nil)
		return
	}
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
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
	sh, err := h.Service.Create(r.Context(), req.Items)
	if err != nil {
		writeCreateError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toShipmentDTO(sh)})
}

func writeCreateError(w http.ResponseWriter, err error) {
	var invalid *quote.InvalidItemsError
	switch {
	case errors.As(err, &invalid):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidNumber, "one or more numeric fields could not be parsed", map[string]any{"fields": invalid.Fields})
	case errors.Is(err, quote.ErrPrecondition):
		common.JSONError(w, http.StatusInternalServerError, common.CodePrecondition, "caller contract violation", nil)
	default:
		common.WriteAppError(w, err)
	}
}

// List handles GET /api/v1/shipments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shipment service not configured", nil)
		return
	}
	filter := ListFilter{}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PerPage = common.ParsePagination(r, 20, 100)

	shipments, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	items := make([]ShipmentDTO, 0, len(shipments))
	for _, sh := range shipments {
		items = append(items, toShipmentDTO(sh))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: filter.Page, PerPage: filter.PerPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/shipments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	sh, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toShipmentDTO(sh)})
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus handles PATCH /admin/shipments/{id}/status.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	var req patchStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid json payload", nil)
		return
	}
	target, err := ParseStatus(req.Status)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	sh, err := h.Service.UpdateStatus(r.Context(), id, target)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toShipmentDTO(sh)})
}

// Reprice handles POST /admin/shipments/{id}/reprice.
func (h *Handler) Reprice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.shipmentID(w, r)
	if !ok {
		return
	}
	sh, err := h.Service.Reprice(r.Context(), id)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toShipmentDTO(sh)})
}

func (h *Handler) shipmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shipment service not configured", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid shipment id", nil)
		return uuid.Nil, false
	}
	return id, true
}
