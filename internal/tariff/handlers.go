package tariff

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/common"
	"github.com/noah-isme/backend-kargo/internal/money"
)

// Previewer computes a sample cost for a category against a snapshot. The
// quote engine satisfies this without the tariff package importing it.
type Previewer interface {
	Preview(category Category, snapshot []Tier) (decimal.Decimal, *Tier, bool)
}

// Handler exposes the tariff administration endpoints.
type Handler struct {
	Service *Service
	Pricer  Previewer
}

// TierDTO is the API shape of a tariff tier.
type TierDTO struct {
	ID         string      `json:"id"`
	Category   string      `json:"category"`
	MinWeight  money.Value `json:"minWeight"`
	MaxWeight  money.Value `json:"maxWeight"`
	PricePerKg money.Value `json:"pricePerKg"`
	BaseCharge money.Value `json:"baseCharge"`
	Active     bool        `json:"active"`
}

func toTierDTO(tier Tier) TierDTO {
	return TierDTO{
		ID:         tier.ID.String(),
		Category:   string(tier.Category),
		MinWeight:  money.NewValue(tier.MinWeight),
		MaxWeight:  money.NewValue(tier.MaxWeight),
		PricePerKg: money.NewValue(tier.PricePerKg),
		BaseCharge: money.NewValue(tier.BaseCharge),
		Active:     tier.Active,
	}
}

// List handles GET /admin/tariffs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "tariff service not configured", nil)
		return
	}
	filter := ListFilter{ActiveOnly: r.URL.Query().Get("active") == "true"}
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := ParseCategory(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
			return
		}
		filter.Category = &category
	}
	filter.Page, filter.PerPage = common.ParsePagination(r, 50, 200)

	tiers, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	items := make([]TierDTO, 0, len(tiers))
	for _, tier := range tiers {
		items = append(items, toTierDTO(tier))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: filter.Page, PerPage: filter.PerPage, TotalItems: int(total)},
	})
}

// Get handles GET /admin/tariffs/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tierID(w, r)
	if !ok {
		return
	}
	tier, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toTierDTO(tier)})
}

// Create handles POST /admin/tariffs.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input TierInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid json payload", nil)
		return
	}
	tier, err := h.Service.Create(r.Context(), input)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toTierDTO(tier)})
}

// Update handles PUT /admin/tariffs/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tierID(w, r)
	if !ok {
		return
	}
	var input TierInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid json payload", nil)
		return
	}
	tier, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toTierDTO(tier)})
}

// Deactivate handles DELETE /admin/tariffs/{id}. Tiers are retired, not
// erased, so past shipments keep their pricing provenance.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tierID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Deactivate(r.Context(), id); err != nil {
		common.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Coverage handles GET /admin/tariffs/coverage.
func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "tariff service not configured", nil)
		return
	}
	issues, err := h.Service.Coverage(r.Context())
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	if issues == nil {
		issues = []CoverageIssue{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": issues})
}

type previewRequest struct {
	Category string `json:"category"`
}

// PreviewEntry is the per-category sample cost returned by Preview.
type PreviewEntry struct {
	Category   string       `json:"category"`
	Covered    bool         `json:"covered"`
	SampleCost *money.Value `json:"sampleCost,omitempty"`
	Tier       *TierDTO     `json:"tier,omitempty"`
}

// Preview handles POST /admin/tariffs/preview: the cost of a one kilogram
// sample item, for one category or all of them.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Pricer == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "tariff service not configured", nil)
		return
	}
	var req previewRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid json payload", nil)
		return
	}
	categories := Categories()
	if raw := strings.TrimSpace(req.Category); raw != "" {
		category, err := ParseCategory(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
			return
		}
		categories = []Category{category}
	}
	snapshot, err := h.Service.ActiveSnapshot(r.Context())
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	entries := make([]PreviewEntry, 0, len(categories))
	for _, category := range categories {
		entry := PreviewEntry{Category: string(category)}
		if cost, tier, ok := h.Pricer.Preview(category, snapshot); ok {
			entry.Covered = true
			sample := money.NewValue(cost)
			entry.SampleCost = &sample
			dto := toTierDTO(*tier)
			entry.Tier = &dto
		}
		entries = append(entries, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (h *Handler) tierID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "tariff service not configured", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid tariff id", nil)
		return uuid.Nil, false
	}
	return id, true
}
