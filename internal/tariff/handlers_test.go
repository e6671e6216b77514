package tariff_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/quote"
	"github.com/noah-isme/backend-kargo/internal/tariff"
)

func newAdminHandler(t *testing.T) (*tariff.Handler, *tariff.Service) {
	t.Helper()
	svc, err := tariff.NewService(tariff.ServiceConfig{Store: newFakeTierStore()})
	require.NoError(t, err)
	return &tariff.Handler{Service: svc, Pricer: quote.NewService()}, svc
}

func withTierID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestHandlerCreateAndGet(t *testing.T) {
	handler, _ := newAdminHandler(t)

	body := `{"category":"home","minWeight":"0","maxWeight":"5","pricePerKg":"2,50","baseCharge":1}`
	req := httptest.NewRequest(http.MethodPost, "/admin/tariffs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data tariff.TierDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "home", created.Data.Category)
	require.Equal(t, "2.50", created.Data.PricePerKg.StringFixed(2))

	getReq := withTierID(httptest.NewRequest(http.MethodGet, "/admin/tariffs/"+created.Data.ID, nil), created.Data.ID)
	getRec := httptest.NewRecorder()
	handler.Get(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
}

func TestHandlerCreateValidation(t *testing.T) {
	handler, _ := newAdminHandler(t)

	body := `{"category":"furniture","minWeight":"0","maxWeight":"5"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/tariffs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandlerGetUnknownID(t *testing.T) {
	handler, _ := newAdminHandler(t)

	req := withTierID(httptest.NewRequest(http.MethodGet, "/admin/tariffs/not-a-uuid", nil), "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCoverage(t *testing.T) {
	handler, svc := newAdminHandler(t)
	_, err := svc.Create(context.Background(), tariff.TierInput{
		Category:  "sports",
		MinWeight: value(t, "3"),
		MaxWeight: value(t, "10"),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/tariffs/coverage", nil)
	rec := httptest.NewRecorder()
	handler.Coverage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []tariff.CoverageIssue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, tariff.IssueGap, resp.Data[0].Kind)
}

func TestHandlerPreview(t *testing.T) {
	handler, svc := newAdminHandler(t)
	_, err := svc.Create(context.Background(), tariff.TierInput{
		Category:   "home",
		MinWeight:  value(t, "0"),
		MaxWeight:  value(t, "5"),
		PricePerKg: value(t, "2.50"),
		BaseCharge: value(t, "1.25"),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/tariffs/preview", strings.NewReader(`{"category":"home"}`))
	rec := httptest.NewRecorder()
	handler.Preview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []tariff.PreviewEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.True(t, resp.Data[0].Covered)
	require.NotNil(t, resp.Data[0].SampleCost)
	require.Equal(t, "3.75", resp.Data[0].SampleCost.StringFixed(2))
}

func TestHandlerPreviewAllCategories(t *testing.T) {
	handler, _ := newAdminHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/tariffs/preview", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.Preview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []tariff.PreviewEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 5)
	for _, entry := range resp.Data {
		require.False(t, entry.Covered)
	}
}
