package auth

import (
	"net/http"

	"github.com/noah-isme/backend-kargo/internal/common"
)

// Handler exposes the credential exchange endpoint.
type Handler struct {
	Service *Service
}

type tokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// Token handles POST /api/v1/auth/token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth service not configured", nil)
		return
	}
	var req tokenRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid json payload", nil)
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "clientId and clientSecret are required", nil)
		return
	}
	result, err := h.Service.IssueToken(req.ClientID, req.ClientSecret)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
