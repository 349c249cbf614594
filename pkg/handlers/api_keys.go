package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// CreateAPIKeyRequest for POST /api/admin/api-keys
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// APIKeyListResponse for GET /api/admin/api-keys
type APIKeyListResponse struct {
	Keys  []*models.APIKey `json:"keys"`
	Total int              `json:"total"`
}

// APIKeyHandler handles API key management requests.
type APIKeyHandler struct {
	apiKeyService services.APIKeyService
	logger        *zap.Logger
}

// NewAPIKeyHandler creates a new API key handler.
func NewAPIKeyHandler(apiKeyService services.APIKeyService, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
		logger:        logger,
	}
}

// RegisterRoutes registers the API key handler's routes on the given mux.
func (h *APIKeyHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/admin/api-keys"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAdmin(h.Revoke))
}

// List handles GET /api/admin/api-keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.apiKeyService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_api_keys_failed", "")
		return
	}

	writeOK(w, http.StatusOK, APIKeyListResponse{Keys: keys, Total: len(keys)}, h.logger)
}

// Create handles POST /api/admin/api-keys
// The plaintext key is only ever returned in this response.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	created, err := h.apiKeyService.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, h.logger, err, "create_api_key_failed", "")
		return
	}

	writeOK(w, http.StatusCreated, created, h.logger)
}

// Revoke handles DELETE /api/admin/api-keys/{id}
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseAPIKeyID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.apiKeyService.Revoke(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "revoke_api_key_failed", "API key not found or already revoked")
		return
	}

	writeOK(w, http.StatusOK, nil, h.logger)
}
