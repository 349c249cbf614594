package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// PolicyListResponse for GET /api/admin/policies
type PolicyListResponse struct {
	Policies []*models.Policy `json:"policies"`
	Total    int              `json:"total"`
}

// PolicyHandler handles policy admin requests.
type PolicyHandler struct {
	policyService services.PolicyService
	logger        *zap.Logger
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(policyService services.PolicyService, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		policyService: policyService,
		logger:        logger,
	}
}

// RegisterRoutes registers the policy handler's routes on the given mux.
func (h *PolicyHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/admin/policies"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("GET "+base+"/{id}", authMiddleware.RequireAdmin(h.Get))
	mux.HandleFunc("PUT "+base+"/{id}", authMiddleware.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAdmin(h.Delete))
	mux.HandleFunc("POST "+base+"/{id}/default", authMiddleware.RequireAdmin(h.SetDefault))
}

// List handles GET /api/admin/policies
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policyService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_policies_failed", "")
		return
	}

	writeOK(w, http.StatusOK, PolicyListResponse{Policies: policies, Total: len(policies)}, h.logger)
}

// Create handles POST /api/admin/policies
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.PolicyInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	policy, err := h.policyService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create_policy_failed", "Policy not found")
		return
	}

	writeOK(w, http.StatusCreated, policy, h.logger)
}

// Get handles GET /api/admin/policies/{id}
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePolicyID(w, r, h.logger)
	if !ok {
		return
	}

	policy, err := h.policyService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_policy_failed", "Policy not found")
		return
	}

	writeOK(w, http.StatusOK, policy, h.logger)
}

// Update handles PUT /api/admin/policies/{id}
// is_default in the body is ignored; use POST /api/admin/policies/{id}/default.
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePolicyID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.PolicyInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	policy, err := h.policyService.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_policy_failed", "Policy not found")
		return
	}

	writeOK(w, http.StatusOK, policy, h.logger)
}

// Delete handles DELETE /api/admin/policies/{id}
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePolicyID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.policyService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_policy_failed", "Policy not found")
		return
	}

	writeOK(w, http.StatusOK, nil, h.logger)
}

// SetDefault handles POST /api/admin/policies/{id}/default
func (h *PolicyHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, ok := ParsePolicyID(w, r, h.logger)
	if !ok {
		return
	}

	policy, err := h.policyService.SetDefault(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "set_default_policy_failed", "Policy not found")
		return
	}

	writeOK(w, http.StatusOK, policy, h.logger)
}
