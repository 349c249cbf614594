package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// ValidatorRequest for POST and PUT of validators.
type ValidatorRequest struct {
	Description string `json:"description"`
}

// ValidatorListResponse for GET /api/admin/milestones/{id}/validators
type ValidatorListResponse struct {
	Validators []*models.Validator `json:"validators"`
	Total      int                 `json:"total"`
}

// ValidatorHandler handles validator admin requests.
type ValidatorHandler struct {
	validatorService services.ValidatorService
	logger           *zap.Logger
}

// NewValidatorHandler creates a new validator handler.
func NewValidatorHandler(validatorService services.ValidatorService, logger *zap.Logger) *ValidatorHandler {
	return &ValidatorHandler{
		validatorService: validatorService,
		logger:           logger,
	}
}

// RegisterRoutes registers the validator handler's routes on the given mux.
func (h *ValidatorHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/admin/milestones/{id}/validators", authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("POST /api/admin/milestones/{id}/validators", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("PUT /api/admin/validators/{id}", authMiddleware.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE /api/admin/validators/{id}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/admin/milestones/{id}/validators
func (h *ValidatorHandler) List(w http.ResponseWriter, r *http.Request) {
	milestoneID, ok := ParseMilestoneID(w, r, h.logger)
	if !ok {
		return
	}

	validators, err := h.validatorService.ListByMilestone(r.Context(), milestoneID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_validators_failed", "Milestone not found")
		return
	}

	writeOK(w, http.StatusOK, ValidatorListResponse{Validators: validators, Total: len(validators)}, h.logger)
}

// Create handles POST /api/admin/milestones/{id}/validators
func (h *ValidatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	milestoneID, ok := ParseMilestoneID(w, r, h.logger)
	if !ok {
		return
	}

	var req ValidatorRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	validator, err := h.validatorService.Create(r.Context(), milestoneID, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "create_validator_failed", "Milestone not found")
		return
	}

	writeOK(w, http.StatusCreated, validator, h.logger)
}

// Update handles PUT /api/admin/validators/{id}
func (h *ValidatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseValidatorID(w, r, h.logger)
	if !ok {
		return
	}

	var req ValidatorRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	validator, err := h.validatorService.Update(r.Context(), id, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_validator_failed", "Validator not found")
		return
	}

	writeOK(w, http.StatusOK, validator, h.logger)
}

// Delete handles DELETE /api/admin/validators/{id}
func (h *ValidatorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseValidatorID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.validatorService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_validator_failed", "Validator not found")
		return
	}

	writeOK(w, http.StatusOK, nil, h.logger)
}
