package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// MilestoneListResponse for GET /api/admin/milestones
type MilestoneListResponse struct {
	Milestones []*models.Milestone `json:"milestones"`
	Total      int                 `json:"total"`
}

// MilestoneHandler handles milestone admin requests.
type MilestoneHandler struct {
	milestoneService services.MilestoneService
	logger           *zap.Logger
}

// NewMilestoneHandler creates a new milestone handler.
func NewMilestoneHandler(milestoneService services.MilestoneService, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneService: milestoneService,
		logger:           logger,
	}
}

// RegisterRoutes registers the milestone handler's routes on the given mux.
func (h *MilestoneHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/admin/milestones"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("GET "+base+"/{id}", authMiddleware.RequireAdmin(h.Get))
	mux.HandleFunc("PUT "+base+"/{id}", authMiddleware.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/admin/milestones
func (h *MilestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.milestoneService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_milestones_failed", "")
		return
	}

	writeOK(w, http.StatusOK, MilestoneListResponse{Milestones: milestones, Total: len(milestones)}, h.logger)
}

// Create handles POST /api/admin/milestones
func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.MilestoneInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	milestone, err := h.milestoneService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create_milestone_failed", "Milestone not found")
		return
	}

	writeOK(w, http.StatusCreated, milestone, h.logger)
}

// Get handles GET /api/admin/milestones/{id}
// The response includes validators and the effective policy.
func (h *MilestoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseMilestoneID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.milestoneService.GetDetail(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_milestone_failed", "Milestone not found")
		return
	}

	writeOK(w, http.StatusOK, detail, h.logger)
}

// Update handles PUT /api/admin/milestones/{id}
func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseMilestoneID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.MilestoneInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	milestone, err := h.milestoneService.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_milestone_failed", "Milestone not found")
		return
	}

	writeOK(w, http.StatusOK, milestone, h.logger)
}

// Delete handles DELETE /api/admin/milestones/{id}
func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseMilestoneID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.milestoneService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_milestone_failed", "Milestone not found")
		return
	}

	writeOK(w, http.StatusOK, nil, h.logger)
}
