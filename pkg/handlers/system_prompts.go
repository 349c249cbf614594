package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// CreateSystemPromptRequest for POST /api/admin/system-prompts
type CreateSystemPromptRequest struct {
	Content    string  `json:"content"`
	ChangeNote *string `json:"change_note,omitempty"`
}

// RestoreSystemPromptRequest for POST /api/admin/system-prompts/{id}/restore.
// The body is optional.
type RestoreSystemPromptRequest struct {
	ChangeNote *string `json:"change_note,omitempty"`
}

// SystemPromptListResponse for GET /api/admin/system-prompts
type SystemPromptListResponse struct {
	Snapshots []*models.SystemPromptSnapshot `json:"snapshots"`
	Total     int                            `json:"total"`
}

// SystemPromptHandler handles system prompt history requests.
type SystemPromptHandler struct {
	systemPromptService services.SystemPromptService
	logger              *zap.Logger
}

// NewSystemPromptHandler creates a new system prompt handler.
func NewSystemPromptHandler(systemPromptService services.SystemPromptService, logger *zap.Logger) *SystemPromptHandler {
	return &SystemPromptHandler{
		systemPromptService: systemPromptService,
		logger:              logger,
	}
}

// RegisterRoutes registers the system prompt handler's routes on the given mux.
func (h *SystemPromptHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/admin/system-prompts"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("GET "+base+"/current", authMiddleware.RequireAdmin(h.Current))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("POST "+base+"/{id}/restore", authMiddleware.RequireAdmin(h.Restore))
}

// List handles GET /api/admin/system-prompts?limit=N, newest first.
func (h *SystemPromptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		limit = parsed
	}

	snapshots, err := h.systemPromptService.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_system_prompts_failed", "")
		return
	}

	writeOK(w, http.StatusOK, SystemPromptListResponse{Snapshots: snapshots, Total: len(snapshots)}, h.logger)
}

// Current handles GET /api/admin/system-prompts/current
func (h *SystemPromptHandler) Current(w http.ResponseWriter, r *http.Request) {
	current, err := h.systemPromptService.Current(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "get_system_prompt_failed", "No system prompt configured")
		return
	}

	writeOK(w, http.StatusOK, current, h.logger)
}

// Create handles POST /api/admin/system-prompts
func (h *SystemPromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSystemPromptRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	snapshot, err := h.systemPromptService.Create(r.Context(), req.Content, req.ChangeNote, auth.GetActor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "create_system_prompt_failed", "")
		return
	}

	writeOK(w, http.StatusCreated, snapshot, h.logger)
}

// Restore handles POST /api/admin/system-prompts/{id}/restore
func (h *SystemPromptHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseSnapshotID(w, r, h.logger)
	if !ok {
		return
	}

	var req RestoreSystemPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	snapshot, err := h.systemPromptService.Restore(r.Context(), id, req.ChangeNote, auth.GetActor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "restore_system_prompt_failed", "System prompt version not found")
		return
	}

	writeOK(w, http.StatusCreated, snapshot, h.logger)
}
