package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// multipartOverhead is room for the milestoneId field and part headers on top
// of the video size limit.
const multipartOverhead = 1 << 20

// maxMemory is how much of a multipart body is held in memory before spilling
// to temporary files.
const maxMemory = 32 << 20

// AnalyzeHandler serves POST /api/analyze.
type AnalyzeHandler struct {
	analysisService services.AnalysisService
	maxUploadBytes  int64
	logger          *zap.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analysisService services.AnalysisService, maxUploadBytes int64, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisService: analysisService,
		maxUploadBytes:  maxUploadBytes,
		logger:          logger,
	}
}

// RegisterRoutes registers the analyze route behind API key authentication.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/analyze", authMiddleware.RequireAPIKey(h.Analyze))
}

// Analyze handles POST /api/analyze with multipart fields milestoneId and video.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req := h.readRequest(w, r)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	result, err := h.analysisService.Analyze(r.Context(), req)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write analysis response", zap.Error(err))
	}
}

// readRequest extracts the raw fields. Problems with the body leave the
// corresponding field unset so that validation reports them.
func (h *AnalyzeHandler) readRequest(w http.ResponseWriter, r *http.Request) *services.AnalysisRequest {
	req := &services.AnalysisRequest{}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Debug("Upload exceeds size limit", zap.Int64("limit", h.maxUploadBytes))
		} else {
			h.logger.Debug("Failed to parse multipart form", zap.Error(err))
		}
		return req
	}

	if values := r.MultipartForm.Value["milestoneId"]; len(values) > 0 {
		req.MilestoneID = values[0]
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		return req
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return req
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil || int64(len(data)) > h.maxUploadBytes {
		return req
	}

	req.Video = &services.VideoUpload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	return req
}

func (h *AnalyzeHandler) writeAnalysisError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := services.MsgInternal

	if ae, ok := services.AsAnalysisError(err); ok {
		message = ae.PublicMessage()
		switch ae.Kind {
		case services.KindInvalidInput:
			status = http.StatusBadRequest
		case services.KindNotFound:
			status = http.StatusNotFound
		}
	} else {
		h.logger.Error("Unclassified analysis failure", zap.Error(err))
	}

	if err := WriteJSON(w, status, map[string]string{"error": message}); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
