package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseMilestoneID extracts the milestone ID from the request path.
// Expects path parameter: id
func ParseMilestoneID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_milestone_id", "Invalid milestone ID", logger)
}

// ParseValidatorID extracts the validator ID from the request path.
// Expects path parameter: id
func ParseValidatorID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_validator_id", "Invalid validator ID", logger)
}

// ParsePolicyID extracts the policy ID from the request path.
// Expects path parameter: id
func ParsePolicyID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_policy_id", "Invalid policy ID", logger)
}

// ParseSnapshotID extracts the system prompt snapshot ID from the request path.
// Expects path parameter: id
func ParseSnapshotID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_snapshot_id", "Invalid system prompt version", logger)
}

// ParseAPIKeyID extracts the API key ID from the request path.
// Expects path parameter: id
func ParseAPIKeyID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_api_key_id", "Invalid API key ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// parseInt64 parses a positive integer path parameter.
func parseInt64(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
