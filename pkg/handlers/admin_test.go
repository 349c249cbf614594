package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

type adminFixture struct {
	mux        *http.ServeMux
	milestones *mockMilestoneService
	validators *mockValidatorService
	policies   *mockPolicyService
	prompts    *mockSystemPromptService
	keys       *mockAPIKeyService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		mux:        http.NewServeMux(),
		milestones: newMockMilestoneService(),
		policies:   &mockPolicyService{policies: map[int64]*models.Policy{}},
		prompts:    &mockSystemPromptService{},
		keys:       &mockAPIKeyService{keys: map[string]*models.APIKey{}},
	}
	f.validators = &mockValidatorService{milestones: f.milestones, validators: map[int64]*models.Validator{}}
	authMiddleware := newTestAuthMiddleware(f.keys)
	logger := zap.NewNop()

	NewMilestoneHandler(f.milestones, logger).RegisterRoutes(f.mux, authMiddleware)
	NewValidatorHandler(f.validators, logger).RegisterRoutes(f.mux, authMiddleware)
	NewPolicyHandler(f.policies, logger).RegisterRoutes(f.mux, authMiddleware)
	NewSystemPromptHandler(f.prompts, logger).RegisterRoutes(f.mux, authMiddleware)
	NewAPIKeyHandler(f.keys, logger).RegisterRoutes(f.mux, authMiddleware)
	return f
}

func (f *adminFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, ApiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := adminRequest(t, httptest.NewRequest(method, path, reader))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestAdmin_RequiresAdminToken(t *testing.T) {
	f := newAdminFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/milestones", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMilestoneHandler_CRUD(t *testing.T) {
	f := newAdminFixture()

	rec, resp := f.do(t, http.MethodPost, "/api/admin/milestones", map[string]any{"name": "Rolls over", "category": "GROSS_MOTOR"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = f.do(t, http.MethodGet, "/api/admin/milestones/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Rolls over", data["milestone"].(map[string]any)["name"])

	rec, _ = f.do(t, http.MethodPut, "/api/admin/milestones/1", map[string]any{"name": "Rolls both ways", "category": "GROSS_MOTOR"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rolls both ways", f.milestones.milestones[1].Name)

	rec, resp = f.do(t, http.MethodGet, "/api/admin/milestones", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, resp.Data.(map[string]any)["total"])

	rec, _ = f.do(t, http.MethodDelete, "/api/admin/milestones/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = f.do(t, http.MethodGet, "/api/admin/milestones/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", resp.Error)
	assert.Equal(t, "Milestone not found", resp.Message)
}

func TestMilestoneHandler_ValidationError(t *testing.T) {
	f := newAdminFixture()

	rec, resp := f.do(t, http.MethodPost, "/api/admin/milestones", map[string]any{"name": "Sleeps", "category": "SLEEP"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "validation_error", resp.Error)
}

func TestMilestoneHandler_BadInput(t *testing.T) {
	f := newAdminFixture()

	rec, resp := f.do(t, http.MethodGet, "/api/admin/milestones/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_milestone_id", resp.Error)

	req := adminRequest(t, httptest.NewRequest(http.MethodPost, "/api/admin/milestones", bytes.NewBufferString("{")))
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyHandler_SetDefault(t *testing.T) {
	f := newAdminFixture()

	for _, name := range []string{"strict", "lenient"} {
		rec, _ := f.do(t, http.MethodPost, "/api/admin/policies", map[string]any{"name": name, "min_validators_passed": 80, "min_confidence": 70})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, _ := f.do(t, http.MethodPost, "/api/admin/policies/1/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodPost, "/api/admin/policies/2/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, f.policies.policies[1].IsDefault)
	assert.True(t, f.policies.policies[2].IsDefault)

	rec, _ = f.do(t, http.MethodPost, "/api/admin/policies/9/default", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPolicyHandler_RejectsOutOfRangeThresholds(t *testing.T) {
	f := newAdminFixture()

	rec, resp := f.do(t, http.MethodPost, "/api/admin/policies", map[string]any{"min_validators_passed": 101, "min_confidence": 50})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", resp.Error)
}

func TestPolicyHandler_InternalErrorIsGeneric(t *testing.T) {
	f := newAdminFixture()
	f.policies.err = assert.AnError

	rec, resp := f.do(t, http.MethodGet, "/api/admin/policies", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "list_policies_failed", resp.Error)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestSystemPromptHandler_CreateCurrentRestore(t *testing.T) {
	f := newAdminFixture()

	rec, resp := f.do(t, http.MethodGet, "/api/admin/system-prompts/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No system prompt configured", resp.Message)

	rec, _ = f.do(t, http.MethodPost, "/api/admin/system-prompts", map[string]any{"content": "v1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = f.do(t, http.MethodPost, "/api/admin/system-prompts", map[string]any{"content": "v2", "change_note": "tighten"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin", f.prompts.snapshots[1].CreatedBy)

	// Restore with no body.
	rec, resp = f.do(t, http.MethodPost, "/api/admin/system-prompts/1/restore", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	restored := resp.Data.(map[string]any)
	assert.Equal(t, "v1", restored["content"])
	assert.Equal(t, "Restored from version 1", restored["change_note"])

	rec, resp = f.do(t, http.MethodGet, "/api/admin/system-prompts/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, resp.Data.(map[string]any)["id"])

	rec, resp = f.do(t, http.MethodGet, "/api/admin/system-prompts?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, f.prompts.lastLimit)
	snapshots := resp.Data.(map[string]any)["snapshots"].([]any)
	assert.EqualValues(t, 3, snapshots[0].(map[string]any)["id"])

	rec, _ = f.do(t, http.MethodGet, "/api/admin/system-prompts?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/admin/system-prompts/99/restore", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyHandler_CreateListRevoke(t *testing.T) {
	f := newAdminFixture()

	rec, resp := f.do(t, http.MethodPost, "/api/admin/api-keys", map[string]any{"name": "clinic"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := resp.Data.(map[string]any)
	assert.Equal(t, "abcdef12secret", created["key"])
	assert.Equal(t, "abcdef12", created["prefix"])
	assert.NotContains(t, created, "KeyHash")
	id := created["id"].(string)

	rec, resp = f.do(t, http.MethodGet, "/api/admin/api-keys", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, resp.Data.(map[string]any)["total"])

	rec, _ = f.do(t, http.MethodDelete, "/api/admin/api-keys/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodDelete, "/api/admin/api-keys/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = f.do(t, http.MethodDelete, "/api/admin/api-keys/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_api_key_id", resp.Error)

	rec, _ = f.do(t, http.MethodPost, "/api/admin/api-keys", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidatorHandler(t *testing.T) {
	f := newAdminFixture()
	rec, _ := f.do(t, http.MethodPost, "/api/admin/milestones", map[string]any{"name": "Points at objects", "category": "LANGUAGE"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := f.do(t, http.MethodPost, "/api/admin/milestones/1/validators", map[string]any{"description": "Extends index finger"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 1, resp.Data.(map[string]any)["milestone_id"])

	rec, resp = f.do(t, http.MethodGet, "/api/admin/milestones/1/validators", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, resp.Data.(map[string]any)["total"])

	rec, _ = f.do(t, http.MethodPut, "/api/admin/validators/1", map[string]any{"description": "Looks back at caregiver"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Looks back at caregiver", f.validators.validators[1].Description)

	rec, resp = f.do(t, http.MethodPost, "/api/admin/milestones/7/validators", map[string]any{"description": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Milestone not found", resp.Message)

	rec, _ = f.do(t, http.MethodDelete, "/api/admin/validators/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, resp = f.do(t, http.MethodDelete, "/api/admin/validators/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Validator not found", resp.Message)
}
