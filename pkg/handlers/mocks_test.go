package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/auth"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

const testAdminToken = "test-admin-token"

// mockAnalysisService records the request it was given.
type mockAnalysisService struct {
	lastRequest *services.AnalysisRequest
	result      *models.AnalysisResult
	err         error
}

func (m *mockAnalysisService) Analyze(ctx context.Context, req *services.AnalysisRequest) (*models.AnalysisResult, error) {
	m.lastRequest = req
	return m.result, m.err
}

// mockMilestoneService implements services.MilestoneService for testing.
type mockMilestoneService struct {
	milestones map[int64]*models.Milestone
	createErr  error
	nextID     int64
}

func newMockMilestoneService() *mockMilestoneService {
	return &mockMilestoneService{milestones: map[int64]*models.Milestone{}, nextID: 1}
}

func (m *mockMilestoneService) Create(ctx context.Context, input *services.MilestoneInput) (*models.Milestone, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	category, err := models.ParseMilestoneCategory(input.Category)
	if err != nil {
		return nil, apperrors.ErrInvalidInput
	}
	ms := &models.Milestone{ID: m.nextID, Name: input.Name, Category: category, PolicyID: input.PolicyID}
	m.milestones[ms.ID] = ms
	m.nextID++
	return ms, nil
}

func (m *mockMilestoneService) Get(ctx context.Context, id int64) (*models.Milestone, error) {
	ms, ok := m.milestones[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ms, nil
}

func (m *mockMilestoneService) GetDetail(ctx context.Context, id int64) (*services.MilestoneDetail, error) {
	ms, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &services.MilestoneDetail{Milestone: ms, Validators: []*models.Validator{}}, nil
}

func (m *mockMilestoneService) List(ctx context.Context) ([]*models.Milestone, error) {
	out := make([]*models.Milestone, 0, len(m.milestones))
	for id := int64(1); id < m.nextID; id++ {
		if ms, ok := m.milestones[id]; ok {
			out = append(out, ms)
		}
	}
	return out, nil
}

func (m *mockMilestoneService) Update(ctx context.Context, id int64, input *services.MilestoneInput) (*models.Milestone, error) {
	ms, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ms.Name = input.Name
	return ms, nil
}

func (m *mockMilestoneService) Delete(ctx context.Context, id int64) error {
	if _, ok := m.milestones[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.milestones, id)
	return nil
}

// mockPolicyService implements services.PolicyService for testing.
type mockPolicyService struct {
	policies map[int64]*models.Policy
	err      error
}

func (m *mockPolicyService) Create(ctx context.Context, input *services.PolicyInput) (*models.Policy, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := &models.Policy{ID: int64(len(m.policies) + 1), Name: input.Name, MinValidatorsPassed: input.MinValidatorsPassed, MinConfidence: input.MinConfidence}
	if err := p.Validate(); err != nil {
		return nil, apperrors.ErrInvalidInput
	}
	m.policies[p.ID] = p
	return p, nil
}

func (m *mockPolicyService) Get(ctx context.Context, id int64) (*models.Policy, error) {
	p, ok := m.policies[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockPolicyService) List(ctx context.Context) ([]*models.Policy, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*models.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPolicyService) Update(ctx context.Context, id int64, input *services.PolicyInput) (*models.Policy, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.MinValidatorsPassed = input.MinValidatorsPassed
	p.MinConfidence = input.MinConfidence
	return p, nil
}

func (m *mockPolicyService) Delete(ctx context.Context, id int64) error {
	if _, ok := m.policies[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.policies, id)
	return nil
}

func (m *mockPolicyService) SetDefault(ctx context.Context, id int64) (*models.Policy, error) {
	target, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range m.policies {
		p.IsDefault = false
	}
	target.IsDefault = true
	return target, nil
}

// mockSystemPromptService implements services.SystemPromptService for testing.
type mockSystemPromptService struct {
	snapshots []*models.SystemPromptSnapshot
	lastLimit int
}

func (m *mockSystemPromptService) Create(ctx context.Context, content string, changeNote *string, createdBy string) (*models.SystemPromptSnapshot, error) {
	if content == "" {
		return nil, apperrors.ErrInvalidInput
	}
	s := &models.SystemPromptSnapshot{ID: int64(len(m.snapshots) + 1), Content: content, ChangeNote: changeNote, CreatedBy: createdBy}
	m.snapshots = append(m.snapshots, s)
	return s, nil
}

func (m *mockSystemPromptService) Current(ctx context.Context) (*models.SystemPromptSnapshot, error) {
	latest := models.LatestSnapshot(m.snapshots)
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return latest, nil
}

func (m *mockSystemPromptService) History(ctx context.Context, limit int) ([]*models.SystemPromptSnapshot, error) {
	m.lastLimit = limit
	out := make([]*models.SystemPromptSnapshot, 0, len(m.snapshots))
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		out = append(out, m.snapshots[i])
	}
	return out, nil
}

func (m *mockSystemPromptService) Restore(ctx context.Context, id int64, changeNote *string, createdBy string) (*models.SystemPromptSnapshot, error) {
	for _, s := range m.snapshots {
		if s.ID == id {
			note := changeNote
			if note == nil {
				restored := "Restored from version 1"
				note = &restored
			}
			return m.Create(ctx, s.Content, note, createdBy)
		}
	}
	return nil, apperrors.ErrNotFound
}

// mockAPIKeyService implements services.APIKeyService for testing.
type mockAPIKeyService struct {
	keys map[string]*models.APIKey
}

func (m *mockAPIKeyService) Create(ctx context.Context, name string) (*services.CreatedAPIKey, error) {
	if name == "" {
		return nil, apperrors.ErrInvalidInput
	}
	key := &models.APIKey{ID: uuid.New(), Name: name, Prefix: "abcdef12"}
	m.keys["abcdef12secret"] = key
	return &services.CreatedAPIKey{APIKey: key, Key: "abcdef12secret"}, nil
}

func (m *mockAPIKeyService) List(ctx context.Context) ([]*models.APIKey, error) {
	out := make([]*models.APIKey, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, k)
	}
	return out, nil
}

func (m *mockAPIKeyService) Revoke(ctx context.Context, id uuid.UUID) error {
	for _, k := range m.keys {
		if k.ID == id && k.RevokedAt == nil {
			now := k.CreatedAt
			k.RevokedAt = &now
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockAPIKeyService) Authenticate(ctx context.Context, plaintext string) (*models.APIKey, error) {
	k, ok := m.keys[plaintext]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if k.RevokedAt != nil {
		return nil, apperrors.ErrRevoked
	}
	return k, nil
}

func newTestAuthMiddleware(keys auth.KeyAuthenticator) *auth.Middleware {
	return auth.NewMiddleware(keys, nil, testAdminToken, zap.NewNop())
}

func adminRequest(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return req
}

// mockValidatorService implements services.ValidatorService for testing.
type mockValidatorService struct {
	milestones *mockMilestoneService
	validators map[int64]*models.Validator
}

func (m *mockValidatorService) Create(ctx context.Context, milestoneID int64, description string) (*models.Validator, error) {
	if _, err := m.milestones.Get(ctx, milestoneID); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperrors.ErrInvalidInput
	}
	v := &models.Validator{ID: int64(len(m.validators) + 1), MilestoneID: milestoneID, Description: description}
	m.validators[v.ID] = v
	return v, nil
}

func (m *mockValidatorService) ListByMilestone(ctx context.Context, milestoneID int64) ([]*models.Validator, error) {
	if _, err := m.milestones.Get(ctx, milestoneID); err != nil {
		return nil, err
	}
	out := []*models.Validator{}
	for id := int64(1); id <= int64(len(m.validators)); id++ {
		if v, ok := m.validators[id]; ok && v.MilestoneID == milestoneID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockValidatorService) Update(ctx context.Context, id int64, description string) (*models.Validator, error) {
	v, ok := m.validators[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	v.Description = description
	return v, nil
}

func (m *mockValidatorService) Delete(ctx context.Context, id int64) error {
	if _, ok := m.validators[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.validators, id)
	return nil
}
