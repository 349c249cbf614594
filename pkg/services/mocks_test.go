package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
)

// mockMilestoneRepo is an in-memory MilestoneRepository.
type mockMilestoneRepo struct {
	mu         sync.Mutex
	milestones map[int64]*models.Milestone
	nextID     int64
	getErr     error
}

func newMockMilestoneRepo(milestones ...*models.Milestone) *mockMilestoneRepo {
	r := &mockMilestoneRepo{milestones: make(map[int64]*models.Milestone)}
	for _, m := range milestones {
		r.milestones[m.ID] = m
		if m.ID > r.nextID {
			r.nextID = m.ID
		}
	}
	return r
}

func (r *mockMilestoneRepo) Create(_ context.Context, m *models.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	copied := *m
	r.milestones[m.ID] = &copied
	return nil
}

func (r *mockMilestoneRepo) GetByID(_ context.Context, id int64) (*models.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	m, ok := r.milestones[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *mockMilestoneRepo) List(_ context.Context) ([]*models.Milestone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Milestone, 0, len(r.milestones))
	for _, m := range r.milestones {
		copied := *m
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *mockMilestoneRepo) Update(_ context.Context, m *models.Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.milestones[m.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *m
	r.milestones[m.ID] = &copied
	return nil
}

func (r *mockMilestoneRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.milestones[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.milestones, id)
	return nil
}

// mockValidatorRepo is an in-memory ValidatorRepository.
type mockValidatorRepo struct {
	mu         sync.Mutex
	validators map[int64]*models.Validator
	nextID     int64
	listErr    error
}

func newMockValidatorRepo(validators ...*models.Validator) *mockValidatorRepo {
	r := &mockValidatorRepo{validators: make(map[int64]*models.Validator)}
	for _, v := range validators {
		r.validators[v.ID] = v
		if v.ID > r.nextID {
			r.nextID = v.ID
		}
	}
	return r
}

func (r *mockValidatorRepo) Create(_ context.Context, v *models.Validator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	v.ID = r.nextID
	copied := *v
	r.validators[v.ID] = &copied
	return nil
}

func (r *mockValidatorRepo) GetByID(_ context.Context, id int64) (*models.Validator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.validators[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (r *mockValidatorRepo) ListByMilestone(_ context.Context, milestoneID int64) ([]*models.Validator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	result := make([]*models.Validator, 0)
	for _, v := range r.validators {
		if v.MilestoneID == milestoneID {
			copied := *v
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *mockValidatorRepo) Update(_ context.Context, v *models.Validator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.validators[v.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *v
	r.validators[v.ID] = &copied
	return nil
}

func (r *mockValidatorRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.validators[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.validators, id)
	return nil
}

// mockSystemPromptRepo is an in-memory append-only SystemPromptRepository.
type mockSystemPromptRepo struct {
	mu        sync.Mutex
	snapshots []*models.SystemPromptSnapshot
	getCalls  int
	getErr    error
}

func newMockSystemPromptRepo(contents ...string) *mockSystemPromptRepo {
	r := &mockSystemPromptRepo{}
	for _, c := range contents {
		_ = r.Append(context.Background(), &models.SystemPromptSnapshot{Content: c, CreatedBy: "seed"})
	}
	return r
}

func (r *mockSystemPromptRepo) Append(_ context.Context, s *models.SystemPromptSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = int64(len(r.snapshots) + 1)
	s.CreatedAt = time.Now()
	copied := *s
	r.snapshots = append(r.snapshots, &copied)
	return nil
}

func (r *mockSystemPromptRepo) GetByID(_ context.Context, id int64) (*models.SystemPromptSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snapshots {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *mockSystemPromptRepo) GetCurrent(_ context.Context) (*models.SystemPromptSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	latest := models.LatestSnapshot(r.snapshots)
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *mockSystemPromptRepo) List(_ context.Context, limit int) ([]*models.SystemPromptSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.SystemPromptSnapshot, 0, len(r.snapshots))
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		copied := *r.snapshots[i]
		result = append(result, &copied)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// mockPolicyRepo is an in-memory PolicyRepository.
type mockPolicyRepo struct {
	mu       sync.Mutex
	policies map[int64]*models.Policy
	nextID   int64
	clearErr error
}

func newMockPolicyRepo(policies ...*models.Policy) *mockPolicyRepo {
	r := &mockPolicyRepo{policies: make(map[int64]*models.Policy)}
	for _, p := range policies {
		r.policies[p.ID] = p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *mockPolicyRepo) Create(_ context.Context, p *models.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.policies[p.ID] = &copied
	return nil
}

func (r *mockPolicyRepo) GetByID(_ context.Context, id int64) (*models.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *mockPolicyRepo) GetDefault(_ context.Context) (*models.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.policies {
		if p.IsDefault {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *mockPolicyRepo) List(_ context.Context) ([]*models.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		copied := *p
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *mockPolicyRepo) Update(_ context.Context, p *models.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.policies[p.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.IsDefault = existing.IsDefault
	copied := *p
	r.policies[p.ID] = &copied
	return nil
}

func (r *mockPolicyRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.policies, id)
	return nil
}

func (r *mockPolicyRepo) ClearDefaults(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clearErr != nil {
		return r.clearErr
	}
	for _, p := range r.policies {
		p.IsDefault = false
	}
	return nil
}

func (r *mockPolicyRepo) MarkDefault(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.IsDefault = true
	return nil
}

func (r *mockPolicyRepo) defaults() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, p := range r.policies {
		if p.IsDefault {
			ids = append(ids, id)
		}
	}
	return ids
}

// mockAPIKeyRepo is an in-memory APIKeyRepository.
type mockAPIKeyRepo struct {
	mu       sync.Mutex
	keys     map[uuid.UUID]*models.APIKey
	touchErr error
}

func newMockAPIKeyRepo() *mockAPIKeyRepo {
	return &mockAPIKeyRepo{keys: make(map[uuid.UUID]*models.APIKey)}
}

func (r *mockAPIKeyRepo) Create(_ context.Context, k *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k.CreatedAt = time.Now()
	copied := *k
	r.keys[k.ID] = &copied
	return nil
}

func (r *mockAPIKeyRepo) GetByHash(_ context.Context, hash string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.KeyHash == hash {
			copied := *k
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *mockAPIKeyRepo) List(_ context.Context) ([]*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.APIKey, 0, len(r.keys))
	for _, k := range r.keys {
		copied := *k
		result = append(result, &copied)
	}
	return result, nil
}

func (r *mockAPIKeyRepo) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok || k.RevokedAt != nil {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	return nil
}

func (r *mockAPIKeyRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touchErr != nil {
		return r.touchErr
	}
	if k, ok := r.keys[id]; ok {
		k.LastUsedAt = &at
	}
	return nil
}

// passthroughTx runs fn directly; the in-memory repos need no transaction.
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }
