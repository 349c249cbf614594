//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/testhelpers"
)

// setupRepositoryTest returns the shared database emptied of all gateway tables.
func setupRepositoryTest(t *testing.T) *testhelpers.EngineDB {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)
	engineDB.Truncate(t, "validators", "milestones", "policies", "system_prompt_snapshots", "api_keys")
	return engineDB
}

func createPolicy(t *testing.T, repo PolicyRepository, name string, minPassed, minConfidence float64) *models.Policy {
	t.Helper()
	p := &models.Policy{Name: name, MinValidatorsPassed: minPassed, MinConfidence: minConfidence}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func createMilestone(t *testing.T, repo MilestoneRepository, name string, policyID *int64) *models.Milestone {
	t.Helper()
	m := &models.Milestone{Name: name, Category: models.CategorySocial, PolicyID: policyID}
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}
