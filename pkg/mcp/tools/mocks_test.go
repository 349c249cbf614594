package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/milestone-gateway/pkg/apperrors"
	"github.com/ekaya-inc/milestone-gateway/pkg/models"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// mockMilestoneService implements services.MilestoneService for testing.
type mockMilestoneService struct {
	milestones []*models.Milestone
	details    map[int64]*services.MilestoneDetail
	err        error
}

func (m *mockMilestoneService) Create(ctx context.Context, input *services.MilestoneInput) (*models.Milestone, error) {
	return nil, nil
}

func (m *mockMilestoneService) Get(ctx context.Context, id int64) (*models.Milestone, error) {
	return nil, nil
}

func (m *mockMilestoneService) GetDetail(ctx context.Context, id int64) (*services.MilestoneDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	detail, ok := m.details[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return detail, nil
}

func (m *mockMilestoneService) List(ctx context.Context) ([]*models.Milestone, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.milestones, nil
}

func (m *mockMilestoneService) Update(ctx context.Context, id int64, input *services.MilestoneInput) (*models.Milestone, error) {
	return nil, nil
}

func (m *mockMilestoneService) Delete(ctx context.Context, id int64) error {
	return nil
}

type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool invokes a tool through the JSON-RPC entry point.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()

	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), request))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

// toolText returns the text of the first content item.
func toolText(t *testing.T, resp toolResponse) string {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected JSON-RPC error")
	require.NotEmpty(t, resp.Result.Content)
	return resp.Result.Content[0].Text
}

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}
