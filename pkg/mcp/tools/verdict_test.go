package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

func TestEvaluateVerdict(t *testing.T) {
	s := newTestServer()
	RegisterVerdictTool(s)

	tests := []struct {
		name       string
		verdict    any
		wantResult bool
		wantPassed int
	}{
		{
			name:       "passes at exact thresholds",
			verdict:    `{"validators":[{"description":"a","result":true},{"description":"b","result":true},{"description":"c","result":true},{"description":"d","result":true},{"description":"e","result":false}],"confidence":0.8}`,
			wantResult: true,
			wantPassed: 4,
		},
		{
			name:       "fails on confidence",
			verdict:    "```json\n{\"validators\":[{\"description\":\"a\",\"result\":true}],\"confidence\":0.5}\n```",
			wantResult: false,
			wantPassed: 1,
		},
		{
			name: "object verdict",
			verdict: map[string]any{
				"validators": []any{map[string]any{"description": "a", "result": true}},
				"confidence": 0.95,
			},
			wantResult: true,
			wantPassed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "evaluate_verdict", map[string]any{
				"min_validators_passed": 80,
				"min_confidence":        80,
				"verdict":               tt.verdict,
			})
			require.False(t, resp.Result.IsError, toolText(t, resp))

			var eval services.PolicyEvaluation
			require.NoError(t, json.Unmarshal([]byte(toolText(t, resp)), &eval))
			assert.Equal(t, tt.wantResult, eval.Result)
			assert.Equal(t, tt.wantPassed, eval.Passed)
			assert.Equal(t, float64(80), eval.Policy.MinConfidence)
		})
	}
}

func TestEvaluateVerdict_Errors(t *testing.T) {
	s := newTestServer()
	RegisterVerdictTool(s)

	tests := []struct {
		name string
		args map[string]any
		code string
	}{
		{
			name: "threshold out of range",
			args: map[string]any{"min_validators_passed": 120, "min_confidence": 50, "verdict": `{"validators":[],"confidence":1}`},
			code: "invalid_policy",
		},
		{
			name: "threshold not a number",
			args: map[string]any{"min_validators_passed": "high", "min_confidence": 50, "verdict": `{"validators":[],"confidence":1}`},
			code: "invalid_policy",
		},
		{
			name: "confidence as text",
			args: map[string]any{"min_validators_passed": 50, "min_confidence": 50, "verdict": `{"validators":[],"confidence":"high"}`},
			code: "invalid_verdict",
		},
		{
			name: "missing verdict",
			args: map[string]any{"min_validators_passed": 50, "min_confidence": 50},
			code: "invalid_verdict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "evaluate_verdict", tt.args)
			assert.True(t, resp.Result.IsError)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(toolText(t, resp)), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
