package llm

import "encoding/json"

// VerdictSchemaName is the name sent with the structured output schema.
const VerdictSchemaName = "milestone_verdict"

// VerdictSchema constrains the model to {validators, confidence}.
// Property order is significant for some providers and must stay validators first.
var VerdictSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "validators": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "description": {"type": "string"},
          "result": {"type": "boolean"}
        },
        "required": ["description", "result"],
        "additionalProperties": false
      }
    },
    "confidence": {"type": "number"}
  },
  "required": ["validators", "confidence"],
  "additionalProperties": false
}`)
