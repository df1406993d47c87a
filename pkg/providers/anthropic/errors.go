package anthropic

import "encoding/json"

// errorEnvelope is Anthropic's error response shape:
// {"type":"error","error":{"type":"...","message":"..."}}.
type errorEnvelope struct {
	Type  string      `json:"type"`
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// parseErrorMessage extracts the human-readable message from an Anthropic
// error response body. It falls back to the raw body when the shape is
// unrecognized.
func parseErrorMessage(_ int, body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return string(body)
	}
	return envelope.Error.Message
}
