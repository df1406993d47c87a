package openai

import "encoding/json"

// errorEnvelope is OpenAI's error response shape. Some compatible servers
// flatten the error to a plain string, so the inner field is kept raw.
type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// parseErrorMessage extracts the human-readable message from an OpenAI
// error response body. It falls back to the raw body when the shape is
// unrecognized.
func parseErrorMessage(_ int, body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return string(body)
	}

	var detail errorDetail
	if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
		return detail.Message
	}

	var plain string
	if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
		return plain
	}

	return string(body)
}
