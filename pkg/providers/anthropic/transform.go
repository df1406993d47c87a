package anthropic

import (
	"encoding/json"
	"fmt"

	"mercury-hq/courier/pkg/providers"
)

// Anthropic messages API wire types.

// messagesRequest is an Anthropic messages request.
type messagesRequest struct {
	Model         string        `json:"model"`
	Messages      []wireMessage `json:"messages"`
	System        string        `json:"system,omitempty"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   float64       `json:"temperature,omitempty"`
	TopP          float64       `json:"top_p,omitempty"`
	Stream        bool          `json:"stream,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Metadata      *wireMetadata `json:"metadata,omitempty"`
}

// wireMessage is a message in Anthropic wire format.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// wireMetadata carries the optional end-user identifier.
type wireMetadata struct {
	UserID string `json:"user_id,omitempty"`
}

// messagesResponse is an Anthropic messages response.
type messagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []contentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        wireUsage      `json:"usage"`
}

// contentBlock is a content block in an Anthropic response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// wireUsage is token usage in Anthropic wire format.
type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is one event in Anthropic's SSE stream. The delta field's
// shape depends on the event type, so it is kept raw and decoded per type.
type streamEvent struct {
	Type    string            `json:"type"`
	Message *messagesResponse `json:"message,omitempty"`
	Index   int               `json:"index,omitempty"`
	Delta   json.RawMessage   `json:"delta,omitempty"`
	Usage   *wireUsage        `json:"usage,omitempty"`
}

// contentDelta is the delta payload of a content_block_delta event.
type contentDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// messageDelta is the delta payload of a message_delta event.
type messageDelta struct {
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

// DefaultMaxTokens is used when a request omits max_tokens, which the
// Anthropic API requires.
const DefaultMaxTokens = 4096

// transformRequest converts a provider-agnostic request to Anthropic wire
// format. The system message moves to the dedicated field.
func transformRequest(req *providers.CompletionRequest) (*messagesRequest, error) {
	wire := &messagesRequest{
		Model:         req.Model,
		Messages:      make([]wireMessage, 0, len(req.Messages)),
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		Stream:        req.Stream,
		StopSequences: req.Stop,
	}

	if wire.MaxTokens == 0 {
		wire.MaxTokens = DefaultMaxTokens
	}

	if req.User != "" {
		wire.Metadata = &wireMetadata{UserID: req.User}
	}

	for _, msg := range req.Messages {
		if msg.Role == providers.RoleSystem {
			wire.System = msg.Content
			continue
		}
		wire.Messages = append(wire.Messages, wireMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	if err := validateMessageSequence(wire.Messages); err != nil {
		return nil, err
	}

	return wire, nil
}

// validateMessageSequence enforces Anthropic's turn rules: conversations
// start with a user message and roles alternate.
func validateMessageSequence(messages []wireMessage) error {
	if len(messages) == 0 {
		return nil
	}

	if messages[0].Role != providers.RoleUser {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "first message must be from user",
		}
	}

	for i := 1; i < len(messages); i++ {
		if messages[i-1].Role == messages[i].Role {
			return &providers.ValidationError{
				Field:   "messages",
				Message: fmt.Sprintf("messages must alternate between user and assistant, found consecutive %s messages at index %d", messages[i].Role, i),
			}
		}
	}

	return nil
}

// transformResponse converts an Anthropic response to provider-agnostic
// format, concatenating text content blocks.
func transformResponse(resp *messagesResponse) (*providers.CompletionResponse, error) {
	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &providers.CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      content,
		FinishReason: normalizeStopReason(resp.StopReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

// streamState carries the message identity across stream events, since
// only message_start names it.
type streamState struct {
	id    string
	model string
}

// transformStreamEvent converts an Anthropic stream event to a chunk.
// Events that carry no caller-visible content return nil, nil.
func transformStreamEvent(event *streamEvent, state *streamState) (*providers.StreamChunk, error) {
	switch event.Type {
	case "message_start":
		if event.Message != nil {
			state.id = event.Message.ID
			state.model = event.Message.Model
		}
		return nil, nil

	case "content_block_delta":
		var delta contentDelta
		if len(event.Delta) > 0 {
			if err := json.Unmarshal(event.Delta, &delta); err != nil {
				return nil, fmt.Errorf("failed to parse content delta: %w", err)
			}
		}
		if delta.Text == "" {
			return nil, nil
		}
		return &providers.StreamChunk{
			ID:    state.id,
			Model: state.model,
			Delta: delta.Text,
		}, nil

	case "message_delta":
		chunk := &providers.StreamChunk{
			ID:    state.id,
			Model: state.model,
		}
		if len(event.Delta) > 0 {
			var delta messageDelta
			if err := json.Unmarshal(event.Delta, &delta); err != nil {
				return nil, fmt.Errorf("failed to parse message delta: %w", err)
			}
			chunk.FinishReason = normalizeStopReason(delta.StopReason)
		}
		if event.Usage != nil {
			chunk.Usage = &providers.TokenUsage{
				PromptTokens:     event.Usage.InputTokens,
				CompletionTokens: event.Usage.OutputTokens,
				TotalTokens:      event.Usage.InputTokens + event.Usage.OutputTokens,
			}
		}
		return chunk, nil

	case "content_block_start", "content_block_stop", "message_stop", "ping":
		return nil, nil

	default:
		// Unknown event types are forward-compatible noise.
		return nil, nil
	}
}

// normalizeStopReason maps Anthropic stop reasons to provider-agnostic values.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
