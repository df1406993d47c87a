// Package anthropic implements the provider adapter for Anthropic's
// messages API.
//
// The adapter moves the system prompt to Anthropic's dedicated field,
// enforces the API's alternating-turn rule, authenticates with x-api-key,
// and decodes the event-framed SSE stream into provider-agnostic chunks.
package anthropic
