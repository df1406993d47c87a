// Package openai implements the provider adapter for OpenAI's chat
// completions API.
//
// The adapter translates between the provider-agnostic request/response
// types and OpenAI's wire format, authenticates with a Bearer token, and
// supports both buffered and streaming (SSE) completions. Connection
// pooling, proxy handling, deadlines, and error classification come from
// the embedded base client.
package openai
