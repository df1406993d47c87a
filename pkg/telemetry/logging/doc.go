// Package logging configures structured logging for the dispatch core.
//
// It builds a log/slog logger from the telemetry configuration and wraps
// the handler with secret redaction so API keys, bearer tokens, and proxy
// credentials never reach a log sink, regardless of which component logged
// them.
package logging
