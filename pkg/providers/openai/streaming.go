package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"mercury-hq/courier/pkg/providers"
)

// streamReader reads Server-Sent Events (SSE) from OpenAI's streaming API.
//
// The pool slot held for the request is released when the reader is closed,
// because the underlying response body releases it on Close.
type streamReader struct {
	client  *providers.HTTPClient
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

// newStreamReader opens a streaming request and returns a reader over its
// SSE frames.
func newStreamReader(ctx context.Context, client *providers.HTTPClient, url string, req *chatRequest, headers map[string]string) (*streamReader, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Do(ctx, http.MethodPost, url, bodyBytes, headers, parseErrorMessage)
	if err != nil {
		return nil, err
	}

	return &streamReader{
		client:  client,
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// Read returns the next chunk from the stream.
// It returns nil, io.EOF when the stream ends normally.
//
// Malformed frames are skipped rather than failing the stream: a single
// garbled chunk should not abort an otherwise healthy response.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, &providers.StreamError{
					Provider: s.client.Name(),
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()
		if line == "" {
			continue
		}

		// Only data frames carry chunks; comments and event types are noise.
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil, io.EOF
		}

		var wireChunk streamResponse
		if err := json.Unmarshal([]byte(data), &wireChunk); err != nil {
			slog.Debug("skipping malformed stream chunk",
				"provider", s.client.Name(),
				"error", err,
			)
			continue
		}

		chunk, err := transformStreamChunk(&wireChunk)
		if err != nil {
			slog.Debug("skipping empty stream chunk",
				"provider", s.client.Name(),
				"error", err,
			)
			continue
		}

		return chunk, nil
	}
}

// Close closes the stream and releases the request's pool slot.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// streamFailureChunk converts a mid-stream failure into a terminal chunk
// carrying the error. Normal termination produces no chunk.
func streamFailureChunk(err error) *providers.StreamChunk {
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &providers.StreamChunk{Error: err}
}
