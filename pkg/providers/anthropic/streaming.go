package anthropic

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

// streamReader reads Server-Sent Events from Anthropic's streaming API.
// Anthropic frames events with both "event:" and "data:" fields, unlike
// OpenAI's data-only stream.
type streamReader struct {
	client  *providers.HTTPClient
	body    io.ReadCloser
	scanner *bufio.Scanner
	state   *streamState
	closed  bool
}

// newStreamReader opens a streaming request and returns a reader over its
// SSE events.
func newStreamReader(ctx context.Context, client *providers.HTTPClient, url string, req *messagesRequest, headers map[string]string) (*streamReader, error) {
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
		state:   &streamState{},
	}, nil
}

// Read returns the next chunk from the stream.
// It returns nil, io.EOF when the stream ends normally.
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

		event, err := s.readEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, &providers.StreamError{
				Provider: s.client.Name(),
				Message:  "failed to read stream",
				Cause:    err,
			}
		}
		if event == nil {
			continue
		}

		if event.Type == "message_stop" {
			return nil, io.EOF
		}

		chunk, err := transformStreamEvent(event, s.state)
		if err != nil {
			slog.Debug("skipping malformed stream event",
				"provider", s.client.Name(),
				"event_type", event.Type,
				"error", err,
			)
			continue
		}
		if chunk == nil {
			continue
		}

		return chunk, nil
	}
}

// readEvent reads one complete SSE event, joining multi-line data fields.
// A malformed JSON payload is skipped by returning nil, nil.
func (s *streamReader) readEvent() (*streamEvent, error) {
	var eventType string
	var dataLines []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Blank line terminates the event.
		if line == "" {
			if eventType != "" || len(dataLines) > 0 {
				break
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
		// Other SSE fields (id, retry, comments) are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if eventType == "" && len(dataLines) == 0 {
		return nil, io.EOF
	}

	var event streamEvent
	if len(dataLines) > 0 {
		data := strings.Join(dataLines, "\n")
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			slog.Debug("skipping malformed stream event",
				"provider", s.client.Name(),
				"error", err,
			)
			return nil, nil
		}
	}
	if event.Type == "" {
		event.Type = eventType
	}

	return &event, nil
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
