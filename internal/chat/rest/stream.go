package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cord/internal/chat"
	"cord/internal/domain"
)

// Stream implements chat.Source over the platform's NDJSON event endpoint.
// The connection is long-lived; on any failure the stream reconnects with
// capped exponential backoff and keeps going until the context ends.
// Delivery stays at-least-once: a reconnect can replay recent events, which
// is exactly what the dedup caches upstream exist for.
type Stream struct {
	baseURL string
	token   string
	logger  *slog.Logger

	// No overall timeout: the response body is an endless stream.
	httpClient *http.Client
}

// NewStream builds a Source against the platform's event endpoint.
func NewStream(baseURL, token string, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		baseURL: baseURL,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Subscribe starts the reader goroutine and returns its channel. The
// channel closes when ctx ends.
func (s *Stream) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	out := make(chan domain.Event, 64)
	go s.run(ctx, out)
	return out, nil
}

func (s *Stream) run(ctx context.Context, out chan<- domain.Event) {
	defer close(out)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.consume(ctx, out)
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("event stream disconnected, reconnecting", "error", err, "backoff", backoff)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// consume reads one connection until it breaks. A clean EOF is also a
// disconnect; the platform ends streams on rebalance.
func (s *Stream) consume(ctx context.Context, out chan<- domain.Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+s.token)
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return statusError(resp.StatusCode, payload)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var ev domain.Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- ev:
		}
	}
}

var _ chat.Source = (*Stream)(nil)
