// Package http implements the EventSender port against the DataSet
// addEvents ingestion API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adsb-labs/sbsship/internal/domain"
	"github.com/adsb-labs/sbsship/internal/ports"
)

const addEventsEndpoint = "/api/addEvents"

// severityInfo is the DataSet severity attached to every shipped event.
const severityInfo = 3

// parserName tags events for the sink's parsing pipeline.
const parserName = "adsb"

// Default retry policy values.
const (
	DefaultMaxAttempts    = 4
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// EventSender implements ports.EventSender over HTTP.
//
// Transient failures (network errors, 5xx responses) are retried with
// exponential backoff up to the attempt budget. 4xx responses are permanent:
// the request cannot succeed on retry, so the batch is surfaced as dropped
// without another attempt.
type EventSender struct {
	client      ports.HTTPClient
	logger      ports.Logger
	maxAttempts int
	initial     time.Duration
	max         time.Duration
}

// NewEventSender creates an HTTP event sender with the default retry policy.
func NewEventSender(client ports.HTTPClient, logger ports.Logger) *EventSender {
	return &EventSender{
		client:      client,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		initial:     DefaultBackoffInitial,
		max:         DefaultBackoffMax,
	}
}

// WithRetryPolicy overrides the attempt budget and backoff bounds.
func (s *EventSender) WithRetryPolicy(maxAttempts int, initial, max time.Duration) *EventSender {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if initial > 0 {
		s.initial = initial
	}
	if max > 0 {
		s.max = max
	}
	return s
}

// Send delivers one batch to the sink. See ports.EventSender for the
// outcome contract.
func (s *EventSender) Send(ctx context.Context, batch *domain.Batch, metadata ports.SendMetadata) error {
	if batch.Empty() {
		return nil
	}

	payload, err := marshalEnvelope(batch, metadata.Session)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	back := newBackoff(s.initial, s.max)
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.post(ctx, payload, metadata)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrPermanentlyRejected) {
			return err
		}

		lastErr = err
		s.logger.Warn("transient send failure",
			ports.Err(err),
			ports.Int("attempt", attempt),
			ports.Int("events", batch.Size()),
		)

		if attempt < s.maxAttempts {
			if err := back.Sleep(ctx); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrRetriesExhausted, err)
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", domain.ErrRetriesExhausted, s.maxAttempts, lastErr)
}

// post performs a single delivery attempt.
func (s *EventSender) post(ctx context.Context, payload []byte, metadata ports.SendMetadata) error {
	url := metadata.ServiceURL + addEventsEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+metadata.AuthKey)
	req.Header.Set("X-Agent-Hostname", metadata.Hostname)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
		return nil
	case resp.StatusCode/100 == 4:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", domain.ErrPermanentlyRejected, resp.StatusCode, string(body))
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
}

// envelope is the addEvents request body. One envelope carries one batch.
type envelope struct {
	Session     string            `json:"session"`
	SessionInfo map[string]string `json:"sessionInfo"`
	Events      []event           `json:"events"`
	Threads     []struct{}        `json:"threads"`
}

// event wraps one message. Absent message fields are omitted from attrs
// entirely; the sink never sees null or zero placeholders.
type event struct {
	Parser   string     `json:"parser"`
	TS       string     `json:"ts"`
	Severity int        `json:"sev"`
	Attrs    eventAttrs `json:"attrs"`
}

type eventAttrs struct {
	Message *domain.Message `json:"message"`
	Parser  string          `json:"parser"`
}

func marshalEnvelope(batch *domain.Batch, session string) ([]byte, error) {
	events := make([]event, 0, batch.Size())
	for _, m := range batch.Messages {
		events = append(events, event{
			Parser:   parserName,
			TS:       m.Timestamp,
			Severity: severityInfo,
			Attrs:    eventAttrs{Message: m, Parser: parserName},
		})
	}

	return json.Marshal(envelope{
		Session:     session,
		SessionInfo: map[string]string{},
		Events:      events,
		Threads:     []struct{}{},
	})
}
