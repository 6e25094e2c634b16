package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adsb-labs/sbsship/internal/domain"
	"github.com/adsb-labs/sbsship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

func testBatch() *domain.Batch {
	alt := 38000
	lat := 51.5
	b := domain.NewBatch()
	b.Append(&domain.Message{
		Timestamp:        "1704110400000000000",
		MessageType:      "MSG",
		TransmissionType: 3,
		HexIdent:         "4CA2D1",
		Altitude:         &alt,
		Lat:              &lat,
	})
	return b
}

func testMetadata(url string) ports.SendMetadata {
	return ports.SendMetadata{
		ServiceURL: url,
		AuthKey:    "secret",
		Session:    "session-1",
		Hostname:   "test-host",
	}
}

func TestSendSuccess(t *testing.T) {
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/addEvents" {
			t.Errorf("path = %v, want /api/addEvents", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %v, want Bearer secret", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %v, want application/json", r.Header.Get("Content-Type"))
		}
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := NewEventSender(http.DefaultClient, mockLogger{})
	if err := s.Send(context.Background(), testBatch(), testMetadata(ts.URL)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var env struct {
		Session string `json:"session"`
		Events  []struct {
			Parser string `json:"parser"`
			TS     string `json:"ts"`
			Sev    int    `json:"sev"`
			Attrs  struct {
				Message map[string]interface{} `json:"message"`
			} `json:"attrs"`
		} `json:"events"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if env.Session != "session-1" {
		t.Errorf("session = %v, want session-1", env.Session)
	}
	if len(env.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(env.Events))
	}
	ev := env.Events[0]
	if ev.Parser != "adsb" || ev.Sev != 3 {
		t.Errorf("event parser/sev = %v/%v, want adsb/3", ev.Parser, ev.Sev)
	}
	if ev.Attrs.Message["icao24"] != "4CA2D1" {
		t.Errorf("icao24 = %v, want 4CA2D1", ev.Attrs.Message["icao24"])
	}
	if ev.Attrs.Message["altitude"] != float64(38000) {
		t.Errorf("altitude = %v, want 38000", ev.Attrs.Message["altitude"])
	}
	// Absent fields are omitted entirely, never null or zero.
	for _, key := range []string{"ground_speed", "callsign", "on_ground", "vertical_rate"} {
		if _, present := ev.Attrs.Message[key]; present {
			t.Errorf("absent field %q serialized", key)
		}
	}
	if strings.Contains(string(body), "null") {
		t.Errorf("body contains null: %s", body)
	}
}

func TestSendTransientThenSuccess(t *testing.T) {
	var attempts int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := NewEventSender(http.DefaultClient, mockLogger{}).
		WithRetryPolicy(3, time.Millisecond, 2*time.Millisecond)

	if err := s.Send(context.Background(), testBatch(), testMetadata(ts.URL)); err != nil {
		t.Fatalf("Send() error = %v, want success within retry budget", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestSendPermanentRejection(t *testing.T) {
	var attempts int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	s := NewEventSender(http.DefaultClient, mockLogger{}).
		WithRetryPolicy(5, time.Millisecond, 2*time.Millisecond)

	err := s.Send(context.Background(), testBatch(), testMetadata(ts.URL))
	if !errors.Is(err, domain.ErrPermanentlyRejected) {
		t.Fatalf("Send() error = %v, want ErrPermanentlyRejected", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent rejection)", attempts)
	}
}

func TestSendRetriesExhausted(t *testing.T) {
	var attempts int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	s := NewEventSender(http.DefaultClient, mockLogger{}).
		WithRetryPolicy(3, time.Millisecond, 2*time.Millisecond)

	err := s.Send(context.Background(), testBatch(), testMetadata(ts.URL))
	if !errors.Is(err, domain.ErrRetriesExhausted) {
		t.Fatalf("Send() error = %v, want ErrRetriesExhausted", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestSendNetworkErrorIsTransient(t *testing.T) {
	// Nothing listening on this address.
	s := NewEventSender(http.DefaultClient, mockLogger{}).
		WithRetryPolicy(2, time.Millisecond, 2*time.Millisecond)

	err := s.Send(context.Background(), testBatch(), testMetadata("http://127.0.0.1:1"))
	if !errors.Is(err, domain.ErrRetriesExhausted) {
		t.Fatalf("Send() error = %v, want ErrRetriesExhausted", err)
	}
}

func TestSendEmptyBatch(t *testing.T) {
	var attempts int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
	}))
	defer ts.Close()

	s := NewEventSender(http.DefaultClient, mockLogger{})
	if err := s.Send(context.Background(), domain.NewBatch(), testMetadata(ts.URL)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 for empty batch", attempts)
	}
}
