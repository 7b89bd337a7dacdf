// internal/chat/chat_test.go
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/store"
)

func f64(v float64) *float64 { return &v }

func testStore() *store.Store {
	return store.New("D", []forecast.ModelResult{
		{Model: "xgb", Horizon: 7, Metrics: forecast.MetricsSnapshot{MAE: f64(10), SMAPE: f64(3.2)}},
	})
}

func TestBuildContext(t *testing.T) {
	t.Parallel()

	c := BuildContext(Selection{Granularity: "D", SelectedModel: "xgb", Store: testStore(), ActiveView: ViewCompare})
	if c.Metrics == nil || *c.Metrics.SMAPE != 3.2 {
		t.Fatalf("expected metrics for selected model, got %+v", c.Metrics)
	}
	if c.ActiveView != ViewCompare || c.Granularity != "D" {
		t.Fatalf("unexpected context: %+v", c)
	}

	missing := BuildContext(Selection{Granularity: "D", SelectedModel: "rf", Store: testStore()})
	if missing.Metrics != nil {
		t.Fatal("metrics should be omitted when the selected model is not in the store")
	}
	if missing.ActiveView != ViewSingle {
		t.Fatalf("expected default single view, got %q", missing.ActiveView)
	}

	data, err := json.Marshal(missing)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "metrics") {
		t.Fatalf("expected metrics key to be omitted: %s", data)
	}

	m := c.Map()
	metrics, ok := m["metrics"].(map[string]any)
	if !ok || metrics["smape"] != 3.2 || metrics["mae"] != 10.0 {
		t.Fatalf("unexpected map form: %+v", m)
	}
	if _, ok := metrics["rmse"]; ok {
		t.Fatal("undefined metrics should be left out of the map")
	}
}

func TestSessionSendSuccess(t *testing.T) {
	t.Parallel()

	var got Context
	s := NewSession(AssistantFunc(func(ctx context.Context, message string, c Context) (string, error) {
		got = c
		return "reply to " + message, nil
	}))

	msg, err := s.Send(context.Background(), "  how is xgb?  ", Context{Granularity: "D", SelectedModel: "xgb"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if msg.Role != RoleAssistant || msg.Content != "reply to how is xgb?" {
		t.Fatalf("unexpected reply: %+v", msg)
	}
	if got.SelectedModel != "xgb" {
		t.Fatalf("assistant did not receive context: %+v", got)
	}

	log := s.Messages()
	if len(log) != 2 || log[0].Role != RoleUser || log[0].ID == "" || log[0].ID == log[1].ID {
		t.Fatalf("unexpected log: %+v", log)
	}
	log[0].Content = "mutated"
	if s.Messages()[0].Content == "mutated" {
		t.Fatal("Messages should return a copy")
	}

	if _, err := s.Send(context.Background(), "   ", Context{}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSessionSendFailureAppendsFallback(t *testing.T) {
	t.Parallel()

	calls := 0
	s := NewSession(AssistantFunc(func(ctx context.Context, message string, c Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	}))

	msg, err := s.Send(context.Background(), "hello", Context{})
	if err == nil {
		t.Fatal("expected assistant error")
	}
	if !msg.Failed || msg.Content != FallbackReply {
		t.Fatalf("expected fallback message, got %+v", msg)
	}
	if s.Busy() {
		t.Fatal("session should be released after a failure")
	}

	if _, err := s.Send(context.Background(), "hello again", Context{}); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if n := len(s.Messages()); n != 4 {
		t.Fatalf("expected 4 messages, got %d", n)
	}
}

func TestSessionSingleInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	s := NewSession(AssistantFunc(func(ctx context.Context, message string, c Context) (string, error) {
		close(started)
		<-release
		return "done", nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := s.Send(context.Background(), "first", Context{}); err != nil {
			t.Errorf("first send failed: %v", err)
		}
	}()

	<-started
	if !s.Busy() {
		t.Fatal("expected session to be busy")
	}
	if _, err := s.Send(context.Background(), "second", Context{}); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}
	close(release)
	wg.Wait()

	log := s.Messages()
	if len(log) != 2 || log[0].Content != "first" || log[1].Content != "done" {
		t.Fatalf("rejected send should not be logged: %+v", log)
	}
}
