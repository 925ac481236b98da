package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/testutil"
)

func TestBroadcaster_PublishWithoutHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	// No subscribers yet, nothing to do
	broadcaster.Publish(context.Background(), model.Event{
		Type:  model.EventSessionStarted,
		Topic: model.TopicSessions,
	})

	if manager.GetHub(model.TopicSessions) != nil {
		t.Error("Publish created a hub")
	}
}

func TestBroadcaster_PublishEncodesEvent(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub(model.TopicCompetitors)
	client := NewClient(hub, "admin1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	broadcaster.Publish(context.Background(), model.Event{
		Type:      model.EventCompetitorDeleted,
		Topic:     model.TopicCompetitors,
		Timestamp: testutil.BaseTime,
		Payload:   model.CompetitorDeletedPayload{CompetitorID: "c1"},
	})

	select {
	case msg := <-client.send:
		text := string(msg)
		if !strings.HasPrefix(text, "event: competitor_deleted\ndata: ") {
			t.Fatalf("unexpected message %q", text)
		}
		data := strings.TrimSuffix(strings.TrimPrefix(text, "event: competitor_deleted\ndata: "), "\n\n")
		var decoded map[string]any
		if err := json.Unmarshal([]byte(data), &decoded); err != nil {
			t.Fatalf("data is not JSON: %v", err)
		}
		if decoded["type"] != "competitor_deleted" || decoded["topic"] != "competitors" {
			t.Errorf("decoded event = %v", decoded)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestBroadcaster_TopicsAreIsolated(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	broadcaster := NewBroadcaster(manager, testutil.NopLogger())

	hub := manager.GetOrCreateHub(model.TopicCompetitors)
	client := NewClient(hub, "admin1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	broadcaster.Publish(context.Background(), model.Event{
		Type:  model.EventSessionStopped,
		Topic: model.TopicSessions,
	})

	select {
	case msg := <-client.send:
		t.Errorf("competitors client received sessions event %q", string(msg))
	case <-time.After(30 * time.Millisecond):
	}
}

func TestServeSSE_StreamsEvents(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()
	hub := manager.GetOrCreateHub(model.TopicSessions)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ServeSSE(rec, req, hub, "admin1", time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.BroadcastEvent("session_started", `{"id":"s1"}`)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ServeSSE did not return after the request was cancelled")
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: connected\n") {
		t.Errorf("stream does not start with connected event: %q", body)
	}
	if !strings.Contains(body, "event: session_started\ndata: {\"id\":\"s1\"}\n\n") {
		t.Errorf("stream missing broadcast event: %q", body)
	}
}
