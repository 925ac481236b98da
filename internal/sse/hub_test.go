package sse

import (
	"testing"
	"time"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "session_started",
			data:      `{"type":"session_started"}`,
			expected:  "event: session_started\ndata: {\"type\":\"session_started\"}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "competitor_updated",
			data:      "{\n  \"id\": \"c1\"\n}",
			expected:  "event: competitor_updated\ndata: {\ndata:   \"id\": \"c1\"\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single line", input: "hello", expected: []string{"hello"}},
		{name: "two lines", input: "line1\nline2", expected: []string{"line1", "line2"}},
		{name: "trailing newline", input: "line1\n", expected: []string{"line1"}},
		{name: "empty string", input: "", expected: []string{""}},
		{name: "crlf line endings", input: "line1\r\nline2\r\n", expected: []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d",
					tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q",
						tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub(model.TopicSessions, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "admin1")
	hub.Register(client)

	// Give the hub time to process registration
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.BroadcastEvent("session_started", "data")

	select {
	case msg := <-client.send:
		expected := "event: session_started\ndata: data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(model.TopicSessions, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "admin1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}

	// The send channel is closed on unregister
	if _, ok := <-client.send; ok {
		t.Error("client send channel still open after unregister")
	}
}

func TestHub_RegisterAfterClose(t *testing.T) {
	hub := NewHub(model.TopicCompetitors, testutil.NopLogger())
	go hub.Run()
	hub.Close()
	hub.Close()

	if hub.Register(NewClient(hub, "admin1")) {
		t.Error("Register succeeded on a closed hub")
	}
	// Must not block
	hub.Unregister(NewClient(hub, "admin1"))
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub(model.TopicCompetitors, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{
		NewClient(hub, "admin1"),
		NewClient(hub, "admin2"),
		NewClient(hub, "admin3"),
	}
	for _, c := range clients {
		hub.Register(c)
	}
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 3 {
		t.Errorf("ClientCount() = %d, want 3", hub.ClientCount())
	}

	hub.BroadcastEvent("update", "data")

	for i, client := range clients {
		select {
		case msg := <-client.send:
			expected := "event: update\ndata: data\n\n"
			if string(msg) != expected {
				t.Errorf("client %d received %q, want %q", i+1, string(msg), expected)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("client %d did not receive message", i+1)
		}
	}
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub1 := manager.GetOrCreateHub(model.TopicCompetitors)
	if hub1 == nil {
		t.Fatal("GetOrCreateHub returned nil")
	}

	if hub2 := manager.GetOrCreateHub(model.TopicCompetitors); hub1 != hub2 {
		t.Error("GetOrCreateHub returned different hub for same topic")
	}

	if hub3 := manager.GetOrCreateHub(model.TopicSessions); hub3 == hub1 {
		t.Error("GetOrCreateHub returned same hub for different topic")
	}
}

func TestHubManager_GetHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	if hub := manager.GetHub(model.TopicSessions); hub != nil {
		t.Error("GetHub returned non-nil for non-existent hub")
	}

	created := manager.GetOrCreateHub(model.TopicSessions)
	if got := manager.GetHub(model.TopicSessions); got != created {
		t.Error("GetHub returned different hub than GetOrCreateHub")
	}
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub(model.TopicSessions)
	manager.RemoveHub(model.TopicSessions)

	if manager.GetHub(model.TopicSessions) != nil {
		t.Error("Hub still exists after RemoveHub")
	}

	// Removing non-existent hub should not panic
	manager.RemoveHub(model.TopicCompetitors)
}

func TestHubManager_CleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	manager.GetOrCreateHub(model.TopicCompetitors)

	active := manager.GetOrCreateHub(model.TopicSessions)
	active.Register(NewClient(active, "admin1"))
	time.Sleep(10 * time.Millisecond)

	manager.CleanupEmptyHubs()

	if manager.GetHub(model.TopicCompetitors) != nil {
		t.Error("Empty hub still exists after cleanup")
	}
	if manager.GetHub(model.TopicSessions) == nil {
		t.Error("Active hub was removed during cleanup")
	}
}
