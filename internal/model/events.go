package model

import "time"

// Topic groups events for subscribers
type Topic string

const (
	TopicCompetitors Topic = "competitors"
	TopicSessions    Topic = "sessions"
)

// Topics lists every topic
var Topics = []Topic{TopicCompetitors, TopicSessions}

// Valid reports whether the topic is known
func (t Topic) Valid() bool {
	return t == TopicCompetitors || t == TopicSessions
}

// EventType identifies the type of event
type EventType string

const (
	// Competitor events
	EventCompetitorCreated EventType = "competitor_created"
	EventCompetitorUpdated EventType = "competitor_updated"
	EventCompetitorDeleted EventType = "competitor_deleted"
	EventNumbersAssigned   EventType = "numbers_assigned"

	// Session events
	EventSessionStarted    EventType = "session_started"
	EventSessionStopped    EventType = "session_stopped"
	EventSessionCapReached EventType = "session_cap_reached"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType `json:"type"`
	Topic     Topic     `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"` // Type-specific data
}

// CompetitorDeletedPayload contains data for competitor deleted events
type CompetitorDeletedPayload struct {
	CompetitorID CompetitorID `json:"competitorId"`
}

// NumbersAssignedPayload contains data for numbers assigned events
type NumbersAssignedPayload struct {
	Numbers  map[CompetitorID]int `json:"numbers"`
	Reassign bool                 `json:"reassign"`
}

// SessionStoppedPayload contains data for session stopped events
type SessionStoppedPayload struct {
	Session Session `json:"session"`
	Elapsed int     `json:"elapsed"`
}

// SessionCapReachedPayload contains data for cap reached events
type SessionCapReachedPayload struct {
	Key       SessionKey `json:"key"`
	LiveTotal int        `json:"liveTotal"`
	AutoStop  bool       `json:"autoStop"`
}
