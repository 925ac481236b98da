package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/competition-console/internal/events"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/testutil"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestSubject(t *testing.T) {
	event := model.Event{Type: model.EventSessionStarted, Topic: model.TopicSessions}
	assert.Equal(t, "compconsole.sessions.session_started", Subject(event))
	assert.Equal(t, "compconsole.>", WildcardSubject())
}

func TestParseSubject(t *testing.T) {
	topic, eventType, err := ParseSubject("compconsole.competitors.numbers_assigned")
	require.NoError(t, err)
	assert.Equal(t, model.TopicCompetitors, topic)
	assert.Equal(t, model.EventNumbersAssigned, eventType)

	for _, bad := range []string{"", "compconsole", "other.sessions.x", "compconsole.lobbies.x", "compconsole.sessions.a.b"} {
		_, _, err := ParseSubject(bad)
		assert.ErrorIs(t, err, ErrBadSubject, bad)
	}
}

func TestPublisherSendsOnTopicSubject(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, testutil.NopLogger())

	p.Publish(context.Background(), model.Event{
		Type:      model.EventCompetitorDeleted,
		Topic:     model.TopicCompetitors,
		Timestamp: testutil.BaseTime,
		Payload:   model.CompetitorDeletedPayload{CompetitorID: "c1"},
	})

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "compconsole.competitors.competitor_deleted", conn.subjects[0])
	assert.JSONEq(t,
		`{"type":"competitor_deleted","topic":"competitors","timestamp":"2026-03-14T09:00:00Z","payload":{"competitorId":"c1"}}`,
		string(conn.payloads[0]))
}

func TestPublisherSwallowsErrors(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	p := NewPublisher(&fakeConn{err: errors.New("connection closed")}, logger)

	p.Publish(context.Background(), model.Event{Type: model.EventSessionStopped, Topic: model.TopicSessions})

	assert.Contains(t, buf.String(), "failed to publish event")
}

func TestRelayForwardsDecodedEvent(t *testing.T) {
	rec := &events.Recorder{}
	relay := NewRelay(nil, rec, testutil.NopLogger())

	data, err := Encode(model.Event{
		Type:      model.EventSessionStarted,
		Topic:     model.TopicSessions,
		Timestamp: testutil.BaseTime,
		Payload:   map[string]any{"day": 2},
	})
	require.NoError(t, err)

	event, err := relay.Forward("compconsole.sessions.session_started", data)
	require.NoError(t, err)

	got := rec.Events()
	require.Len(t, got, 1)
	assert.Equal(t, event, got[0])
	assert.Equal(t, model.TopicSessions, got[0].Topic)
	assert.True(t, testutil.BaseTime.Equal(got[0].Timestamp))

	// Payload is relayed byte for byte
	encoded, err := json.Marshal(got[0].Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":2}`, string(encoded))
}

func TestRelayRejectsBadMessages(t *testing.T) {
	rec := &events.Recorder{}
	relay := NewRelay(nil, rec, testutil.NopLogger())

	_, err := relay.Forward("elsewhere.sessions.session_started", []byte(`{}`))
	assert.ErrorIs(t, err, ErrBadSubject)

	_, err = relay.Forward("compconsole.sessions.session_started", []byte(`not json`))
	assert.Error(t, err)

	assert.Empty(t, rec.Events())
}

func TestRelayStopWithoutStart(t *testing.T) {
	relay := NewRelay(nil, events.Nop{}, testutil.NopLogger())
	assert.NoError(t, relay.Stop())
}
