package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/competition-console/internal/model"
)

func TestMultiFansOutInOrder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, Nop{}, b}

	m.Publish(context.Background(), model.Event{Type: model.EventCompetitorCreated, Topic: model.TopicCompetitors})
	m.Publish(context.Background(), model.Event{Type: model.EventSessionStarted, Topic: model.TopicSessions})

	want := []model.EventType{model.EventCompetitorCreated, model.EventSessionStarted}
	assert.Equal(t, want, a.Types())
	assert.Equal(t, want, b.Types())
}

func TestRecorderReset(t *testing.T) {
	r := &Recorder{}
	r.Publish(context.Background(), model.Event{Type: model.EventNumbersAssigned})
	r.Reset()
	assert.Empty(t, r.Events())
}
