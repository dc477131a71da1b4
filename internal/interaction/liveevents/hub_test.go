package liveevents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesBacklogThenLiveEvents(t *testing.T) {
	hub := NewHub()
	hub.Publish("owner-1", Event{ID: "1", Kind: "visit"})
	hub.Publish("owner-2", Event{ID: "x", Kind: "visit"})

	sub, backlog, err := hub.Subscribe("owner-1")
	require.NoError(t, err)
	defer sub.Close()
	require.Len(t, backlog, 1)
	assert.Equal(t, "1", backlog[0].ID)

	hub.Publish("owner-1", Event{ID: "2", Kind: "feedback"})
	got := <-sub.Events()
	assert.Equal(t, "2", got.ID)
}

func TestBacklogIsBounded(t *testing.T) {
	hub := NewHub()
	for i := 0; i < DefaultBufferSize+10; i++ {
		hub.Publish("owner", Event{ID: fmt.Sprint(i)})
	}
	sub, backlog, err := hub.Subscribe("owner")
	require.NoError(t, err)
	defer sub.Close()

	require.Len(t, backlog, DefaultBufferSize)
	assert.Equal(t, "10", backlog[0].ID)
}

func TestCloseStopsDelivery(t *testing.T) {
	hub := NewHub()
	sub, _, err := hub.Subscribe("owner")
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	hub.Publish("owner", Event{ID: "late"})
	assert.Len(t, sub.Events(), 0)
}

func TestSubscribeRejectsEmptyOwner(t *testing.T) {
	_, _, err := NewHub().Subscribe(" ")
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	sub, _, err := hub.Subscribe("owner")
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < DefaultSubscriberBuffer*4; i++ {
		hub.Publish("owner", Event{ID: fmt.Sprint(i)})
	}
	assert.Len(t, sub.Events(), DefaultSubscriberBuffer)
}
