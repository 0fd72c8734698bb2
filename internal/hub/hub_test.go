package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomotachi/backend/internal/events"
)

func TestPublish_ReachesOnlyAudience(t *testing.T) {
	h := New(nil)
	sub := h.Subscribe("sub@example.com")
	other := h.Subscribe("other@example.com")

	ev := events.Update("s@example.com", "hello", []string{"sub@example.com"})
	require.NoError(t, h.Publish(context.Background(), ev))

	select {
	case msg := <-sub:
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg, &decoded))
		assert.Equal(t, "update", decoded["type"])
	default:
		t.Fatal("subscriber received nothing")
	}

	select {
	case <-other:
		t.Fatal("event leaked to a non-recipient")
	default:
	}
}

func TestPublish_MultipleStreamsPerIdentity(t *testing.T) {
	h := New(nil)
	first := h.Subscribe("a@example.com")
	second := h.Subscribe("a@example.com")
	assert.Equal(t, 2, h.Connected("a@example.com"))

	require.NoError(t, h.Publish(context.Background(), events.Connected("a@example.com", "b@example.com")))
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestBroadcast_DropsWhenBufferFull(t *testing.T) {
	h := New(nil)
	c := h.Subscribe("a@example.com")
	for i := 0; i < clientBuffer+5; i++ {
		h.Broadcast("a@example.com", []byte("x"))
	}
	assert.Len(t, c, clientBuffer)
}

func TestUnsubscribe(t *testing.T) {
	h := New(nil)
	c := h.Subscribe("a@example.com")

	h.Unsubscribe("a@example.com", c)
	_, open := <-c
	assert.False(t, open)
	assert.Equal(t, 0, h.Connected("a@example.com"))

	assert.NotPanics(t, func() { h.Unsubscribe("a@example.com", c) })
}

func TestCloseAll(t *testing.T) {
	h := New(nil)
	a := h.Subscribe("a@example.com")
	b := h.Subscribe("b@example.com")
	h.Broadcast("a@example.com", []byte("buffered"))

	h.CloseAll()

	msg, open := <-a
	assert.True(t, open)
	assert.Equal(t, "buffered", string(msg))
	_, open = <-a
	assert.False(t, open)
	_, open = <-b
	assert.False(t, open)
	assert.Equal(t, 0, h.Connected("a@example.com"))

	late := h.Subscribe("a@example.com")
	_, open = <-late
	assert.False(t, open, "streams opened after CloseAll start closed")
	assert.Equal(t, 0, h.Connected("a@example.com"))

	assert.NotPanics(t, func() {
		h.Unsubscribe("a@example.com", a)
		h.Unsubscribe("a@example.com", late)
		h.CloseAll()
	})
}
