package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "social.connected", Connected("a@example.com", "b@example.com").Subject())
	assert.Equal(t, "social.subscribed", Subscribed("a@example.com", "b@example.com").Subject())
	assert.Equal(t, "social.blocked", Blocked("a@example.com", "b@example.com").Subject())

	subject := Update("a@example.com", "hi", nil).Subject()
	require.True(t, strings.HasPrefix(subject, "social.update."))
	key := strings.TrimPrefix(subject, "social.update.")
	assert.Len(t, key, 16)
	assert.NotContains(t, key, ".")
	assert.Equal(t, subject, Update("a@example.com", "other", nil).Subject())
	assert.NotEqual(t, subject, Update("b@example.com", "hi", nil).Subject())
}

func TestAudience(t *testing.T) {
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, Connected("a@example.com", "b@example.com").Audience)
	assert.Equal(t, []string{"b@example.com"}, Subscribed("a@example.com", "b@example.com").Audience)
	assert.Empty(t, Blocked("a@example.com", "b@example.com").Audience)
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(Update("s@example.com", "hello", []string{"r@example.com"}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "update", decoded["type"])
	assert.NotContains(t, decoded, "Audience")
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "s@example.com", payload["sender"])
	assert.Equal(t, []any{"r@example.com"}, payload["recipients"])
}

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestFanout_ContinuesPastFailures(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("down")}
	ok := &recordingPublisher{}

	err := Fanout{failing, ok}.Publish(context.Background(), Connected("a@example.com", "b@example.com"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)

	assert.NoError(t, Fanout{}.Publish(context.Background(), Blocked("a@example.com", "b@example.com")))
}

type fakeStream struct {
	subject string
	payload []byte
	err     error
}

func (f *fakeStream) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subject
	f.payload = payload
	return &jetstream.PubAck{Stream: StreamName, Sequence: 1}, nil
}

func TestJetStreamPublisher(t *testing.T) {
	stream := &fakeStream{}
	p := &JetStreamPublisher{js: stream, logger: zap.NewNop()}

	require.NoError(t, p.Publish(context.Background(), Subscribed("a@example.com", "b@example.com")))
	assert.Equal(t, "social.subscribed", stream.subject)
	assert.Contains(t, string(stream.payload), `"requestor":"a@example.com"`)
	assert.NoError(t, p.Close())

	stream.err = errors.New("no responders")
	assert.ErrorContains(t, p.Publish(context.Background(), Blocked("a@example.com", "b@example.com")), "no responders")
}
