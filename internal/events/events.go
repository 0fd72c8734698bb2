// Package events describes what the service announces after a relationship
// changes or an update is posted, and delivers it to one or more publishers.
package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Type names an event. Relationship types double as their NATS subject.
type Type string

const (
	TypeConnected  Type = "social.connected"
	TypeSubscribed Type = "social.subscribed"
	TypeBlocked    Type = "social.blocked"
	TypeUpdate     Type = "update"
)

// Event is the envelope sent to SSE clients and NATS subscribers.
type Event struct {
	Type       Type      `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`

	// Audience lists the identities that should see the event live.
	Audience []string `json:"-"`

	// sender keys the NATS subject of updates.
	sender string
}

// UpdatePayload is the body of an update event.
type UpdatePayload struct {
	Sender     string   `json:"sender"`
	Text       string   `json:"text"`
	Recipients []string `json:"recipients"`
}

// EdgePayload is the body of subscribe and block events.
type EdgePayload struct {
	Requestor string `json:"requestor"`
	Target    string `json:"target"`
}

// FriendsPayload is the body of a connect event.
type FriendsPayload struct {
	Friends []string `json:"friends"`
}

// Update builds the event fanned out to every resolved recipient.
func Update(sender, text string, recipients []string) Event {
	return Event{
		Type:       TypeUpdate,
		Payload:    UpdatePayload{Sender: sender, Text: text, Recipients: recipients},
		OccurredAt: time.Now().UTC(),
		Audience:   recipients,
		sender:     sender,
	}
}

// Connected is announced to both new friends.
func Connected(a, b string) Event {
	return Event{
		Type:       TypeConnected,
		Payload:    FriendsPayload{Friends: []string{a, b}},
		OccurredAt: time.Now().UTC(),
		Audience:   []string{a, b},
	}
}

// Subscribed is announced to the identity that gained a subscriber.
func Subscribed(requestor, target string) Event {
	return Event{
		Type:       TypeSubscribed,
		Payload:    EdgePayload{Requestor: requestor, Target: target},
		OccurredAt: time.Now().UTC(),
		Audience:   []string{target},
	}
}

// Blocked is only published to the bus; the blocked identity is not told.
func Blocked(requestor, target string) Event {
	return Event{
		Type:       TypeBlocked,
		Payload:    EdgePayload{Requestor: requestor, Target: target},
		OccurredAt: time.Now().UTC(),
	}
}

// Subject returns the NATS subject for the event. Emails contain dots, which
// NATS treats as token separators, so updates are keyed by a hash of the sender.
func (e Event) Subject() string {
	if e.Type == TypeUpdate {
		return "social.update." + senderKey(e.sender)
	}
	return string(e.Type)
}

func senderKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:8])
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout publishes to every publisher in order and joins their errors.
// A failing publisher does not stop the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
