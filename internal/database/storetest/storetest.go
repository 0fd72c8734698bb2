// Package storetest holds the behaviour every social.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomotachi/backend/internal/social"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) social.Store

var errAbort = errors.New("abort")

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s social.Store)
	}{
		{"CreateIdentityIsIdempotent", testCreateIdentity},
		{"ReadAbsentIdentity", testReadAbsent},
		{"AppendSubscriber", testAppendSubscriber},
		{"AppendBlocker", testAppendBlocker},
		{"AppendToAbsentTarget", testAppendAbsentTarget},
		{"WriteFriendSetCreatesIdentity", testWriteFriendSetCreates},
		{"WriteFriendSetIsAdditive", testWriteFriendSetAdditive},
		{"FailedTxRollsBack", testRollback},
		{"IntersectFriends", testIntersect},
		{"ConcurrentAppends", testConcurrentAppends},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func mustCreate(t *testing.T, s social.Store, emails ...string) {
	t.Helper()
	for _, e := range emails {
		_, err := s.CreateIdentity(context.Background(), e)
		require.NoError(t, err)
	}
}

func testCreateIdentity(t *testing.T, s social.Store) {
	ctx := context.Background()

	exists, err := s.IdentityExists(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := s.CreateIdentity(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateIdentity(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.False(t, created)

	exists, err = s.IdentityExists(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	rel, err := s.ReadRelationships(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.Empty(t, rel.Friends)
	assert.Empty(t, rel.Subscribers)
	assert.Empty(t, rel.Blockers)
}

func testReadAbsent(t *testing.T, s social.Store) {
	_, err := s.ReadRelationships(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, social.ErrIdentityAbsent)
}

func testAppendSubscriber(t *testing.T, s social.Store) {
	ctx := context.Background()
	mustCreate(t, s, "lisa@example.com", "john@example.com")

	added, err := s.AppendSubscriber(ctx, "john@example.com", "lisa@example.com")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AppendSubscriber(ctx, "john@example.com", "lisa@example.com")
	require.NoError(t, err)
	assert.False(t, added)

	rel, err := s.ReadRelationships(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"lisa@example.com"}, rel.Subscribers)
	assert.Empty(t, rel.Blockers)

	rel, err = s.ReadRelationships(ctx, "lisa@example.com")
	require.NoError(t, err)
	assert.Empty(t, rel.Subscribers, "subscription is one-directional")
}

func testAppendBlocker(t *testing.T, s social.Store) {
	ctx := context.Background()
	mustCreate(t, s, "andy@example.com", "john@example.com")

	added, err := s.AppendBlocker(ctx, "john@example.com", "andy@example.com")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AppendBlocker(ctx, "john@example.com", "andy@example.com")
	require.NoError(t, err)
	assert.False(t, added)

	rel, err := s.ReadRelationships(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"andy@example.com"}, rel.Blockers)
	assert.Empty(t, rel.Subscribers)
}

func testAppendAbsentTarget(t *testing.T, s social.Store) {
	ctx := context.Background()
	mustCreate(t, s, "lisa@example.com")

	_, err := s.AppendSubscriber(ctx, "ghost@example.com", "lisa@example.com")
	assert.ErrorIs(t, err, social.ErrIdentityAbsent)
	_, err = s.AppendBlocker(ctx, "ghost@example.com", "lisa@example.com")
	assert.ErrorIs(t, err, social.ErrIdentityAbsent)

	exists, err := s.IdentityExists(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "a failed append must not create its target")
}

func testWriteFriendSetCreates(t *testing.T, s social.Store) {
	ctx := context.Background()

	var changed bool
	err := s.WithinTx(ctx, func(tx social.Tx) error {
		_, err := tx.ReadRelationships(ctx, "andy@example.com")
		require.ErrorIs(t, err, social.ErrIdentityAbsent)

		changed, err = tx.WriteFriendSet(ctx, "andy@example.com", []string{"john@example.com"})
		return err
	})
	require.NoError(t, err)
	assert.True(t, changed)

	rel, err := s.ReadRelationships(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"john@example.com"}, rel.Friends)
}

func testWriteFriendSetAdditive(t *testing.T, s social.Store) {
	ctx := context.Background()
	mustCreate(t, s, "andy@example.com")

	write := func(friends ...string) bool {
		t.Helper()
		var changed bool
		err := s.WithinTx(ctx, func(tx social.Tx) error {
			var err error
			changed, err = tx.WriteFriendSet(ctx, "andy@example.com", friends)
			return err
		})
		require.NoError(t, err)
		return changed
	}

	assert.True(t, write("john@example.com"))
	assert.False(t, write("john@example.com"))
	assert.True(t, write("john@example.com", "lisa@example.com"))

	rel, err := s.ReadRelationships(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"john@example.com", "lisa@example.com"}, rel.Friends)
}

func testRollback(t *testing.T, s social.Store) {
	ctx := context.Background()
	mustCreate(t, s, "andy@example.com")

	err := s.WithinTx(ctx, func(tx social.Tx) error {
		if _, err := tx.WriteFriendSet(ctx, "andy@example.com", []string{"john@example.com"}); err != nil {
			return err
		}
		if _, err := tx.WriteFriendSet(ctx, "john@example.com", []string{"andy@example.com"}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	rel, err := s.ReadRelationships(ctx, "andy@example.com")
	require.NoError(t, err)
	assert.Empty(t, rel.Friends)

	exists, err := s.IdentityExists(ctx, "john@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testIntersect(t *testing.T, s social.Store) {
	ctx := context.Background()
	err := s.WithinTx(ctx, func(tx social.Tx) error {
		writes := map[string][]string{
			"andy@example.com":   {"common@example.com", "john@example.com", "only-a@example.com"},
			"john@example.com":   {"andy@example.com", "common@example.com", "only-b@example.com"},
			"common@example.com": {"andy@example.com", "john@example.com"},
		}
		for email, friends := range writes {
			if _, err := tx.WriteFriendSet(ctx, email, friends); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	common, err := s.IntersectFriends(ctx, "andy@example.com", "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"common@example.com"}, common)

	mustCreate(t, s, "loner@example.com")
	common, err = s.IntersectFriends(ctx, "andy@example.com", "loner@example.com")
	require.NoError(t, err)
	assert.Empty(t, common)
}

func testConcurrentAppends(t *testing.T, s social.Store) {
	ctx := context.Background()
	const n = 20
	mustCreate(t, s, "target@example.com")
	subscribers := make([]string, n)
	for i := range subscribers {
		subscribers[i] = "sub" + string(rune('a'+i)) + "@example.com"
	}
	mustCreate(t, s, subscribers...)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, sub := range subscribers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AppendSubscriber(ctx, "target@example.com", sub); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rel, err := s.ReadRelationships(ctx, "target@example.com")
	require.NoError(t, err)
	assert.Len(t, rel.Subscribers, n)
}
