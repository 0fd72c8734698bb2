// Package memory is an in-process social.Store used by tests and the "memory" driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"tomotachi/backend/internal/social"
)

type edgeSet map[string]struct{}

func (s edgeSet) add(email string) bool {
	if _, ok := s[email]; ok {
		return false
	}
	s[email] = struct{}{}
	return true
}

func (s edgeSet) list() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func (s edgeSet) clone() edgeSet {
	out := make(edgeSet, len(s))
	for e := range s {
		out[e] = struct{}{}
	}
	return out
}

type identity struct {
	friends     edgeSet
	subscribers edgeSet
	blockers    edgeSet
}

func newIdentity() *identity {
	return &identity{friends: edgeSet{}, subscribers: edgeSet{}, blockers: edgeSet{}}
}

func (i *identity) relationships() *social.Relationships {
	return &social.Relationships{
		Friends:     i.friends.list(),
		Subscribers: i.subscribers.list(),
		Blockers:    i.blockers.list(),
	}
}

// Store keeps every identity in a map guarded by one mutex.
// Transactions hold the mutex until they commit or roll back.
type Store struct {
	mu         sync.Mutex
	identities map[string]*identity
}

var _ social.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{identities: make(map[string]*identity)}
}

func (s *Store) IdentityExists(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.identities[email]
	return ok, nil
}

func (s *Store) CreateIdentity(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[email]; ok {
		return false, nil
	}
	s.identities[email] = newIdentity()
	return true, nil
}

func (s *Store) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.identities[email]
	if !ok {
		return nil, social.ErrIdentityAbsent
	}
	return id.relationships(), nil
}

func (s *Store) AppendSubscriber(ctx context.Context, target, subscriber string) (bool, error) {
	return s.appendEdge(ctx, target, subscriber, func(i *identity) edgeSet { return i.subscribers })
}

func (s *Store) AppendBlocker(ctx context.Context, target, blocker string) (bool, error) {
	return s.appendEdge(ctx, target, blocker, func(i *identity) edgeSet { return i.blockers })
}

func (s *Store) appendEdge(ctx context.Context, target, member string, set func(*identity) edgeSet) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.identities[target]
	if !ok {
		return false, social.ErrIdentityAbsent
	}
	return set(id).add(member), nil
}

func (s *Store) IntersectFriends(ctx context.Context, a, b string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idA, okA := s.identities[a]
	idB, okB := s.identities[b]
	if !okA || !okB {
		return nil, social.ErrIdentityAbsent
	}
	common := edgeSet{}
	for f := range idA.friends {
		if _, ok := idB.friends[f]; ok {
			common[f] = struct{}{}
		}
	}
	return common.list(), nil
}

// WithinTx stages every write and applies them only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx social.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: make(map[string]*identity)}
	if err := fn(tx); err != nil {
		return err
	}
	// A deadline that expired mid-transaction aborts the commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	for email, id := range tx.staged {
		s.identities[email] = id
	}
	return nil
}

type memTx struct {
	store  *Store
	staged map[string]*identity
}

func (t *memTx) lookup(email string) (*identity, bool) {
	if id, ok := t.staged[email]; ok {
		return id, true
	}
	id, ok := t.store.identities[email]
	return id, ok
}

func (t *memTx) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, ok := t.lookup(email)
	if !ok {
		return nil, social.ErrIdentityAbsent
	}
	return id.relationships(), nil
}

func (t *memTx) WriteFriendSet(ctx context.Context, email string, friends []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	current, exists := t.lookup(email)
	next := newIdentity()
	if exists {
		next.friends = current.friends.clone()
		next.subscribers = current.subscribers.clone()
		next.blockers = current.blockers.clone()
	}

	changed := !exists
	for _, f := range friends {
		if next.friends.add(f) {
			changed = true
		}
	}
	if changed {
		t.staged[email] = next
	}
	return changed, nil
}
