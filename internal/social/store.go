package social

import "context"

// Relationships holds the three edge sets of one identity.
//
// Friends are mutual friends and Subscribers receive this identity's updates.
// Blockers holds every requestor of Block(requestor, this identity); none of them
// is a valid recipient of this identity's updates or a new friend of it.
type Relationships struct {
	Friends     []string
	Subscribers []string
	Blockers    []string
}

// Store is the persistence port consumed by the engine.
// Implementations must honour ctx deadlines and return ErrIdentityAbsent
// from ReadRelationships when the identity row does not exist.
type Store interface {
	IdentityExists(ctx context.Context, email string) (bool, error)

	// CreateIdentity inserts the identity if absent. It reports whether a row was created.
	CreateIdentity(ctx context.Context, email string) (bool, error)

	ReadRelationships(ctx context.Context, email string) (*Relationships, error)

	// AppendSubscriber and AppendBlocker are atomic point writes that report
	// whether the edge was newly added.
	AppendSubscriber(ctx context.Context, target, subscriber string) (bool, error)
	AppendBlocker(ctx context.Context, target, blocker string) (bool, error)

	IntersectFriends(ctx context.Context, a, b string) ([]string, error)

	// WithinTx runs fn in a single transaction. Any error returned by fn
	// rolls back every write made through the Tx.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view used by Connect.
type Tx interface {
	ReadRelationships(ctx context.Context, email string) (*Relationships, error)

	// WriteFriendSet creates the identity when absent and adds every friend not
	// already present. Existing edges are never removed.
	WriteFriendSet(ctx context.Context, email string, friends []string) (bool, error)
}
