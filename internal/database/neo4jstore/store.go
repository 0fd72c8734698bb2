// Package neo4jstore keeps identities as (:Identity {email}) nodes.
//
// Edges:
//
//	(a)-[:FRIEND]->(b)       b is in a's friend set (stored in both directions)
//	(s)-[:SUBSCRIBES]->(t)   s is in t's subscriber set
//	(b)-[:BLOCKS]->(t)       b is in t's blocker set
package neo4jstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"tomotachi/backend/internal/social"
)

const (
	existsQuery = `MATCH (i:Identity {email: $email}) RETURN count(i) > 0 AS found`

	createQuery = `
		MERGE (i:Identity {email: $email})
		ON CREATE SET i.created_at = datetime()`

	readQuery = `
		MATCH (i:Identity {email: $email})
		OPTIONAL MATCH (i)-[:FRIEND]->(f:Identity)
		WITH i, collect(DISTINCT f.email) AS friends
		OPTIONAL MATCH (s:Identity)-[:SUBSCRIBES]->(i)
		WITH i, friends, collect(DISTINCT s.email) AS subscribers
		OPTIONAL MATCH (b:Identity)-[:BLOCKS]->(i)
		RETURN friends, subscribers, collect(DISTINCT b.email) AS blockers`

	// Reading through a write lock keeps concurrent Connect calls on the same
	// identities from interleaving their block checks.
	lockQuery = `MATCH (i:Identity {email: $email}) SET i._lock = true REMOVE i._lock`

	// The append queries return no row when the target identity is missing.
	appendSubscriberQuery = `
		MATCH (t:Identity {email: $target})
		MERGE (m:Identity {email: $member})
		MERGE (m)-[r:SUBSCRIBES]->(t)
		ON CREATE SET r.created_at = datetime()
		RETURN t.email AS target`

	appendBlockerQuery = `
		MATCH (t:Identity {email: $target})
		MERGE (m:Identity {email: $member})
		MERGE (m)-[r:BLOCKS]->(t)
		ON CREATE SET r.created_at = datetime()
		RETURN t.email AS target`

	intersectQuery = `
		MATCH (:Identity {email: $a})-[:FRIEND]->(f:Identity)<-[:FRIEND]-(:Identity {email: $b})
		RETURN DISTINCT f.email AS email
		ORDER BY email`

	writeFriendsQuery = `
		MERGE (i:Identity {email: $email})
		ON CREATE SET i.created_at = datetime()
		WITH i
		UNWIND $friends AS friend
		MERGE (f:Identity {email: friend})
		ON CREATE SET f.created_at = datetime()
		MERGE (i)-[r:FRIEND]->(f)
		ON CREATE SET r.created_at = datetime()`
)

// Store implements social.Store on a Neo4j driver.
type Store struct {
	driver neo4j.DriverWithContext
}

var _ social.Store = (*Store)(nil)

// New wraps a connected driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j %s: %w", uri, err)
	}
	return New(driver), nil
}

// Close closes the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// EnsureSchema creates the uniqueness constraint on Identity.email (idempotent).
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `CREATE CONSTRAINT identity_email_unique IF NOT EXISTS FOR (i:Identity) REQUIRE i.email IS UNIQUE`
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	return err
}

func (s *Store) IdentityExists(ctx context.Context, email string) (bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	found, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, existsQuery, map[string]any{"email": email})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := rec.Get("found")
		b, _ := v.(bool)
		return b, nil
	})
	if err != nil {
		return false, fmt.Errorf("identity exists: %w", err)
	}
	return found.(bool), nil
}

func (s *Store) CreateIdentity(ctx context.Context, email string) (bool, error) {
	return s.write(ctx, createQuery, map[string]any{"email": email})
}

func (s *Store) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	rel, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return readRelationships(ctx, tx, email)
	})
	if err != nil {
		return nil, err
	}
	return rel.(*social.Relationships), nil
}

func (s *Store) AppendSubscriber(ctx context.Context, target, subscriber string) (bool, error) {
	return s.appendEdge(ctx, appendSubscriberQuery, target, subscriber)
}

func (s *Store) AppendBlocker(ctx context.Context, target, blocker string) (bool, error) {
	return s.appendEdge(ctx, appendBlockerQuery, target, blocker)
}

func (s *Store) appendEdge(ctx context.Context, query, target, member string) (bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	changed, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"target": target, "member": member})
		if err != nil {
			return nil, err
		}
		found := res.Next(ctx)
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, social.ErrIdentityAbsent
		}
		return summary.Counters().RelationshipsCreated() > 0, nil
	})
	if err != nil {
		return false, err
	}
	return changed.(bool), nil
}

func (s *Store) IntersectFriends(ctx context.Context, a, b string) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	common, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, intersectQuery, map[string]any{"a": a, "b": b})
		if err != nil {
			return nil, err
		}
		out := []string{}
		for res.Next(ctx) {
			v, _ := res.Record().Get("email")
			if email, ok := v.(string); ok {
				out = append(out, email)
			}
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("intersect friends: %w", err)
	}
	return common.([]string), nil
}

// WithinTx runs fn in one managed write transaction. The driver retries fn on
// transient cluster errors, so fn must not have side effects outside the Tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx social.Tx) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(&neoTx{tx: tx})
	})
	return err
}

// write runs a single write query and reports whether it created anything.
func (s *Store) write(ctx context.Context, query string, params map[string]any) (bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	changed, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return runWrite(ctx, tx, query, params)
	})
	if err != nil {
		return false, err
	}
	return changed.(bool), nil
}

type neoTx struct {
	tx neo4j.ManagedTransaction
}

func (t *neoTx) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	if _, err := t.tx.Run(ctx, lockQuery, map[string]any{"email": email}); err != nil {
		return nil, fmt.Errorf("lock %s: %w", email, err)
	}
	return readRelationships(ctx, t.tx, email)
}

func (t *neoTx) WriteFriendSet(ctx context.Context, email string, friends []string) (bool, error) {
	return runWrite(ctx, t.tx, writeFriendsQuery, map[string]any{"email": email, "friends": friends})
}

func runWrite(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (bool, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return false, err
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return false, err
	}
	counters := summary.Counters()
	return counters.NodesCreated() > 0 || counters.RelationshipsCreated() > 0, nil
}

func readRelationships(ctx context.Context, tx neo4j.ManagedTransaction, email string) (*social.Relationships, error) {
	res, err := tx.Run(ctx, readQuery, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return nil, err
		}
		return nil, social.ErrIdentityAbsent
	}
	rec := res.Record()
	return &social.Relationships{
		Friends:     stringList(rec, "friends"),
		Subscribers: stringList(rec, "subscribers"),
		Blockers:    stringList(rec, "blockers"),
	}, nil
}

func stringList(rec *neo4j.Record, key string) []string {
	raw, _ := rec.Get(key)
	items, _ := raw.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
