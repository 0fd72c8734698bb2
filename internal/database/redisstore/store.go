// Package redisstore keeps identities and their edge sets in Redis sets.
//
// Keys:
//
//	social:identity:<email>     "1" while the identity exists
//	social:friends:<email>      SET of friends
//	social:subscribers:<email>  SET of subscribers
//	social:blockers:<email>     SET of blockers
//
// Appends run as one script that checks the target's identity key before the
// SADD. Transactions use WATCH on every key they
// read and commit with MULTI/EXEC, retrying when a watched key changed.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"tomotachi/backend/internal/social"
)

const maxTxAttempts = 5

// ErrTxConflict is returned when a transaction lost every optimistic retry.
var ErrTxConflict = errors.New("redisstore: transaction conflict")

func identityKey(email string) string    { return "social:identity:" + email }
func friendsKey(email string) string     { return "social:friends:" + email }
func subscribersKey(email string) string { return "social:subscribers:" + email }
func blockersKey(email string) string    { return "social:blockers:" + email }

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store implements social.Store on a Redis client.
type Store struct {
	client *goredis.Client
}

var _ social.Store = (*Store)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client}
}

// Close releases the client's connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) IdentityExists(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, identityKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", email, err)
	}
	return n > 0, nil
}

func (s *Store) CreateIdentity(ctx context.Context, email string) (bool, error) {
	created, err := s.client.SetNX(ctx, identityKey(email), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("create identity %s: %w", email, err)
	}
	return created, nil
}

func (s *Store) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	return readRelationships(ctx, s.client, email)
}

func (s *Store) AppendSubscriber(ctx context.Context, target, subscriber string) (bool, error) {
	return s.appendMember(ctx, target, subscribersKey(target), subscriber)
}

func (s *Store) AppendBlocker(ctx context.Context, target, blocker string) (bool, error) {
	return s.appendMember(ctx, target, blockersKey(target), blocker)
}

// appendScript adds ARGV[1] to the set KEYS[2] only while KEYS[1] exists.
// It returns -1 for a missing identity, otherwise the SADD count.
var appendScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('SADD', KEYS[2], ARGV[1])
`)

func (s *Store) appendMember(ctx context.Context, target, key, member string) (bool, error) {
	n, err := appendScript.Run(ctx, s.client, []string{identityKey(target), key}, member).Int64()
	if err != nil {
		return false, fmt.Errorf("sadd %s: %w", key, err)
	}
	if n < 0 {
		return false, social.ErrIdentityAbsent
	}
	return n > 0, nil
}

func (s *Store) IntersectFriends(ctx context.Context, a, b string) ([]string, error) {
	common, err := s.client.SInter(ctx, friendsKey(a), friendsKey(b)).Result()
	if err != nil {
		return nil, fmt.Errorf("sinter: %w", err)
	}
	sort.Strings(common)
	return common, nil
}

// WithinTx runs fn against a WATCHed connection and commits its buffered writes
// with MULTI/EXEC. fn is re-run from scratch when another client touched a key
// it read.
func (s *Store) WithinTx(ctx context.Context, fn func(tx social.Tx) error) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *goredis.Tx) error {
			tx := &redisTx{rtx: rtx}
			if err := fn(tx); err != nil {
				return err
			}
			if len(tx.writes) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				for _, w := range tx.writes {
					w(pipe)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxConflict
}

type redisTx struct {
	rtx    *goredis.Tx
	writes []func(pipe goredis.Pipeliner)
}

func (t *redisTx) watch(ctx context.Context, email string) error {
	return t.rtx.Watch(ctx, identityKey(email), friendsKey(email), blockersKey(email)).Err()
}

func (t *redisTx) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	if err := t.watch(ctx, email); err != nil {
		return nil, fmt.Errorf("watch %s: %w", email, err)
	}
	return readRelationships(ctx, t.rtx, email)
}

func (t *redisTx) WriteFriendSet(ctx context.Context, email string, friends []string) (bool, error) {
	if err := t.watch(ctx, email); err != nil {
		return false, fmt.Errorf("watch %s: %w", email, err)
	}

	exists, err := t.rtx.Exists(ctx, identityKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", email, err)
	}
	current, err := t.rtx.SMembers(ctx, friendsKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("smembers %s: %w", email, err)
	}
	have := make(map[string]struct{}, len(current))
	for _, f := range current {
		have[f] = struct{}{}
	}

	var missing []interface{}
	for _, f := range friends {
		if _, ok := have[f]; ok {
			continue
		}
		have[f] = struct{}{}
		missing = append(missing, f)
	}

	created := exists == 0
	if created {
		t.writes = append(t.writes, func(pipe goredis.Pipeliner) {
			pipe.SetNX(ctx, identityKey(email), "1", 0)
		})
	}
	if len(missing) > 0 {
		t.writes = append(t.writes, func(pipe goredis.Pipeliner) {
			pipe.SAdd(ctx, friendsKey(email), missing...)
		})
	}
	return created || len(missing) > 0, nil
}

// reader is satisfied by both *goredis.Client and *goredis.Tx.
type reader interface {
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
	SMembers(ctx context.Context, key string) *goredis.StringSliceCmd
}

func readRelationships(ctx context.Context, r reader, email string) (*social.Relationships, error) {
	n, err := r.Exists(ctx, identityKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("exists %s: %w", email, err)
	}
	if n == 0 {
		return nil, social.ErrIdentityAbsent
	}

	rel := &social.Relationships{}
	sets := []struct {
		key string
		dst *[]string
	}{
		{friendsKey(email), &rel.Friends},
		{subscribersKey(email), &rel.Subscribers},
		{blockersKey(email), &rel.Blockers},
	}
	for _, set := range sets {
		members, err := r.SMembers(ctx, set.key).Result()
		if err != nil {
			return nil, fmt.Errorf("smembers %s: %w", set.key, err)
		}
		sort.Strings(members)
		*set.dst = members
	}
	return rel, nil
}
