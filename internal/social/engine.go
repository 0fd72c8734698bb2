// Package social maintains friendship, subscription and block edges between
// email identities and computes who should receive a sender's updates.
package social

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMentionConcurrency = 8

// Options tunes an Engine.
type Options struct {
	// StoreTimeout bounds every logical operation. Zero leaves the caller's deadline alone.
	StoreTimeout time.Duration
	// MentionConcurrency caps parallel existence lookups while resolving recipients.
	MentionConcurrency int
}

// Engine implements the relationship operations on top of a Store.
// It keeps no state of its own and is safe for concurrent use.
type Engine struct {
	store  Store
	logger *zap.Logger
	opts   Options
}

// New creates an Engine. A nil logger disables logging.
func New(store Store, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MentionConcurrency <= 0 {
		opts.MentionConcurrency = defaultMentionConcurrency
	}
	return &Engine{store: store, logger: logger, opts: opts}
}

// Friends returns the sorted friend list of email.
func (e *Engine) Friends(ctx context.Context, email string) ([]string, error) {
	const op = "friends"
	if email == "" {
		return nil, invalidArgument(op, "email is required")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rel, err := e.store.ReadRelationships(ctx, email)
	if errors.Is(err, ErrIdentityAbsent) {
		return nil, notFound(op, email)
	}
	if err != nil {
		return nil, e.classify(op, err)
	}
	return sortedCopy(rel.Friends), nil
}

// CommonFriends returns the sorted intersection of the friend sets of a and b.
func (e *Engine) CommonFriends(ctx context.Context, a, b string) ([]string, error) {
	const op = "common_friends"
	if a == "" || b == "" {
		return nil, invalidArgument(op, "two emails are required")
	}
	if a == b {
		return nil, invalidArgument(op, "emails must differ")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.requireExisting(ctx, op, a, b); err != nil {
		return nil, err
	}

	common, err := e.store.IntersectFriends(ctx, a, b)
	if err != nil {
		return nil, e.classify(op, err)
	}
	return sortedCopy(common), nil
}

// requireExisting checks every email concurrently and fails with NotFound on the
// first missing one, in argument order.
func (e *Engine) requireExisting(ctx context.Context, op string, emails ...string) error {
	found := make([]bool, len(emails))
	g, gctx := errgroup.WithContext(ctx)
	for i, email := range emails {
		g.Go(func() error {
			ok, err := e.store.IdentityExists(gctx, email)
			if err != nil {
				return err
			}
			found[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return e.classify(op, err)
	}
	for i, ok := range found {
		if !ok {
			return notFound(op, emails[i])
		}
	}
	return nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opts.StoreTimeout)
}

// classify turns any failure into an *Error. Engine errors pass through untouched;
// everything else came from the store and is reported as StoreUnavailable.
func (e *Engine) classify(op string, err error) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}
	e.logger.Warn("store operation failed", zap.String("op", op), zap.Error(err))
	return storeUnavailable(op, err)
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func contains(set []string, email string) bool {
	for _, s := range set {
		if s == email {
			return true
		}
	}
	return false
}
