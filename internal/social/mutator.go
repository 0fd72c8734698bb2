package social

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Register creates the identity if it does not exist yet.
func (e *Engine) Register(ctx context.Context, email string) (bool, error) {
	const op = "register"
	if email == "" {
		return false, invalidArgument(op, "email is required")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	created, err := e.store.CreateIdentity(ctx, email)
	if err != nil {
		return false, e.classify(op, err)
	}
	if created {
		e.logger.Debug("identity registered", zap.String("email", email))
	}
	return created, nil
}

// Connect makes a and b mutual friends in one transaction. Missing identities are
// created. The result is false when the friendship already existed on both sides.
func (e *Engine) Connect(ctx context.Context, a, b string) (bool, error) {
	const op = "connect"
	if a == "" || b == "" {
		return false, invalidArgument(op, "two emails are required")
	}
	if a == b {
		return false, invalidArgument(op, "cannot befriend oneself")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var changed bool
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		relA, existsA, err := readOrEmpty(ctx, tx, a)
		if err != nil {
			return err
		}
		relB, existsB, err := readOrEmpty(ctx, tx, b)
		if err != nil {
			return err
		}

		if contains(relA.Blockers, b) || contains(relB.Blockers, a) {
			return newError(KindBlockedRelationship, op,
				fmt.Sprintf("%s and %s cannot become friends", a, b), nil)
		}

		changedA, err := addFriend(ctx, tx, a, relA, existsA, b)
		if err != nil {
			return err
		}
		changedB, err := addFriend(ctx, tx, b, relB, existsB, a)
		if err != nil {
			return err
		}
		changed = changedA || changedB
		return nil
	})
	if err != nil {
		return false, e.classify(op, err)
	}

	if changed {
		e.logger.Debug("friendship connected", zap.String("a", a), zap.String("b", b))
	}
	return changed, nil
}

// Subscribe adds requestor to the subscribers of target. Both must exist.
func (e *Engine) Subscribe(ctx context.Context, requestor, target string) (bool, error) {
	return e.appendEdge(ctx, "subscribe", requestor, target, e.store.AppendSubscriber)
}

// Block adds requestor to the blockers of target. Both must exist.
// An existing friendship between the two is left in place; only future
// Connect calls are rejected.
func (e *Engine) Block(ctx context.Context, requestor, target string) (bool, error) {
	return e.appendEdge(ctx, "block", requestor, target, e.store.AppendBlocker)
}

type appendFunc func(ctx context.Context, target, member string) (bool, error)

func (e *Engine) appendEdge(ctx context.Context, op, requestor, target string, appendTo appendFunc) (bool, error) {
	if requestor == "" || target == "" {
		return false, invalidArgument(op, "requestor and target are required")
	}
	if requestor == target {
		return false, invalidArgument(op, "requestor and target must differ")
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.requireExisting(ctx, op, requestor, target); err != nil {
		return false, err
	}

	changed, err := appendTo(ctx, target, requestor)
	if err != nil {
		return false, e.classify(op, err)
	}
	if changed {
		e.logger.Debug("edge appended",
			zap.String("op", op),
			zap.String("requestor", requestor),
			zap.String("target", target),
		)
	}
	return changed, nil
}

// readOrEmpty treats an absent identity as one with empty edge sets.
func readOrEmpty(ctx context.Context, tx Tx, email string) (*Relationships, bool, error) {
	rel, err := tx.ReadRelationships(ctx, email)
	if errors.Is(err, ErrIdentityAbsent) {
		return &Relationships{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

func addFriend(ctx context.Context, tx Tx, email string, rel *Relationships, exists bool, friend string) (bool, error) {
	if exists && contains(rel.Friends, friend) {
		return false, nil
	}
	friends := make([]string, 0, len(rel.Friends)+1)
	friends = append(friends, rel.Friends...)
	friends = append(friends, friend)
	return tx.WriteFriendSet(ctx, email, friends)
}
