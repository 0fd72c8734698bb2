package social

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResolveRecipients returns the sorted set
// (subscribers ∪ friends ∪ existing mentionees) \ blockers of sender.
// The sender is never its own recipient through a mention, and mentions of
// unknown identities are dropped silently.
func (e *Engine) ResolveRecipients(ctx context.Context, sender, text string) ([]string, error) {
	const op = "resolve_recipients"
	if sender == "" {
		return nil, newError(KindSenderNotFound, op, "sender is required", nil)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rel, err := e.store.ReadRelationships(ctx, sender)
	if errors.Is(err, ErrIdentityAbsent) {
		return nil, newError(KindSenderNotFound, op, fmt.Sprintf("sender %q does not exist", sender), nil)
	}
	if err != nil {
		return nil, e.classify(op, err)
	}

	blocked := make(map[string]struct{}, len(rel.Blockers))
	for _, b := range rel.Blockers {
		blocked[b] = struct{}{}
	}

	recipients := make(map[string]struct{}, len(rel.Subscribers)+len(rel.Friends))
	for _, s := range rel.Subscribers {
		recipients[s] = struct{}{}
	}
	for _, f := range rel.Friends {
		recipients[f] = struct{}{}
	}

	candidates := mentionCandidates(text, sender, recipients, blocked)
	valid, err := e.existing(ctx, candidates)
	if err != nil {
		return nil, e.classify(op, err)
	}
	for _, m := range valid {
		recipients[m] = struct{}{}
	}

	out := make([]string, 0, len(recipients))
	for r := range recipients {
		if _, ok := blocked[r]; ok {
			continue
		}
		out = append(out, r)
	}
	sort.Strings(out)

	e.logger.Debug("recipients resolved",
		zap.String("sender", sender),
		zap.Int("mentions", len(candidates)),
		zap.Int("recipients", len(out)),
	)
	return out, nil
}

// mentionCandidates deduplicates the mentions of text, dropping the sender and
// identities whose membership in the result is already decided.
func mentionCandidates(text, sender string, recipients, blocked map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range ExtractMentions(text) {
		if m == sender {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		if _, ok := recipients[m]; ok {
			continue
		}
		if _, ok := blocked[m]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// existing filters candidates down to identities present in the store,
// preserving order.
func (e *Engine) existing(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	found := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MentionConcurrency)
	for i, email := range candidates {
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
		return nil, err
	}

	out := make([]string, 0, len(candidates))
	for i, ok := range found {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}
