package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomotachi/backend/internal/database/memory"
	"tomotachi/backend/internal/database/storetest"
	"tomotachi/backend/internal/social"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) social.Store {
		return memory.NewStore()
	})
}

func TestWithinTx_ExpiredDeadlineDiscardsWrites(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.WithinTx(ctx, func(tx social.Tx) error {
		if _, err := tx.WriteFriendSet(ctx, "andy@example.com", []string{"john@example.com"}); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	exists, err := s.IdentityExists(context.Background(), "andy@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCanceledContext(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateIdentity(ctx, "andy@example.com")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ReadRelationships(ctx, "andy@example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
