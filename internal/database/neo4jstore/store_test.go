package neo4jstore

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomotachi/backend/internal/database/storetest"
	"tomotachi/backend/internal/social"
)

// TestStoreConformance runs against a live server named by NEO4J_URI.
// Every subtest starts from an empty graph.
func TestStoreConformance(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" || testing.Short() {
		t.Skip("NEO4J_URI not set")
	}
	ctx := context.Background()
	s, err := Connect(ctx, uri, envOr("NEO4J_USER", "neo4j"), os.Getenv("NEO4J_PASSWORD"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })
	require.NoError(t, s.EnsureSchema(ctx))

	storetest.Run(t, func(t *testing.T) social.Store {
		_, err := s.write(ctx, `MATCH (i:Identity) DETACH DELETE i`, nil)
		require.NoError(t, err)
		return s
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestStringList(t *testing.T) {
	rec := &neo4j.Record{
		Keys:   []string{"friends", "blockers"},
		Values: []any{[]any{"lisa@example.com", "andy@example.com", nil}, nil},
	}
	assert.Equal(t, []string{"andy@example.com", "lisa@example.com"}, stringList(rec, "friends"))
	assert.Empty(t, stringList(rec, "blockers"))
	assert.Empty(t, stringList(rec, "missing"))
}
