package likes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCountQuery(t *testing.T) {
	query, args, err := getCountQuery("p1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT like_count FROM likes WHERE post_id = $1 LIMIT 1", query)
	assert.Equal(t, []any{"p1"}, args)
}

func TestUpsertCountQuery(t *testing.T) {
	query, args, err := upsertCountQuery("p1", 7)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO likes (post_id,like_count) VALUES ($1,$2) ON CONFLICT (post_id) DO UPDATE SET like_count = EXCLUDED.like_count",
		query,
	)
	assert.Equal(t, []any{"p1", 7}, args)
}

func TestUpsertCountRejectsNegative(t *testing.T) {
	repo := &PgxRepository{}
	err := repo.UpsertCount(context.Background(), "p1", -1)
	assert.ErrorIs(t, err, ErrNegativeCount)
}
