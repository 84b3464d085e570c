package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBurstPassesImmediately(t *testing.T) {
	p := NewPacer(100, 1, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx, 1))
	}
}

func TestChatBudgetIsEnforced(t *testing.T) {
	p := NewPacer(100, 1, 1)
	require.NoError(t, p.Wait(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx, 1))
	// Other chats have their own bucket.
	assert.NoError(t, p.Wait(context.Background(), 2))
}

func TestIdleChatsAreEvicted(t *testing.T) {
	p := NewPacer(1000, 1000, 1)
	for i := int64(0); i < maxTrackedChats; i++ {
		p.limiter(i)
	}
	require.Equal(t, maxTrackedChats, p.tracked())

	p.limiter(-1)
	assert.Equal(t, 1, p.tracked())
}
