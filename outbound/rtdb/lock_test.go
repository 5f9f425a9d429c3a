package rtdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLocks(t *testing.T) {
	var locks keyLocks

	release, err := locks.acquire(context.Background(), "a")
	require.NoError(t, err)

	other, err := locks.acquire(context.Background(), "b")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	release, err = locks.acquire(context.Background(), "a")
	require.NoError(t, err)
	release()

	assert.Empty(t, locks.locks)
}
