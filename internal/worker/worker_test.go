package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffWaitsOutTheDelay(t *testing.T) {
	start := time.Now()
	done := backoff(context.Background(), 20*time.Millisecond)
	assert.True(t, done)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestBackoffCutShortByCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	done := backoff(ctx, 10*time.Second)
	assert.False(t, done)
	assert.Less(t, time.Since(start), time.Second, "cancellation must not wait out the backoff")
}
