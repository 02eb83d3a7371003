package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("tok"))
	}
	assert.False(t, rl.Allow("tok"))

	// Other clients have their own window.
	assert.True(t, rl.Allow("other"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.Allow("tok"))
	assert.False(t, rl.Allow("tok"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("tok"))
}
