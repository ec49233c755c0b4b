package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileKey(t *testing.T) {
	assert.Equal(t, "user:profile:42", profileKey(42))
	assert.Equal(t, "user:profile:-1", profileKey(-1))
}

func TestBucketResult(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	// 60 per minute = 0.001 per millisecond.
	perMilli := 60.0 / 60000.0

	t.Run("allowed", func(t *testing.T) {
		got := bucketResult(now, []int64{1, 0, 9}, perMilli, 10)
		assert.True(t, got.Allowed)
		assert.Equal(t, int64(9), got.Remaining)
		assert.Equal(t, time.Duration(0), got.RetryAfter)
		assert.Equal(t, now.Add(time.Second), got.ResetAt)
	})

	t.Run("denied", func(t *testing.T) {
		got := bucketResult(now, []int64{0, 750, 0}, perMilli, 10)
		assert.False(t, got.Allowed)
		assert.Equal(t, int64(0), got.Remaining)
		assert.Equal(t, 750*time.Millisecond, got.RetryAfter)
		assert.Equal(t, now.Add(10*time.Second), got.ResetAt)
	})
}

func TestWithProfileTTL(t *testing.T) {
	c := NewWithClient(nil, WithProfileTTL(time.Minute))
	assert.Equal(t, time.Minute, c.profileTTL)

	c = NewWithClient(nil, WithProfileTTL(0))
	assert.Equal(t, DefaultProfileTTL, c.profileTTL)
}
