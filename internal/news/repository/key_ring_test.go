package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyRing(t *testing.T) {
	_, err := NewKeyRing([]string{"", ""}, 3)
	assert.Error(t, err)

	ring, err := NewKeyRing([]string{"k1", "", "k2"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, ring.Len())
	assert.Equal(t, 2, ring.maxAttempts)

	ring, err = NewKeyRing([]string{"k1"}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, ring.maxAttempts)
}

func TestKeyRing_RotatesPastFailingKeys(t *testing.T) {
	ring, err := NewKeyRing([]string{"k1", "k2", "k3"}, 0)
	require.NoError(t, err)

	var tried []string
	err = ring.Do(context.Background(), func(_ context.Context, key string) error {
		tried = append(tried, key)
		if key == "k3" {
			return nil
		}
		return errors.New("quota exceeded")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2", "k3"}, tried)

	// the working key stays current
	tried = nil
	require.NoError(t, ring.Do(context.Background(), func(_ context.Context, key string) error {
		tried = append(tried, key)
		return nil
	}))
	assert.Equal(t, []string{"k3"}, tried)
}

func TestKeyRing_BoundedAttempts(t *testing.T) {
	ring, err := NewKeyRing([]string{"k1", "k2", "k3"}, 2)
	require.NoError(t, err)

	calls := 0
	err = ring.Do(context.Background(), func(context.Context, string) error {
		calls++
		return errors.New("quota exceeded")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.Contains(t, err.Error(), "key #1: quota exceeded")
	assert.Contains(t, err.Error(), "key #2: quota exceeded")

	// the next call starts from the key after the last failure
	var first string
	_ = ring.Do(context.Background(), func(_ context.Context, key string) error {
		first = key
		return nil
	})
	assert.Equal(t, "k3", first)
}

func TestKeyRing_StopsOnCancelledContext(t *testing.T) {
	ring, err := NewKeyRing([]string{"k1", "k2"}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err = ring.Do(ctx, func(context.Context, string) error {
		calls++
		cancel()
		return errors.New("interrupted")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
