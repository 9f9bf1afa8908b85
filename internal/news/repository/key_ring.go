package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// KeyRing hands out API keys in round-robin order. A call tries at most MaxAttempts
// distinct keys, moving the cursor past every key that failed.
type KeyRing struct {
	mu          sync.Mutex
	keys        []string
	cursor      int
	maxAttempts int
}

// NewKeyRing creates a KeyRing. A maxAttempts of zero, or one above len(keys), means one
// attempt per key.
func NewKeyRing(keys []string, maxAttempts int) (*KeyRing, error) {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return nil, errors.New("at least one api key is required")
	}
	if maxAttempts <= 0 || maxAttempts > len(filtered) {
		maxAttempts = len(filtered)
	}
	return &KeyRing{keys: filtered, maxAttempts: maxAttempts}, nil
}

// Len returns the number of keys in the ring.
func (k *KeyRing) Len() int {
	return len(k.keys)
}

func (k *KeyRing) current() (int, string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cursor, k.keys[k.cursor]
}

// advance moves the cursor past index unless another caller already did.
func (k *KeyRing) advance(index int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cursor == index {
		k.cursor = (k.cursor + 1) % len(k.keys)
	}
}

// Do calls fn with successive keys until one succeeds, the attempts run out or ctx is done.
func (k *KeyRing) Do(ctx context.Context, fn func(ctx context.Context, key string) error) error {
	var errs error
	for attempt := 0; attempt < k.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		index, key := k.current()
		err := fn(ctx, key)
		if err == nil {
			return nil
		}
		errs = multierr.Append(errs, fmt.Errorf("key #%d: %w", index+1, err))
		k.advance(index)
	}
	return fmt.Errorf("all %d attempts failed: %w", k.maxAttempts, errs)
}
