// Package cache stores rendered chat replies so a repeated question from the
// same user skips the specialists.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a cached reply stays valid.
const DefaultTTL = 10 * time.Minute

type Cache interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
