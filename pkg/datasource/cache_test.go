package datasource

import (
	"sync"
	"testing"
	"time"

	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	cache.Set("users", masking.String("payload"))

	v, ok := cache.Get("users")
	assert.True(t, ok)
	assert.Equal(t, "payload", v.Raw())
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	v, ok := cache.Get("nonexistent")
	assert.False(t, ok)
	assert.True(t, v.IsNull())
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("users", masking.String("content"))

	_, ok := cache.Get("users")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)

	_, ok = cache.Get("users")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry should be removed lazily")
}

func TestCache_Purge(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("users", masking.String("old"))
	now = now.Add(45 * time.Second)
	cache.Set("posts", masking.String("fresh"))
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, cache.Purge())
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("posts")
	assert.True(t, ok)

	assert.Equal(t, 0, cache.Purge(), "nothing left to purge")
}

func TestCache_Overwrite(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	cache.Set("users", masking.String("old"))
	cache.Set("users", masking.String("new"))

	v, ok := cache.Get("users")
	assert.True(t, ok)
	assert.Equal(t, "new", v.Raw())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache(1 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cache.Set("key", masking.String("value"))
		}()
		go func() {
			defer wg.Done()
			cache.Get("key")
		}()
	}
	wg.Wait()

	v, ok := cache.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v.Raw())
}
