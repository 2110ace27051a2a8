package permkit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistryStatic tests lookup over a fixed catalog
func TestRegistryStatic(t *testing.T) {
	registry := NewStaticRegistry(DefaultDefinitions())
	ctx := context.Background()

	def, ok := registry.Get(ctx, "finance.invoice.create")
	assert.True(t, ok)
	assert.Equal(t, "finance", def.Module)
	assert.Equal(t, "invoice", def.Resource)
	assert.Equal(t, "create", def.Action)
	assert.True(t, def.IsDelegatable)

	_, ok = registry.Get(ctx, "finance.invoice.unknown")
	assert.False(t, ok)

	assert.True(t, registry.Has(ctx, PermissionDelegate))
	assert.False(t, registry.Has(ctx, "no.such.key"))
	assert.Equal(t, len(DefaultDefinitions()), registry.Len(ctx))
}

// TestRegistryKeysAndAll tests enumeration
func TestRegistryKeysAndAll(t *testing.T) {
	defs := []PermissionDefinition{
		{Key: "a.b.c", Module: "a", Resource: "b", Action: "c"},
		{Key: "d.e.f", Module: "d", Resource: "e", Action: "f"},
	}
	registry := NewStaticRegistry(defs)
	ctx := context.Background()

	keys, err := registry.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.b.c", "d.e.f"}, keys)

	all, err := registry.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// TestRegistryDuplicateKeysCollapse tests that a loader returning duplicate
// keys yields one definition per key
func TestRegistryDuplicateKeysCollapse(t *testing.T) {
	registry := NewStaticRegistry([]PermissionDefinition{
		{Key: "a.b.c", Label: "first"},
		{Key: "a.b.c", Label: "second"},
	})
	ctx := context.Background()

	assert.Equal(t, 1, registry.Len(ctx))
	def, ok := registry.Get(ctx, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, "first", def.Label)
}

// TestRegistryLazyLoad tests that the first read triggers the loader
func TestRegistryLazyLoad(t *testing.T) {
	var calls int32
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		atomic.AddInt32(&calls, 1)
		return []PermissionDefinition{{Key: "a.b.c"}}, nil
	}

	registry := NewRegistry(loader)
	ctx := context.Background()

	assert.True(t, registry.Has(ctx, "a.b.c"))
	assert.True(t, registry.Has(ctx, "a.b.c"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fresh snapshot must not reload")
}

// TestRegistryTTLRefresh tests that a stale snapshot reloads
func TestRegistryTTLRefresh(t *testing.T) {
	var calls int32
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return []PermissionDefinition{{Key: "a.b.c"}}, nil
		}
		return []PermissionDefinition{{Key: "a.b.c"}, {Key: "d.e.f"}}, nil
	}

	registry := NewRegistry(loader, WithTTL(10*time.Millisecond))
	ctx := context.Background()

	assert.Equal(t, 1, registry.Len(ctx))

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 2, registry.Len(ctx))
	assert.True(t, registry.Has(ctx, "d.e.f"))
}

// TestRegistryInvalidate tests explicit invalidation
func TestRegistryInvalidate(t *testing.T) {
	var calls int32
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		atomic.AddInt32(&calls, 1)
		return []PermissionDefinition{{Key: "a.b.c"}}, nil
	}

	registry := NewRegistry(loader, WithTTL(time.Hour))
	ctx := context.Background()

	registry.Has(ctx, "a.b.c")
	registry.Invalidate()
	assert.True(t, registry.LastLoaded().IsZero())
	registry.Has(ctx, "a.b.c")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.False(t, registry.LastLoaded().IsZero())
}

// TestRegistryServesStaleOnFailure tests that a failed refresh keeps the
// previous snapshot instead of dropping reads
func TestRegistryServesStaleOnFailure(t *testing.T) {
	var calls int32
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		if atomic.AddInt32(&calls, 1) > 1 {
			return nil, errors.New("connection refused")
		}
		return []PermissionDefinition{{Key: "a.b.c"}}, nil
	}

	registry := NewRegistry(loader, WithTTL(5*time.Millisecond))
	ctx := context.Background()

	assert.True(t, registry.Has(ctx, "a.b.c"))

	time.Sleep(10 * time.Millisecond)

	// Refresh fails, prior snapshot still answers.
	assert.True(t, registry.Has(ctx, "a.b.c"))
}

// TestRegistryInitialLoadFailure tests that reads fail cleanly with no
// snapshot at all
func TestRegistryInitialLoadFailure(t *testing.T) {
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		return nil, errors.New("connection refused")
	}

	registry := NewRegistry(loader)
	ctx := context.Background()

	_, ok := registry.Get(ctx, "a.b.c")
	assert.False(t, ok)

	_, err := registry.Keys(ctx)
	assert.Error(t, err)

	assert.Equal(t, 0, registry.Len(ctx))
}

// TestRegistryConcurrentReaders tests that concurrent reads during refresh
// always observe a complete snapshot
func TestRegistryConcurrentReaders(t *testing.T) {
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		return []PermissionDefinition{{Key: "a.b.c"}, {Key: "d.e.f"}}, nil
	}

	registry := NewRegistry(loader, WithTTL(time.Millisecond))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				n := registry.Len(ctx)
				// Either nothing loaded yet (never, after first read) or the
				// full universe; a half-applied snapshot would show 1.
				assert.NotEqual(t, 1, n)
			}
		}()
	}
	wg.Wait()
}

// TestRegistryBackgroundRefresh tests the ticker lifecycle
func TestRegistryBackgroundRefresh(t *testing.T) {
	var calls int32
	loader := func(ctx context.Context) ([]PermissionDefinition, error) {
		atomic.AddInt32(&calls, 1)
		return []PermissionDefinition{{Key: "a.b.c"}}, nil
	}

	registry := NewRegistry(loader, WithTTL(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry.Start(ctx)
	registry.Start(ctx) // second Start is a no-op
	defer registry.Stop()

	time.Sleep(25 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))

	registry.Stop()
	registry.Stop() // idempotent
}
