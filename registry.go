package permkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fernandezvara/dbkit"
)

// DefaultRegistryTTL is the staleness window after which the definition
// snapshot is reloaded. Definitions only change via deployment, not user
// action, so a generous window is safe.
const DefaultRegistryTTL = 5 * time.Minute

// DefinitionLoader supplies the full permission-definition universe.
type DefinitionLoader func(ctx context.Context) ([]PermissionDefinition, error)

// DatabaseLoader returns a DefinitionLoader reading permission_definitions.
func DatabaseLoader(db dbkit.IDB) DefinitionLoader {
	return func(ctx context.Context) ([]PermissionDefinition, error) {
		var defs []PermissionDefinition
		err := dbkit.WithErr1(db.NewSelect().Model(&defs).Order("key ASC").Scan(ctx), "LoadDefinitions").Err()
		if err != nil {
			return nil, err
		}
		return defs, nil
	}
}

// StaticLoader returns a DefinitionLoader serving a fixed catalog. Useful for
// tests and for deployments that compile the catalog in.
func StaticLoader(defs []PermissionDefinition) DefinitionLoader {
	return func(ctx context.Context) ([]PermissionDefinition, error) {
		return defs, nil
	}
}

// registrySnapshot is one immutable, complete view of the definition
// universe. Readers always observe either the prior snapshot or the next one,
// never a partial state.
type registrySnapshot struct {
	byKey    map[string]PermissionDefinition
	keys     []string
	loadedAt time.Time
}

func newSnapshot(defs []PermissionDefinition) *registrySnapshot {
	snap := &registrySnapshot{
		byKey:    make(map[string]PermissionDefinition, len(defs)),
		keys:     make([]string, 0, len(defs)),
		loadedAt: time.Now(),
	}
	for _, d := range defs {
		if _, dup := snap.byKey[d.Key]; dup {
			continue
		}
		snap.byKey[d.Key] = d
		snap.keys = append(snap.keys, d.Key)
	}
	return snap
}

// Registry is the process-wide catalog of permission definitions. It is
// read-mostly: lookups hit an atomically-swapped snapshot and never block,
// while refreshes happen at most once per TTL window (or on Invalidate).
type Registry struct {
	loader DefinitionLoader
	ttl    time.Duration
	log    *logrus.Logger

	snapshot  atomic.Pointer[registrySnapshot]
	refreshMu sync.Mutex

	tickerMu sync.Mutex
	stop     chan struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTTL overrides the snapshot staleness window.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithRegistryLogger sets the logger used for refresh failures.
func WithRegistryLogger(log *logrus.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates a definition registry backed by a loader.
//
// Example:
//
//	registry := permkit.NewRegistry(permkit.DatabaseLoader(db))
func NewRegistry(loader DefinitionLoader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader: loader,
		ttl:    DefaultRegistryTTL,
		log:    logrus.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewStaticRegistry creates a registry over a fixed catalog with no TTL
// refresh behavior beyond the initial load.
func NewStaticRegistry(defs []PermissionDefinition) *Registry {
	r := NewRegistry(StaticLoader(defs))
	r.snapshot.Store(newSnapshot(defs))
	return r
}

// Load forces a refresh of the snapshot. Concurrent callers coalesce: only
// one load runs at a time and the others reuse its result.
func (r *Registry) Load(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	defs, err := r.loader(ctx)
	if err != nil {
		return dbkit.WithErr1(err, "RegistryLoad").Err()
	}
	r.snapshot.Store(newSnapshot(defs))
	return nil
}

// Invalidate discards the current snapshot so the next read reloads.
func (r *Registry) Invalidate() {
	r.snapshot.Store(nil)
}

// LastLoaded returns when the current snapshot was loaded, or the zero time
// if nothing has been loaded yet.
func (r *Registry) LastLoaded() time.Time {
	if snap := r.snapshot.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

// current returns a usable snapshot, reloading if missing or stale. A failed
// reload keeps serving the previous snapshot and logs the error; only a
// failed initial load surfaces it.
func (r *Registry) current(ctx context.Context) (*registrySnapshot, error) {
	snap := r.snapshot.Load()
	if snap != nil && time.Since(snap.loadedAt) < r.ttl {
		return snap, nil
	}

	if err := r.Load(ctx); err != nil {
		if snap != nil {
			r.log.WithError(err).Warn("permkit: definition refresh failed, serving stale snapshot")
			return snap, nil
		}
		return nil, err
	}
	return r.snapshot.Load(), nil
}

// Get returns the definition for a key. The second return is false when the
// key is not part of the universe.
func (r *Registry) Get(ctx context.Context, key string) (PermissionDefinition, bool) {
	snap, err := r.current(ctx)
	if err != nil {
		return PermissionDefinition{}, false
	}
	def, ok := snap.byKey[key]
	return def, ok
}

// Has reports whether a key exists in the definition universe.
func (r *Registry) Has(ctx context.Context, key string) bool {
	_, ok := r.Get(ctx, key)
	return ok
}

// All returns every definition in the universe.
func (r *Registry) All(ctx context.Context) ([]PermissionDefinition, error) {
	snap, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]PermissionDefinition, 0, len(snap.byKey))
	for _, key := range snap.keys {
		defs = append(defs, snap.byKey[key])
	}
	return defs, nil
}

// Keys returns every permission key in the universe, in load order.
func (r *Registry) Keys(ctx context.Context) ([]string, error) {
	snap, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(snap.keys))
	copy(keys, snap.keys)
	return keys, nil
}

// Len returns the number of definitions in the universe.
func (r *Registry) Len(ctx context.Context) int {
	snap, err := r.current(ctx)
	if err != nil {
		return 0
	}
	return len(snap.keys)
}

// Start launches a background ticker refreshing the snapshot every TTL so
// in-request reads rarely pay the reload. Stop ends it. Start is a no-op if
// the ticker is already running.
func (r *Registry) Start(ctx context.Context) {
	r.tickerMu.Lock()
	defer r.tickerMu.Unlock()

	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(r.ttl)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Load(ctx); err != nil {
					r.log.WithError(err).Warn("permkit: background definition refresh failed")
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}(r.stop)
}

// Stop halts the background refresh ticker.
func (r *Registry) Stop() {
	r.tickerMu.Lock()
	defer r.tickerMu.Unlock()

	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}
