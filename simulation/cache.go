package simulation

import (
	"sync"
	"time"
)

// DiskSyncSeconds is the minimum interval between disk syncs of a cache
// module, following original_source/common/cache.py's DISK_SYNC_SECONDS.
const DiskSyncSeconds = 30 * time.Second

// diskSyncer is implemented by whatever persists a cache module's contents;
// the default NullSyncer is a no-op, keeping the disk-backed test database
// out of scope (spec.md §1) while preserving the sync hook contract.
type diskSyncer interface {
	Sync(module string, data map[string]interface{}) error
}

// NullSyncer never touches disk. It is the syncer NewCache installs, and the
// only diskSyncer this package provides.
type NullSyncer struct{}

// Sync implements diskSyncer.
func (NullSyncer) Sync(string, map[string]interface{}) error { return nil }

// Cache is a module-scoped, process-wide memoisation store guarded by a
// single RWMutex, matching the concurrency contract of spec.md §5: the
// sections memoisation cache is shared across every concurrently-running
// simulation, keyed by module name, protected by mutual exclusion.
type Cache struct {
	mu       sync.RWMutex
	data     map[string]map[string]interface{}
	lastSync map[string]time.Time
	syncer   diskSyncer
	disabled bool
}

// NewCache builds an enabled, in-memory cache with no disk persistence.
func NewCache() *Cache {
	return &Cache{
		data:     map[string]map[string]interface{}{},
		lastSync: map[string]time.Time{},
		syncer:   NullSyncer{},
	}
}

// SetDisabled toggles short-circuiting of Get/Save, mirroring
// Cache.is_disabled() in the original but as an explicit setter rather than
// an environment variable read, so tests can flip it deterministically.
func (c *Cache) SetDisabled(disabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = disabled
}

// IsDisabled reports whether the cache is globally short-circuited.
func (c *Cache) IsDisabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disabled
}

// GetFromKey returns the value stored under (module, key), or (nil, false)
// if absent or the cache is disabled. The returned value is a defensive
// deep copy for the slice/map shapes this package actually stores, so that
// mutating it never affects subsequent reads (spec.md §8 round-trip
// property).
func (c *Cache) GetFromKey(module, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.disabled {
		return nil, false
	}
	moduleData, ok := c.data[module]
	if !ok {
		return nil, false
	}
	v, ok := moduleData[key]
	if !ok {
		return nil, false
	}
	return deepCopyCacheValue(v), true
}

// SaveToKey stores value under (module, key) and triggers a disk sync if the
// module's last sync is older than DiskSyncSeconds.
func (c *Cache) SaveToKey(module, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled {
		return
	}
	moduleData, ok := c.data[module]
	if !ok {
		moduleData = map[string]interface{}{}
		c.data[module] = moduleData
	}
	moduleData[key] = deepCopyCacheValue(value)

	last, synced := c.lastSync[module]
	if !synced || time.Since(last) >= DiskSyncSeconds {
		_ = c.syncer.Sync(module, moduleData)
		c.lastSync[module] = time.Now()
	}
}

// ListKeys returns the keys currently stored for a module, for
// introspection/serialization purposes.
func (c *Cache) ListKeys(module string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	moduleData, ok := c.data[module]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(moduleData))
	for k := range moduleData {
		out = append(out, k)
	}
	return out
}

// ClearAll wipes every module's cached data. Used between test cases.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string]map[string]interface{}{}
	c.lastSync = map[string]time.Time{}
}

func deepCopyCacheValue(v interface{}) interface{} {
	switch t := v.(type) {
	case [][]string:
		out := make([][]string, len(t))
		for i, row := range t {
			cp := make([]string, len(row))
			copy(cp, row)
			out[i] = cp
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
