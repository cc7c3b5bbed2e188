// Package fileregistry implements the process-wide mapping from an item key
// to a reference-counted SharedFile. Operations on the map itself never
// perform blocking I/O while holding its lock: file open and advisory lock
// acquisition happen outside the critical section, with post-hoc insertion.
package fileregistry

import (
	"sync"

	"github.com/marmos91/propstream/pkg/itemkey"
	"github.com/marmos91/propstream/pkg/sharedfile"
	"github.com/marmos91/propstream/pkg/storeerr"
)

type entry struct {
	sf        *sharedfile.SharedFile
	refCount  int
	hasWriter bool
}

// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu      sync.Mutex
	entries map[itemkey.Key]*entry
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[itemkey.Key]*entry)}
}

// Handle is an acquired reference to a SharedFile. Call Release exactly
// once when done with it.
type Handle struct {
	registry *Registry
	key      itemkey.Key
	isWriter bool
	File     *sharedfile.SharedFile
}

// AcquireWriter returns the SharedFile for key, opening path for append if
// no entry exists yet. Fails with Busy if another in-process writer
// already holds the entry, or if the underlying OS-level exclusive lock is
// unavailable.
func (r *Registry) AcquireWriter(key itemkey.Key, path string) (*Handle, error) {
	r.mu.Lock()
	e, exists := r.entries[key]
	if exists {
		if e.hasWriter {
			r.mu.Unlock()
			return nil, storeerr.NewBusyError(path)
		}
		e.hasWriter = true
		e.refCount++
		r.mu.Unlock()

		if err := e.sf.PromoteToWriter(); err != nil {
			r.mu.Lock()
			e.hasWriter = false
			e.refCount--
			r.evictIfUnusedLocked(key, e)
			r.mu.Unlock()
			return nil, err
		}
		return &Handle{registry: r, key: key, isWriter: true, File: e.sf}, nil
	}
	r.mu.Unlock()

	sf, err := sharedfile.OpenForAppend(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, raced := r.entries[key]; raced {
		// Another goroutine created the entry while we were opening the
		// file outside the lock; prefer its entry and fail Busy if it
		// already has a writer, matching the in-process exclusion rule.
		r.mu.Unlock()
		sf.Close(nil)
		_ = sf.ReleaseFile()
		if existing.hasWriter {
			return nil, storeerr.NewBusyError(path)
		}
		return r.AcquireWriter(key, path)
	}
	e = &entry{sf: sf, refCount: 1, hasWriter: true}
	r.entries[key] = e
	r.mu.Unlock()

	return &Handle{registry: r, key: key, isWriter: true, File: sf}, nil
}

// AcquireReader returns the SharedFile for key, opening path read-shared if
// no entry exists yet. It succeeds as long as the file exists.
func (r *Registry) AcquireReader(key itemkey.Key, path string) (*Handle, error) {
	r.mu.Lock()
	if e, exists := r.entries[key]; exists {
		e.refCount++
		r.mu.Unlock()
		return &Handle{registry: r, key: key, File: e.sf}, nil
	}
	r.mu.Unlock()

	sf, err := sharedfile.OpenForRead(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, raced := r.entries[key]; raced {
		existing.refCount++
		r.mu.Unlock()
		sf.Close(nil)
		_ = sf.ReleaseFile()
		return &Handle{registry: r, key: key, File: existing.sf}, nil
	}
	e := &entry{sf: sf, refCount: 1}
	r.entries[key] = e
	r.mu.Unlock()

	return &Handle{registry: r, key: key, File: sf}, nil
}

// Release decrements the handle's reference count. The last release with
// no writer present evicts the entry and closes the underlying file.
func (h *Handle) Release() {
	r := h.registry
	r.mu.Lock()
	e, exists := r.entries[h.key]
	if !exists {
		r.mu.Unlock()
		return
	}
	if h.isWriter {
		e.hasWriter = false
	}
	e.refCount--
	r.evictIfUnusedLocked(h.key, e)
	r.mu.Unlock()
}

// evictIfUnusedLocked removes and closes e if it has no references left.
// r.mu must be held.
func (r *Registry) evictIfUnusedLocked(key itemkey.Key, e *entry) {
	if e.refCount > 0 || e.hasWriter {
		return
	}
	delete(r.entries, key)
	_ = e.sf.ReleaseFile()
}

// Has reports whether an entry exists for key, for NotFound checks in
// ItemStore.prepare_read.
func (r *Registry) Has(key itemkey.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[key]
	return exists
}
