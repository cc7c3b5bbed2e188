// Package sharedfile implements the per-(item,version) append-only file
// handle: a byte-length watermark, a closed flag, and a change broadcaster
// that wakes readers on every append. It is the single point of truth for
// the open data file of one item key, shared between exactly one writer
// and any number of readers.
package sharedfile

import (
	"context"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"github.com/marmos91/propstream/pkg/storeerr"
)

// SharedFile is safe for concurrent use. Construct one with OpenForAppend
// or OpenForRead.
type SharedFile struct {
	path string
	file *os.File
	lock *flock.Flock

	mu        sync.Mutex
	watermark int64
	closed    bool
	closeErr  error
	gen       chan struct{} // closed and replaced on every watermark/closed change
}

// OpenForAppend opens path in append mode and acquires an OS-level
// exclusive advisory lock, failing with Busy if another process already
// holds it. The initial watermark is the file's current size.
func OpenForAppend(path string) (*SharedFile, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, storeerr.NewIOError(path, err)
	}
	if !ok {
		return nil, storeerr.NewBusyError(path)
	}

	// O_RDWR, not O_WRONLY: readers that attach while this writer is
	// active share this same handle and call ReadAt on it (see
	// FileRegistry.AcquireReader); pread on an O_WRONLY descriptor
	// fails with EBADF.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, storeerr.NewIOError(path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, storeerr.NewIOError(path, err)
	}

	return &SharedFile{
		path:      path,
		file:      f,
		lock:      lock,
		watermark: info.Size(),
		gen:       make(chan struct{}),
	}, nil
}

// OpenForRead opens path read-only with a shared advisory lock. The
// initial watermark is the file's current size.
func OpenForRead(path string) (*SharedFile, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryRLock()
	if err != nil {
		return nil, storeerr.NewIOError(path, err)
	}
	if !ok {
		return nil, storeerr.NewBusyError(path)
	}

	f, err := os.Open(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, storeerr.NewIOError(path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = lock.Unlock()
		return nil, storeerr.NewIOError(path, err)
	}

	return &SharedFile{
		path:      path,
		file:      f,
		lock:      lock,
		watermark: info.Size(),
		gen:       make(chan struct{}),
	}, nil
}

// PromoteToWriter upgrades a read-shared handle (opened by OpenForRead) to
// a writer handle: it swaps the shared advisory lock for an exclusive one
// and reopens the underlying file in append mode, without disturbing the
// watermark or any goroutine already blocked in WaitForChange. Used when a
// second write targets a version that a reader has already attached to.
// Fails with Busy if another process holds the exclusive lock.
func (s *SharedFile) PromoteToWriter() error {
	if err := s.lock.Unlock(); err != nil {
		return storeerr.NewIOError(s.path, err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return storeerr.NewIOError(s.path, err)
	}
	if !ok {
		return storeerr.NewBusyError(s.path)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return storeerr.NewIOError(s.path, err)
	}

	s.mu.Lock()
	old := s.file
	s.file = f
	s.mu.Unlock()
	_ = old.Close()
	return nil
}

// Append writes data, flushes it to the OS, advances the watermark by
// len(data), and broadcasts the change. Watermark updates are published
// only once the bytes are visible to a subsequent read of the same file.
func (s *SharedFile) Append(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := s.file.Write(data); err != nil {
		return storeerr.NewIOError(s.path, err)
	}

	s.mu.Lock()
	s.watermark += int64(len(data))
	s.broadcastLocked()
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current watermark and closed flag without blocking.
func (s *SharedFile) Snapshot() (watermark int64, closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark, s.closed
}

// WaitForChange suspends until the watermark exceeds since, the file is
// closed, or ctx is cancelled.
func (s *SharedFile) WaitForChange(ctx context.Context, since int64) (watermark int64, closed bool, err error) {
	for {
		s.mu.Lock()
		if s.watermark > since || s.closed {
			watermark, closed = s.watermark, s.closed
			s.mu.Unlock()
			return watermark, closed, nil
		}
		wake := s.gen
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}
}

// ReadAt reads len(p) bytes starting at off from the underlying file. It is
// safe to call concurrently with Append and with other ReadAt calls.
func (s *SharedFile) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	f := s.file
	s.mu.Unlock()
	return f.ReadAt(p, off)
}

// Close marks the file closed, with an optional error status, broadcasts
// once, and releases the exclusive/shared advisory lock. The underlying OS
// file is not closed here; the caller closes it once the last reference
// drops (see FileRegistry).
func (s *SharedFile) Close(closeErr error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.closeErr = closeErr
	s.broadcastLocked()
	s.mu.Unlock()

	_ = s.lock.Unlock()
}

// CloseErr returns the error status passed to Close, if any.
func (s *SharedFile) CloseErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}

// ReleaseFile closes the underlying OS file handle. Called by FileRegistry
// once the last reference to this SharedFile is released.
func (s *SharedFile) ReleaseFile() error {
	return s.file.Close()
}

// Path returns the data file path this handle was opened for.
func (s *SharedFile) Path() string {
	return s.path
}

// broadcastLocked wakes every current WaitForChange caller. s.mu must be
// held. Closing the channel notifies all waiters at once; a fresh channel
// is installed so future waiters block until the next change.
func (s *SharedFile) broadcastLocked() {
	close(s.gen)
	s.gen = make(chan struct{})
}
