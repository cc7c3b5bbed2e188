// Package readpipeline streams the bytes of an item's data file from
// offset zero up to its current watermark, blocking for new bytes as they
// arrive and terminating once the file is closed and fully drained.
package readpipeline

import (
	"context"
	"io"

	"github.com/marmos91/propstream/pkg/fileregistry"
	"github.com/marmos91/propstream/pkg/itemkey"
	"github.com/marmos91/propstream/pkg/itemstore"
)

// Pipeline wires ItemStore and FileRegistry for read requests.
type Pipeline struct {
	store    *itemstore.Store
	registry *fileregistry.Registry
}

// New constructs a Pipeline.
func New(store *itemstore.Store, registry *fileregistry.Registry) *Pipeline {
	return &Pipeline{store: store, registry: registry}
}

// Open resolves key to a live stream, returning NotFound if neither a data
// file nor an active writer exists for it. The returned Stream must be
// closed by the caller.
func (p *Pipeline) Open(ctx context.Context, key itemkey.Key) (*Stream, error) {
	hasWriter := p.registry.Has(key)
	path, err := p.store.PrepareRead(key, hasWriter)
	if err != nil {
		return nil, err
	}

	handle, err := p.registry.AcquireReader(key, path)
	if err != nil {
		return nil, err
	}

	return &Stream{ctx: ctx, handle: handle}, nil
}

// Stream is an io.ReadCloser over an item's data file, unblocking Read as
// new bytes are appended and returning io.EOF once the file is closed and
// every appended byte has been delivered.
type Stream struct {
	ctx    context.Context
	handle *fileregistry.Handle
	offset int64
	closed bool
}

// Read implements io.Reader. It blocks past the last known watermark until
// either new bytes are appended, the underlying file is closed with all
// bytes delivered (io.EOF), or the stream's context is cancelled.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		watermark, closed := s.handle.File.Snapshot()
		if s.offset < watermark {
			n := len(p)
			if avail := watermark - s.offset; int64(n) > avail {
				n = int(avail)
			}
			read, err := s.handle.File.ReadAt(p[:n], s.offset)
			if read > 0 {
				s.offset += int64(read)
				return read, nil
			}
			if err != nil && err != io.EOF {
				return 0, err
			}
			continue
		}
		if closed {
			return 0, io.EOF
		}

		newWatermark, newClosed, err := s.handle.File.WaitForChange(s.ctx, s.offset)
		if err != nil {
			return 0, err
		}
		if s.offset >= newWatermark && newClosed {
			return 0, io.EOF
		}
	}
}

// Close releases the registry handle. Safe to call once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.handle.Release()
	return nil
}
