// Package writepipeline drives a single write request: it pumps the
// request body through a PropertyStreamParser, re-serialises each
// recognised property to canonical XML, and appends the bytes through the
// item's SharedFile.
package writepipeline

import (
	"io"

	"github.com/marmos91/propstream/pkg/fileregistry"
	"github.com/marmos91/propstream/pkg/itemkey"
	"github.com/marmos91/propstream/pkg/itemstore"
	"github.com/marmos91/propstream/pkg/propertymodel"
	"github.com/marmos91/propstream/pkg/propertystream"
	"github.com/marmos91/propstream/pkg/storeerr"
)

// Result summarises the outcome of a write request.
type Result struct {
	PropertiesWritten int
	BytesAppended     int64
	Errors            []error
}

// Pipeline wires ItemStore and FileRegistry for write requests.
type Pipeline struct {
	store    *itemstore.Store
	registry *fileregistry.Registry

	maxPropertySize int
	readChunkSize   int
}

// New constructs a Pipeline. maxPropertySize configures the parser's
// per-property buffered size limit (0 uses propertystream's default).
func New(store *itemstore.Store, registry *fileregistry.Registry, maxPropertySize int) *Pipeline {
	return &Pipeline{store: store, registry: registry, maxPropertySize: maxPropertySize, readChunkSize: 32 * 1024}
}

// Run consumes body, appending every validated property to the data file
// for key. It returns VersionConflict / Io immediately if the item cannot
// be prepared for writing, Busy if another writer already holds the key,
// and otherwise a Result describing how many properties were persisted and
// which per-property errors were encountered along the way. If no property
// was written, the Result comes with an InvalidProperty error.
func (p *Pipeline) Run(key itemkey.Key, body io.Reader) (Result, error) {
	path, err := p.store.PrepareWrite(key)
	if err != nil {
		return Result{}, err
	}

	handle, err := p.registry.AcquireWriter(key, path)
	if err != nil {
		return Result{}, err
	}
	defer handle.Release()

	parser := propertystream.New(p.maxPropertySize)

	var result Result
	var appendErr error
	buf := make([]byte, p.chunkSize())

	for appendErr == nil {
		n, readErr := body.Read(buf)
		if n > 0 {
			props, errs := parser.Feed(buf[:n])
			result.Errors = append(result.Errors, errs...)
			for i := range props {
				if err := p.appendProperty(handle.File, &props[i], &result); err != nil {
					appendErr = err
					break
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				appendErr = storeerr.NewIOError(path, readErr)
			}
			break
		}
	}

	if appendErr != nil {
		handle.File.Close(appendErr)
		return result, appendErr
	}

	if finishErrs := parser.Finish(); len(finishErrs) > 0 {
		result.Errors = append(result.Errors, finishErrs...)
	}

	handle.File.Close(nil)

	if result.PropertiesWritten == 0 {
		return result, storeerr.NewInvalidPropertyError("no valid properties were written")
	}
	return result, nil
}

func (p *Pipeline) chunkSize() int {
	if p.readChunkSize <= 0 {
		return 32 * 1024
	}
	return p.readChunkSize
}

func (p *Pipeline) appendProperty(sf interface {
	Append([]byte) error
}, prop *propertymodel.Property, result *Result) error {
	encoded, err := propertymodel.Encode(prop)
	if err != nil {
		result.Errors = append(result.Errors, err)
		return nil
	}
	if err := sf.Append(encoded); err != nil {
		return err
	}
	result.PropertiesWritten++
	result.BytesAppended += int64(len(encoded))
	return nil
}
