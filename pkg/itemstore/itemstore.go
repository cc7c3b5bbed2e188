// Package itemstore resolves the filesystem layout rooted at a configured
// storage directory: data file and metadata sidecar paths, metadata
// creation, and the version-conflict check that gates every write.
package itemstore

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/renameio/v2"

	"github.com/marmos91/propstream/pkg/itemkey"
	"github.com/marmos91/propstream/pkg/storeerr"
)

// Metadata is the per-item sidecar content: the current recorded version
// and the item's creation timestamp.
type Metadata struct {
	XMLName xml.Name  `xml:"metadata"`
	Version int64     `xml:"version"`
	Created time.Time `xml:"created"`
}

// Store resolves paths under a single root directory.
type Store struct {
	root string
}

// New constructs a Store rooted at root. The directory is created if
// absent.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, storeerr.NewIOError(root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) dataPath(key itemkey.Key) string {
	return filepath.Join(s.root, key.DataFileName())
}

func (s *Store) metadataPath(key itemkey.Key) string {
	return filepath.Join(s.root, key.MetadataFileName())
}

// PrepareWrite reads the item's metadata if present. On the first write to
// an item_id it creates the metadata with the requested version. If
// metadata exists and its version differs from the requested version, it
// fails with VersionConflict. It creates the data file if absent and
// returns its path.
func (s *Store) PrepareWrite(key itemkey.Key) (string, error) {
	metaPath := s.metadataPath(key)

	meta, err := readMetadata(metaPath)
	if err != nil && !os.IsNotExist(err) {
		return "", storeerr.NewIOError(metaPath, err)
	}

	if err == nil {
		if meta.Version != key.Version {
			return "", storeerr.NewVersionConflictError(key.ItemID)
		}
	} else {
		meta = &Metadata{Version: key.Version, Created: time.Now().UTC()}
		if err := writeMetadata(metaPath, meta); err != nil {
			return "", storeerr.NewIOError(metaPath, err)
		}
	}

	dataPath := s.dataPath(key)
	f, err := os.OpenFile(dataPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", storeerr.NewIOError(dataPath, err)
	}
	_ = f.Close()

	return dataPath, nil
}

// PrepareRead returns the data file path for key. It fails with NotFound
// only when neither the data file nor a pending writer entry exists; the
// caller supplies hasActiveWriter from the FileRegistry to cover the case
// where a reader attaches before any bytes have hit disk.
func (s *Store) PrepareRead(key itemkey.Key, hasActiveWriter bool) (string, error) {
	dataPath := s.dataPath(key)
	if _, err := os.Stat(dataPath); err == nil {
		return dataPath, nil
	} else if !os.IsNotExist(err) {
		return "", storeerr.NewIOError(dataPath, err)
	}

	if hasActiveWriter {
		return dataPath, nil
	}
	return "", storeerr.NewNotFoundError(dataPath)
}

func readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, storeerr.NewIOError(path, err)
	}
	return &m, nil
}

// writeMetadata renders m as canonical metadata XML and writes it
// atomically via renameio, so a crash mid-write never leaves a
// half-written metadata file behind.
func writeMetadata(path string, m *Metadata) error {
	var buf bytes.Buffer
	buf.WriteString(`<metadata><version>`)
	buf.WriteString(strconv.FormatInt(m.Version, 10))
	buf.WriteString(`</version><created>`)
	buf.WriteString(m.Created.Format(time.RFC3339))
	buf.WriteString(`</created></metadata>`)

	return renameio.WriteFile(path, buf.Bytes(), 0o644)
}
