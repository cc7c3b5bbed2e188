// Package itemkey defines the (item_id, version) pair that identifies a
// data file throughout the store.
package itemkey

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/marmos91/propstream/pkg/storeerr"
)

// Key pairs an item identifier with a version number.
type Key struct {
	ItemID  string
	Version int64
}

// Validate checks the invariants from the data model: ItemID is non-empty,
// printable, and contains no path separators; Version is non-negative.
func Validate(itemID string, version int64) (Key, error) {
	if itemID == "" {
		return Key{}, storeerr.NewInvalidPropertyError("item id must not be empty")
	}
	if strings.ContainsAny(itemID, "/\\") {
		return Key{}, storeerr.NewInvalidPropertyError("item id must not contain path separators: " + itemID)
	}
	for _, r := range itemID {
		if !unicode.IsPrint(r) {
			return Key{}, storeerr.NewInvalidPropertyError("item id must be printable")
		}
	}
	if version < 0 {
		return Key{}, storeerr.NewInvalidPropertyError("version must be non-negative")
	}
	return Key{ItemID: itemID, Version: version}, nil
}

// ParseVersion parses a version path segment into an int64, rejecting
// anything that is not a non-negative integer.
func ParseVersion(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < 0 {
		return 0, storeerr.NewInvalidPropertyError("version must be a non-negative integer: " + text)
	}
	return v, nil
}

func (k Key) String() string {
	return k.ItemID + "@" + strconv.FormatInt(k.Version, 10)
}

// DataFileName returns the data file basename for k: {item_id}_{version}.xml.
func (k Key) DataFileName() string {
	return k.ItemID + "_" + strconv.FormatInt(k.Version, 10) + ".xml"
}

// MetadataFileName returns the metadata sidecar basename for k's item:
// {item_id}_metadata.xml.
func (k Key) MetadataFileName() string {
	return k.ItemID + "_metadata.xml"
}
