// Package propertymodel defines the typed property value, the property
// record, and their canonical XML encoding.
package propertymodel

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"

	"github.com/marmos91/propstream/pkg/storeerr"
)

// Kind identifies which variant a PropertyValue holds.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindDateTime
	KindBinary
)

// tagName returns the XML type-tag name for the kind.
func (k Kind) tagName() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDateTime:
		return "datetime"
	case KindBinary:
		return "binary"
	default:
		return ""
	}
}

// KindFromTag maps an XML type-tag name back to a Kind. ok is false for
// an unrecognised tag.
func KindFromTag(tag string) (Kind, bool) {
	switch tag {
	case "string":
		return KindString, true
	case "number":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	case "datetime":
		return KindDateTime, true
	case "binary":
		return KindBinary, true
	default:
		return 0, false
	}
}

// PropertyValue is a tagged variant holding exactly one of the five
// property payload types. Construct one with the New* functions, which
// validate the payload.
type PropertyValue struct {
	kind Kind

	str   string // String text, DateTime text (verbatim, validated RFC3339)
	num   float64
	boo   bool
	bytes []byte // Binary payload, decoded
}

// Kind reports which variant v holds.
func (v PropertyValue) Kind() Kind { return v.kind }

// String returns the raw string for a KindString value. Only valid when
// Kind() == KindString.
func (v PropertyValue) String() string { return v.str }

// Number returns the float for a KindNumber value.
func (v PropertyValue) Number() float64 { return v.num }

// Boolean returns the bool for a KindBoolean value.
func (v PropertyValue) Boolean() bool { return v.boo }

// DateTime returns the original validated RFC3339 text for a
// KindDateTime value.
func (v PropertyValue) DateTime() string { return v.str }

// Binary returns the decoded bytes for a KindBinary value.
func (v PropertyValue) Binary() []byte { return v.bytes }

// NewStringValue constructs a KindString value. Any text is accepted;
// escaping happens at encode time.
func NewStringValue(text string) PropertyValue {
	return PropertyValue{kind: KindString, str: text}
}

// NewNumberValue constructs a KindNumber value. It rejects NaN and
// infinities with InvalidProperty.
func NewNumberValue(f float64) (PropertyValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return PropertyValue{}, storeerr.NewInvalidPropertyError("number must be finite")
	}
	return PropertyValue{kind: KindNumber, num: f}, nil
}

// NewBooleanValue constructs a KindBoolean value.
func NewBooleanValue(b bool) PropertyValue {
	return PropertyValue{kind: KindBoolean, boo: b}
}

// NewDateTimeValue constructs a KindDateTime value, validating that text
// parses as RFC3339. The original text is preserved verbatim.
func NewDateTimeValue(text string) (PropertyValue, error) {
	if _, err := time.Parse(time.RFC3339, text); err != nil {
		return PropertyValue{}, storeerr.NewInvalidPropertyError("datetime is not valid RFC3339: " + text)
	}
	return PropertyValue{kind: KindDateTime, str: text}, nil
}

// NewBinaryValue constructs a KindBinary value from already-decoded
// bytes.
func NewBinaryValue(b []byte) PropertyValue {
	return PropertyValue{kind: KindBinary, bytes: b}
}

// ParseNumberText parses a canonical or user-supplied decimal string
// into a KindNumber value.
func ParseNumberText(text string) (PropertyValue, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return PropertyValue{}, storeerr.NewInvalidPropertyError("number is not parsable: " + text)
	}
	return NewNumberValue(f)
}

// ParseBooleanText parses the exact lower-case tokens "true"/"false"
// into a KindBoolean value.
func ParseBooleanText(text string) (PropertyValue, error) {
	switch text {
	case "true":
		return NewBooleanValue(true), nil
	case "false":
		return NewBooleanValue(false), nil
	default:
		return PropertyValue{}, storeerr.NewInvalidPropertyError("boolean must be exactly true or false, got: " + text)
	}
}

// ParseBinaryText base64-decodes text into a KindBinary value.
func ParseBinaryText(text string) (PropertyValue, error) {
	decoded, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return PropertyValue{}, storeerr.NewInvalidPropertyError("binary payload is not valid base64")
	}
	return NewBinaryValue(decoded), nil
}

// formatNumber renders f in the shortest round-trip decimal form, without
// exponent notation.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBinary renders b as unbroken standard base64.
func formatBinary(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
