package propertymodel

import (
	"bytes"
	"encoding/xml"

	"github.com/marmos91/propstream/pkg/storeerr"
)

// Property pairs a name (the "for" attribute) with a typed value.
type Property struct {
	Name  string
	Value PropertyValue
}

// NewProperty validates name and constructs a Property.
func NewProperty(name string, value PropertyValue) (*Property, error) {
	if name == "" {
		return nil, storeerr.NewInvalidPropertyError("property name must not be empty")
	}
	return &Property{Name: name, Value: value}, nil
}

// Encode renders p as the canonical property XML fragment:
//
//	<property for="NAME"><TYPE>PAYLOAD</TYPE></property>
//
// NAME is XML-attribute-escaped. PAYLOAD is XML-text-escaped for
// strings, canonical decimal for numbers, lower-case true/false for
// booleans, the original validated text for datetimes, and unbroken
// base64 for binaries.
func Encode(p *Property) ([]byte, error) {
	if p.Name == "" {
		return nil, storeerr.NewInvalidPropertyError("property name must not be empty")
	}

	tag := p.Value.kind.tagName()
	if tag == "" {
		return nil, storeerr.NewInvalidPropertyError("unknown property value kind")
	}

	var payload string
	switch p.Value.kind {
	case KindString:
		payload = escapeText(p.Value.str)
	case KindNumber:
		payload = formatNumber(p.Value.num)
	case KindBoolean:
		payload = boolText(p.Value.boo)
	case KindDateTime:
		payload = escapeText(p.Value.str)
	case KindBinary:
		payload = formatBinary(p.Value.bytes)
	}

	var buf bytes.Buffer
	buf.WriteString(`<property for="`)
	buf.WriteString(escapeAttr(p.Name))
	buf.WriteString(`"><`)
	buf.WriteString(tag)
	buf.WriteString(`>`)
	buf.WriteString(payload)
	buf.WriteString(`</`)
	buf.WriteString(tag)
	buf.WriteString(`></property>`)
	return buf.Bytes(), nil
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// escapeText escapes text content for placement between XML tags.
func escapeText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// escapeAttr escapes a string for placement inside a double-quoted XML
// attribute value. xml.EscapeText already escapes '"' and '\'', so it is
// safe for both contexts.
func escapeAttr(s string) string {
	return escapeText(s)
}

// DecodeTyped constructs a PropertyValue from a resolved type tag name
// and its already entity-decoded text content. Used by the stream
// parser once it has isolated a property's single type-tagged child.
func DecodeTyped(tag, text string) (PropertyValue, error) {
	kind, ok := KindFromTag(tag)
	if !ok {
		return PropertyValue{}, storeerr.NewInvalidPropertyError("unknown property type: " + tag)
	}
	switch kind {
	case KindString:
		return NewStringValue(text), nil
	case KindNumber:
		return ParseNumberText(text)
	case KindBoolean:
		return ParseBooleanText(text)
	case KindDateTime:
		return NewDateTimeValue(text)
	case KindBinary:
		return ParseBinaryText(text)
	default:
		return PropertyValue{}, storeerr.NewInvalidPropertyError("unknown property type: " + tag)
	}
}
