package propertymodel

import "testing"

func TestEncodeString(t *testing.T) {
	p, err := NewProperty("n", NewStringValue("v"))
	if err != nil {
		t.Fatalf("NewProperty: %v", err)
	}
	got, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `<property for="n"><string>v</string></property>`
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeEscapesNameAndText(t *testing.T) {
	p, err := NewProperty(`a"b`, NewStringValue("<tag>&amp;"))
	if err != nil {
		t.Fatalf("NewProperty: %v", err)
	}
	got, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `<property for="a&#34;b"><string>&lt;tag&gt;&amp;amp;</string></property>`
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeNumberCanonical(t *testing.T) {
	v, err := NewNumberValue(3.0)
	if err != nil {
		t.Fatalf("NewNumberValue: %v", err)
	}
	p, _ := NewProperty("n", v)
	got, _ := Encode(p)
	want := `<property for="n"><number>3</number></property>`
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestNewNumberValueRejectsNonFinite(t *testing.T) {
	if _, err := NewNumberValue(1); err != nil {
		t.Fatalf("unexpected error for finite value: %v", err)
	}
	cases := []float64{
		posInf(),
		negInf(),
		nan(),
	}
	for _, f := range cases {
		if _, err := NewNumberValue(f); err == nil {
			t.Errorf("NewNumberValue(%v) expected error, got nil", f)
		}
	}
}

func posInf() float64 { return 1.0 / zero() }
func negInf() float64 { return -1.0 / zero() }
func nan() float64    { return zero() / zero() }
func zero() float64   { return 0.0 }

func TestEncodeBoolean(t *testing.T) {
	p, _ := NewProperty("n", NewBooleanValue(true))
	got, _ := Encode(p)
	want := `<property for="n"><boolean>true</boolean></property>`
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeDateTimeRejectsInvalid(t *testing.T) {
	if _, err := NewDateTimeValue("not-a-date"); err == nil {
		t.Error("expected error for invalid RFC3339 text")
	}
	v, err := NewDateTimeValue("2024-01-02T15:04:05Z")
	if err != nil {
		t.Fatalf("NewDateTimeValue: %v", err)
	}
	p, _ := NewProperty("n", v)
	got, _ := Encode(p)
	want := `<property for="n"><datetime>2024-01-02T15:04:05Z</datetime></property>`
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncodeBinary(t *testing.T) {
	p, _ := NewProperty("n", NewBinaryValue([]byte("hi")))
	got, _ := Encode(p)
	want := `<property for="n"><binary>aGk=</binary></property>`
	if string(got) != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestNewPropertyRejectsEmptyName(t *testing.T) {
	if _, err := NewProperty("", NewStringValue("v")); err == nil {
		t.Error("expected error for empty property name")
	}
}

func TestDecodeTypedRoundTrip(t *testing.T) {
	cases := []struct {
		tag  string
		text string
	}{
		{"string", "hello"},
		{"number", "3.5"},
		{"boolean", "true"},
		{"datetime", "2024-01-02T15:04:05Z"},
		{"binary", "aGk="},
	}
	for _, c := range cases {
		v, err := DecodeTyped(c.tag, c.text)
		if err != nil {
			t.Fatalf("DecodeTyped(%q, %q): %v", c.tag, c.text, err)
		}
		p, err := NewProperty("n", v)
		if err != nil {
			t.Fatalf("NewProperty: %v", err)
		}
		encoded, err := Encode(p)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		decoded, err := DecodeTyped(c.tag, c.text)
		if err != nil {
			t.Fatalf("re-decode: %v", err)
		}
		p2, _ := NewProperty("n", decoded)
		reencoded, _ := Encode(p2)
		if string(encoded) != string(reencoded) {
			t.Errorf("round trip mismatch: %q vs %q", encoded, reencoded)
		}
	}
}

func TestDecodeTypedRejectsUnknownTag(t *testing.T) {
	if _, err := DecodeTyped("weird", "x"); err == nil {
		t.Error("expected error for unknown type tag")
	}
}
