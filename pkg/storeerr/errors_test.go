package storeerr

import "testing"

func TestStoreErrorMessageIncludesPath(t *testing.T) {
	err := NewNotFoundError("/tmp/a_1.xml")
	want := "item not found: /tmp/a_1.xml"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestStoreErrorMessageWithoutPath(t *testing.T) {
	err := NewUnterminatedPropertyError()
	want := "unterminated property element"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewIOErrorWrapsCause(t *testing.T) {
	cause := NewInvalidPropertyError("boom")
	err := NewIOError("/tmp/x", cause)
	if err.Code != ErrIO {
		t.Errorf("Code = %v, want ErrIO", err.Code)
	}
	if err.Message != "boom" {
		t.Errorf("Message = %q, want %q", err.Message, "boom")
	}
}
