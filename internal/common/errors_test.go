package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFindsWrappedCode(t *testing.T) {
	base := NewError(CodeNotFound, "application not found", nil)
	wrapped := fmt.Errorf("load: %w", base)
	if !Is(wrapped, CodeNotFound) {
		t.Fatal("expected wrapped error to carry not_found")
	}
	if Is(wrapped, CodeConflict) {
		t.Fatal("expected wrapped error not to carry conflict")
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatal("expected plain errors to map to internal")
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(CodeStorageFailure, "failed to commit", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
}

func TestParseUUID(t *testing.T) {
	id := NewUUID()
	parsed, err := ParseUUID(" " + id.String() + " ")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if parsed != id {
		t.Fatalf("expected %s, got %s", id, parsed)
	}
	if _, err := ParseUUID("not-a-uuid"); !Is(err, CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
