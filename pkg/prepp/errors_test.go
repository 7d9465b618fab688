package prepp

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestMalformedDirectiveError(t *testing.T) {
	err := NewMalformedDirectiveError("main.in", 12, 5, "#deffine x")
	want := "main.in:12:5: malformed directive: #deffine x"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsMalformedDirectiveError(err) {
		t.Error("IsMalformedDirectiveError should match")
	}
	if IsMalformedDirectiveError(errors.New("other")) {
		t.Error("IsMalformedDirectiveError should not match other errors")
	}
}

func TestUndefinedVariableError(t *testing.T) {
	err := NewUndefinedVariableError("missing")
	if got := err.Error(); got != "undefined variable: missing" {
		t.Errorf("Error() = %q", got)
	}
	if !IsUndefinedVariableError(err) {
		t.Error("IsUndefinedVariableError should match")
	}
	wrapped := fmt.Errorf("run failed: %w", err)
	if !IsUndefinedVariableError(wrapped) {
		t.Error("IsUndefinedVariableError should match through wrapping")
	}
}

func TestMissingIncludeError(t *testing.T) {
	cause := fs.ErrNotExist
	err := NewMissingIncludeError("parts/header.in", cause)
	if !strings.Contains(err.Error(), "parts/header.in") {
		t.Errorf("Error() = %q, want the path included", err.Error())
	}
	if !IsMissingIncludeError(err) {
		t.Error("IsMissingIncludeError should match")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause should unwrap")
	}
}

func TestClosedStreamError(t *testing.T) {
	err := NewClosedStreamError("input.in")
	if !strings.Contains(err.Error(), "input.in") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsClosedStreamError(err) {
		t.Error("IsClosedStreamError should match")
	}
}

func TestInvalidForIterableError(t *testing.T) {
	err := NewInvalidForIterableError("42", errors.New("int is not iterable"))
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsInvalidForIterableError(err) {
		t.Error("IsInvalidForIterableError should match")
	}

	bare := NewInvalidForIterableError("x", nil)
	if strings.Contains(bare.Error(), "<nil>") {
		t.Errorf("Error() = %q, nil cause should be omitted", bare.Error())
	}
}
