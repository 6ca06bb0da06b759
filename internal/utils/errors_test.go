package utils

import (
	"errors"
	"strings"
	"testing"
)

// TestErrorWithSuggestionImplementsError verifies interface compliance
func TestErrorWithSuggestionImplementsError(t *testing.T) {
	var _ error = &ErrorWithSuggestion{}
}

// TestErrorWithSuggestionError verifies Error() method output
func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("something went wrong"),
		Suggestion: "Try doing X",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "something went wrong") {
		t.Errorf("Error() should contain error message, got: %s", errStr)
	}
	if !strings.Contains(errStr, "Suggestion: Try doing X") {
		t.Errorf("Error() should contain suggestion, got: %s", errStr)
	}
	if err.GetSuggestion() != "Try doing X" {
		t.Errorf("GetSuggestion() = %s, want 'Try doing X'", err.GetSuggestion())
	}
}

// TestErrorWithSuggestionUnwrap verifies Unwrap() for error chain
func TestErrorWithSuggestionUnwrap(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := WrapWithSuggestion(sentinel, "hint")

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped error")
	}

	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatal("errors.As should find ErrorWithSuggestion")
	}
	if ews.Suggestion != "hint" {
		t.Errorf("Suggestion = %q, want %q", ews.Suggestion, "hint")
	}
}

// TestErrorConstructors verifies messages and suggestions of the helpers
func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantMsg        string
		wantSuggestion string
	}{
		{"item not found", ErrItemNotFound("7"), "item not found: 7", "todolist list"},
		{"empty item", ErrEmptyItem(), "item text is empty", "todolist add"},
		{"too long", ErrItemTooLong(41, 40), "41 characters, limit is 40", "ui.max_item_length"},
		{"persisted data", ErrPersistedData(errors.New("bad bytes")), "bad bytes", "todolist clear"},
		{"backend", ErrBackendNotConfigured("redis", []string{"sqlite", "file"}), "backend not configured: redis", "sqlite, file"},
		{"terminal", ErrNotATerminal("tui"), "tui requires an interactive terminal", "non-interactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ews *ErrorWithSuggestion
			if !errors.As(tt.err, &ews) {
				t.Fatalf("%v is not an ErrorWithSuggestion", tt.err)
			}
			if !strings.Contains(ews.Err.Error(), tt.wantMsg) {
				t.Errorf("message = %q, want to contain %q", ews.Err.Error(), tt.wantMsg)
			}
			if !strings.Contains(ews.Suggestion, tt.wantSuggestion) {
				t.Errorf("suggestion = %q, want to contain %q", ews.Suggestion, tt.wantSuggestion)
			}
		})
	}
}
