package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrItemNotFound returns an error for when no rendered item has the id.
func ErrItemNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("item not found: %s", id),
		Suggestion: "Use 'todolist list' to see item ids",
	}
}

// ErrEmptyItem returns an error for blank item text.
func ErrEmptyItem() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("item text is empty"),
		Suggestion: "Provide some text, e.g. todolist add \"Buy milk\"",
	}
}

// ErrItemTooLong returns an error for item text over the input limit.
func ErrItemTooLong(length, limit int) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("item text is %d characters, limit is %d", length, limit),
		Suggestion: "Shorten the text or raise ui.max_item_length in your config file",
	}
}

// ErrPersistedData wraps a failure to decode the stored list.
func ErrPersistedData(err error) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: "The stored list is corrupt. Run 'todolist clear --no-prompt' to reset it",
	}
}

// ErrBackendNotConfigured returns an error when a backend is not configured.
func ErrBackendNotConfigured(name string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("backend not configured: %s", name),
		Suggestion: fmt.Sprintf("Set storage.backend to one of: %s", strings.Join(valid, ", ")),
	}
}

// ErrNotATerminal returns an error when an interactive command has no TTY.
func ErrNotATerminal(command string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%s requires an interactive terminal", command),
		Suggestion: "Use the non-interactive commands (list, add, toggle, delete, clear) instead",
	}
}
