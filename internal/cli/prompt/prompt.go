// Package prompt handles interactive row selection with no-prompt mode
// support. Commands that act on one item use it when no id is given.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"todolist/internal/views"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoItems            = errors.New("no items available")
	ErrNoMatches          = errors.New("no items match the filter")
)

// RowSelector lets the user pick one rendered row by filter and number.
type RowSelector struct {
	Rows     []views.Row
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the row selection prompt.
// If NoPrompt is true, returns ErrNoPromptMode.
// If there is exactly one row, auto-selects it.
// Otherwise, prompts the user to filter and select a row.
func (s *RowSelector) Run() (*views.Row, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}

	if len(s.Rows) == 0 {
		return nil, ErrNoItems
	}

	if len(s.Rows) == 1 {
		return &s.Rows[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	filtered := FilterRows(s.Rows, scanner.Text())
	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}

	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0].Text)
		return &filtered[0], nil
	}

	for i, r := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, FormatRow(r))
	}

	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}

	if num == 0 {
		return nil, ErrSelectionCancelled
	}

	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}

	return &filtered[num-1], nil
}

// FilterRows returns the rows whose text contains filter, case-insensitively.
// A blank filter keeps every row.
func FilterRows(rows []views.Row, filter string) []views.Row {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return rows
	}

	var out []views.Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Text), filter) {
			out = append(out, r)
		}
	}
	return out
}

// FormatRow formats a row as "[x] <id> <text>".
func FormatRow(r views.Row) string {
	mark := "[ ]"
	if r.Checked {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s %s", mark, r.ID, r.Text)
}
