package utils

import (
	"strings"
	"testing"
)

func TestNormalizeItemText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Task with spaces  ", "Task with spaces"},
		{"\tTabbed\n", "Tabbed"},
		{"   ", ""},
		{"inner  spaces kept", "inner  spaces kept"},
	}
	for _, tt := range tests {
		if got := NormalizeItemText(tt.in); got != tt.want {
			t.Errorf("NormalizeItemText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateItemText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		limit   int
		wantErr string
	}{
		{"valid", "Buy milk", 40, ""},
		{"empty", "", 40, "empty"},
		{"whitespace only", "   ", 40, "empty"},
		{"at limit", strings.Repeat("a", 40), 40, ""},
		{"over limit", strings.Repeat("a", 41), 40, "limit is 40"},
		{"limit counts runes", strings.Repeat("日", 40), 40, ""},
		{"trimmed before length check", "  " + strings.Repeat("a", 40) + "  ", 40, ""},
		{"no limit", strings.Repeat("a", 1000), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItemText(tt.text, tt.limit)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateItemText error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateItemText error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
