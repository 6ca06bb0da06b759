package item

import "testing"

func TestZeroValueDefaults(t *testing.T) {
	var it Item
	if it.ID != "" || it.Text != "" || it.Checked {
		t.Errorf("zero Item = %+v, want empty unchecked item", it)
	}
}

func TestNew(t *testing.T) {
	it := New("42", "Buy milk", true)
	if it.ID != "42" {
		t.Errorf("ID = %q, want %q", it.ID, "42")
	}
	if it.Text != "Buy milk" {
		t.Errorf("Text = %q, want %q", it.Text, "Buy milk")
	}
	if !it.Checked {
		t.Error("Checked = false, want true")
	}
}

func TestFieldAssignment(t *testing.T) {
	it := New("1", "old", false)
	it.ID = "7"
	it.Text = "new"
	it.Checked = true

	if it.ID != "7" || it.Text != "new" || !it.Checked {
		t.Errorf("after assignment item = %+v", *it)
	}
}

func TestToggle(t *testing.T) {
	it := New("1", "Task", false)
	for i, want := range []bool{true, false, true} {
		it.Toggle()
		if it.Checked != want {
			t.Errorf("toggle %d: Checked = %v, want %v", i+1, it.Checked, want)
		}
	}
}

func TestTextIsStoredVerbatim(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"markup", `<script>alert("xss")</script>`},
		{"special characters", `< > & " ' / \ @ # $ %`},
		{"unicode", "🎉 日本語 тест"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New("1", tt.text, false)
			if it.Text != tt.text {
				t.Errorf("Text = %q, want %q", it.Text, tt.text)
			}
		})
	}
}
