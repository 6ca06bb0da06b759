// Package item defines the to-do entry record.
package item

// Item is one to-do entry. The zero value is an unchecked item with an empty
// id and text.
type Item struct {
	ID      string
	Text    string
	Checked bool
}

// New creates an item with the given fields.
func New(id, text string, checked bool) *Item {
	return &Item{ID: id, Text: text, Checked: checked}
}

// Toggle flips the checked state.
func (i *Item) Toggle() {
	i.Checked = !i.Checked
}
