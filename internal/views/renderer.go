// Package views mirrors the list store into the page's list container.
package views

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"todolist/internal/dom"
	"todolist/internal/item"
)

// DefaultContainerID is the id of the <ul> the list is rendered into.
const DefaultContainerID = "listItems"

// Store is the subset of list.Store the renderer needs.
type Store interface {
	Items() []*item.Item
	Remove(ctx context.Context, id string) error
	SetChecked(ctx context.Context, id string, checked bool) (bool, error)
}

// MissingMountError reports that a required page element is absent.
type MissingMountError struct {
	ID string
}

func (e *MissingMountError) Error() string {
	return fmt.Sprintf("page element #%s not found", e.ID)
}

// Row is what one rendered list row shows.
type Row struct {
	ID      string
	Text    string
	Checked bool
}

// Renderer rebuilds the container's rows from a store. Every render is a full
// rebuild.
type Renderer struct {
	doc       *dom.Document
	container *html.Node
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	containerID string
}

// WithContainerID mounts the renderer on a different element.
func WithContainerID(id string) Option {
	return func(c *config) {
		c.containerID = id
	}
}

// NewRenderer mounts a renderer on the container element of doc. It fails
// with *MissingMountError when the element does not exist.
func NewRenderer(doc *dom.Document, opts ...Option) (*Renderer, error) {
	cfg := config{containerID: DefaultContainerID}
	for _, opt := range opts {
		opt(&cfg)
	}

	container := doc.GetElementByID(cfg.containerID)
	if container == nil {
		return nil, &MissingMountError{ID: cfg.containerID}
	}
	return &Renderer{doc: doc, container: container}, nil
}

// Container returns the mounted element.
func (r *Renderer) Container() *html.Node {
	return r.container
}

// Clear removes every row.
func (r *Renderer) Clear() {
	r.doc.RemoveChildren(r.container)
}

// Render clears the container and adds one row per item, newest first.
func (r *Renderer) Render(store Store) {
	r.Clear()

	items := store.Items()
	for i := len(items) - 1; i >= 0; i-- {
		r.container.AppendChild(r.row(store, items[i]))
	}
}

// row builds <li class="item"> with a checkbox, its label and a delete button.
func (r *Renderer) row(store Store, it *item.Item) *html.Node {
	li := dom.CreateElement("li")
	dom.SetAttr(li, "class", "item")

	check := dom.CreateElement("input")
	dom.SetAttr(check, "type", "checkbox")
	dom.SetAttr(check, "id", it.ID)
	dom.SetAttr(check, "tabindex", "0")
	dom.SetChecked(check, it.Checked)
	li.AppendChild(check)

	id := it.ID
	// The checkbox already shows the new state, so no re-render.
	r.doc.AddEventListener(check, dom.EventChange, func(ctx context.Context, ev *dom.Event) error {
		_, err := store.SetChecked(ctx, id, dom.IsChecked(ev.Target))
		return err
	})

	label := dom.CreateElement("label")
	dom.SetAttr(label, "for", it.ID)
	dom.SetTextContent(label, it.Text)
	li.AppendChild(label)

	button := dom.CreateElement("button")
	dom.SetAttr(button, "class", "button")
	dom.SetTextContent(button, "x")
	li.AppendChild(button)

	r.doc.AddEventListener(button, dom.EventClick, func(ctx context.Context, _ *dom.Event) error {
		if err := store.Remove(ctx, id); err != nil {
			return err
		}
		r.Render(store)
		return nil
	})

	return li
}

// Rows reads back the rendered rows in display order.
func (r *Renderer) Rows() []Row {
	var rows []Row
	for _, li := range dom.Children(r.container) {
		row := Row{}
		if check := dom.First(li, "input"); check != nil {
			row.ID = dom.Attr(check, "id")
			row.Checked = dom.IsChecked(check)
		}
		if label := dom.First(li, "label"); label != nil {
			row.Text = dom.TextContent(label)
		}
		rows = append(rows, row)
	}
	return rows
}

// Checkbox returns the rendered checkbox for id, or nil.
func (r *Renderer) Checkbox(id string) *html.Node {
	for _, li := range dom.Children(r.container) {
		if check := dom.First(li, "input"); check != nil && dom.Attr(check, "id") == id {
			return check
		}
	}
	return nil
}

// DeleteButton returns the rendered delete button for id, or nil.
func (r *Renderer) DeleteButton(id string) *html.Node {
	check := r.Checkbox(id)
	if check == nil {
		return nil
	}
	return dom.First(check.Parent, "button")
}
