// Package app wires the page document to a list store. The entry form and
// the clear button get their listeners here, and every front-end drives the
// list by clicking page elements.
package app

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"todolist/internal/dom"
	"todolist/internal/item"
	"todolist/internal/utils"
	"todolist/internal/views"
)

//go:embed page.html
var pageHTML string

// Element ids of the page markup.
const (
	FormID        = "itemEntryForm"
	InputID       = "newItem"
	AddButtonID   = "addItem"
	TitleID       = "listName"
	ClearButtonID = "clearItemsButton"
)

// ErrItemNotRendered is returned when no row is shown for an id.
var ErrItemNotRendered = errors.New("item is not rendered")

// Store is the list store as the page uses it.
type Store interface {
	views.Store
	Add(ctx context.Context, it *item.Item) error
	Clear(ctx context.Context) error
	Load(ctx context.Context) error
	Reload(ctx context.Context) error
	NextID() string
}

// App is a page bound to a store.
type App struct {
	doc      *dom.Document
	store    Store
	renderer *views.Renderer
	log      *utils.Logger

	input       *html.Node
	addButton   *html.Node
	clearButton *html.Node
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. Defaults to the shared logger.
func WithLogger(l *utils.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithTitle replaces the list heading text.
func WithTitle(title string) Option {
	return func(a *App) {
		if title == "" {
			return
		}
		if h := a.doc.GetElementByID(TitleID); h != nil {
			dom.SetTextContent(h, title)
		}
	}
}

// WithMaxLength sets the entry input's maxlength attribute.
func WithMaxLength(n int) Option {
	return func(a *App) {
		if n > 0 {
			dom.SetAttr(a.input, "maxlength", fmt.Sprint(n))
		}
	}
}

// NewPage parses the built-in page markup.
func NewPage() (*dom.Document, error) {
	return dom.ParseString(pageHTML)
}

// New mounts a renderer on doc and registers the entry form and clear button
// listeners. A missing page element fails with *views.MissingMountError.
func New(doc *dom.Document, store Store, opts ...Option) (*App, error) {
	renderer, err := views.NewRenderer(doc)
	if err != nil {
		return nil, err
	}

	a := &App{
		doc:      doc,
		store:    store,
		renderer: renderer,
		log:      utils.GetLogger(),
	}

	form := doc.GetElementByID(FormID)
	if form == nil {
		return nil, &views.MissingMountError{ID: FormID}
	}
	if a.input = doc.GetElementByID(InputID); a.input == nil {
		return nil, &views.MissingMountError{ID: InputID}
	}
	if a.addButton = doc.GetElementByID(AddButtonID); a.addButton == nil {
		return nil, &views.MissingMountError{ID: AddButtonID}
	}
	if a.clearButton = doc.GetElementByID(ClearButtonID); a.clearButton == nil {
		return nil, &views.MissingMountError{ID: ClearButtonID}
	}

	for _, opt := range opts {
		opt(a)
	}

	doc.AddEventListener(form, dom.EventSubmit, a.onSubmit)
	doc.AddEventListener(a.clearButton, dom.EventClick, a.onClear)
	return a, nil
}

// onSubmit adds the trimmed input text as a new item. Blank input is ignored.
func (a *App) onSubmit(ctx context.Context, _ *dom.Event) error {
	text := utils.NormalizeItemText(dom.Value(a.input))
	if text == "" {
		a.log.Debug("ignoring empty entry")
		return nil
	}

	it := item.New(a.store.NextID(), text, false)
	if err := a.store.Add(ctx, it); err != nil {
		return err
	}
	a.log.Debug("added item %s", it.ID)

	dom.SetValue(a.input, "")
	a.renderer.Render(a.store)
	return nil
}

func (a *App) onClear(ctx context.Context, _ *dom.Event) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.log.Debug("cleared list")
	a.renderer.Clear()
	return nil
}

// Init loads the stored list and renders it.
func (a *App) Init(ctx context.Context) error {
	if err := a.store.Load(ctx); err != nil {
		return err
	}
	a.renderer.Render(a.store)
	return nil
}

// Reload re-reads the stored list, replacing the items in memory, and
// renders it again.
func (a *App) Reload(ctx context.Context) error {
	if err := a.store.Reload(ctx); err != nil {
		return err
	}
	a.renderer.Render(a.store)
	return nil
}

// Document returns the page.
func (a *App) Document() *dom.Document {
	return a.doc
}

// Renderer returns the list renderer.
func (a *App) Renderer() *views.Renderer {
	return a.renderer
}

// Rows returns the rendered rows, newest first.
func (a *App) Rows() []views.Row {
	return a.renderer.Rows()
}

// Submit types text into the entry input and clicks the add button. It
// returns the added item, or nil when the text was blank.
func (a *App) Submit(ctx context.Context, text string) (*item.Item, error) {
	before := len(a.store.Items())

	dom.SetValue(a.input, text)
	if err := a.doc.Click(ctx, a.addButton); err != nil {
		return nil, err
	}

	items := a.store.Items()
	if len(items) == before {
		return nil, nil
	}
	return items[len(items)-1], nil
}

// ClearAll clicks the clear button.
func (a *App) ClearAll(ctx context.Context) error {
	return a.doc.Click(ctx, a.clearButton)
}

// Toggle clicks the checkbox of the row for id.
func (a *App) Toggle(ctx context.Context, id string) error {
	check := a.renderer.Checkbox(id)
	if check == nil {
		return fmt.Errorf("%w: %s", ErrItemNotRendered, id)
	}
	return a.doc.Click(ctx, check)
}

// SetChecked clicks the row checkbox for id when its state differs from
// checked.
func (a *App) SetChecked(ctx context.Context, id string, checked bool) error {
	check := a.renderer.Checkbox(id)
	if check == nil {
		return fmt.Errorf("%w: %s", ErrItemNotRendered, id)
	}
	if dom.IsChecked(check) == checked {
		return nil
	}
	return a.doc.Click(ctx, check)
}

// Delete clicks the delete button of the row for id.
func (a *App) Delete(ctx context.Context, id string) error {
	button := a.renderer.DeleteButton(id)
	if button == nil {
		return fmt.Errorf("%w: %s", ErrItemNotRendered, id)
	}
	return a.doc.Click(ctx, button)
}

// WriteHTML writes the whole page as HTML.
func (a *App) WriteHTML(w io.Writer) error {
	return a.doc.Render(w)
}
