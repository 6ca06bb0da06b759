package views_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/backend/memory"
	"todolist/internal/dom"
	"todolist/internal/item"
	"todolist/internal/list"
	"todolist/internal/views"
)

const page = `<html><body><ul id="listItems"></ul></body></html>`

type fixture struct {
	doc      *dom.Document
	store    *list.Store
	kv       *memory.Backend
	renderer *views.Renderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	r, err := views.NewRenderer(doc)
	require.NoError(t, err)

	kv := memory.New()
	return &fixture{doc: doc, store: list.New(kv), kv: kv, renderer: r}
}

func (f *fixture) add(t *testing.T, id, text string, checked bool) *item.Item {
	t.Helper()
	it := item.New(id, text, checked)
	require.NoError(t, f.store.Add(context.Background(), it))
	return it
}

func (f *fixture) children() int {
	return len(dom.Children(f.renderer.Container()))
}

func texts(rows []views.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text
	}
	return out
}

func TestNewRendererMissingMount(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><div id="other"></div></body></html>`)
	require.NoError(t, err)

	r, err := views.NewRenderer(doc)
	assert.Nil(t, r)

	var mme *views.MissingMountError
	require.True(t, errors.As(err, &mme))
	assert.Equal(t, views.DefaultContainerID, mme.ID)
	assert.Contains(t, err.Error(), "#listItems")
}

func TestNewRendererCustomContainer(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><ol id="todo"></ol></body></html>`)
	require.NoError(t, err)

	r, err := views.NewRenderer(doc, views.WithContainerID("todo"))
	require.NoError(t, err)
	assert.Equal(t, "ol", r.Container().Data)
}

func TestRenderEmptyList(t *testing.T) {
	f := newFixture(t)

	f.renderer.Render(f.store)
	assert.Equal(t, 0, f.children())
	assert.Empty(t, f.renderer.Rows())
}

func TestRenderNewestFirst(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 4; i++ {
		f.add(t, fmt.Sprint(i), fmt.Sprintf("Task %d", i), false)
	}

	f.renderer.Render(f.store)

	assert.Equal(t, 4, f.children())
	assert.Equal(t, []string{"Task 4", "Task 3", "Task 2", "Task 1"}, texts(f.renderer.Rows()))
	assert.Equal(t, "1", f.store.Items()[0].ID, "store order is unchanged")
}

func TestRenderClearsBeforeRendering(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "Task 1", false)

	f.renderer.Render(f.store)
	f.renderer.Render(f.store)
	f.renderer.Render(f.store)

	assert.Equal(t, 1, f.children())
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "Task 1", false)
	f.add(t, "2", "Task 2", false)
	f.renderer.Render(f.store)
	require.Equal(t, 2, f.children())

	f.renderer.Clear()
	assert.Equal(t, 0, f.children())
	f.renderer.Clear()
	assert.Equal(t, 0, f.children())
	assert.Equal(t, 2, f.store.Len(), "clearing the view leaves the store alone")
}

func TestRowStructure(t *testing.T) {
	f := newFixture(t)
	f.add(t, "42", "My task text", true)
	f.renderer.Render(f.store)

	li := dom.Children(f.renderer.Container())[0]
	assert.Equal(t, "li", li.Data)
	assert.Equal(t, "item", dom.Attr(li, "class"))

	parts := dom.Children(li)
	require.Len(t, parts, 3)

	check := parts[0]
	assert.Equal(t, "input", check.Data)
	assert.Equal(t, "checkbox", dom.Attr(check, "type"))
	assert.Equal(t, "42", dom.Attr(check, "id"))
	assert.Equal(t, "0", dom.Attr(check, "tabindex"))
	assert.True(t, dom.IsChecked(check))

	label := parts[1]
	assert.Equal(t, "label", label.Data)
	assert.Equal(t, "42", dom.Attr(label, "for"))
	assert.Equal(t, "My task text", dom.TextContent(label))

	button := parts[2]
	assert.Equal(t, "button", button.Data)
	assert.Equal(t, "button", dom.Attr(button, "class"))
	assert.Equal(t, "x", dom.TextContent(button))
}

func TestUncheckedItemHasNoCheckedAttr(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "Task", false)
	f.renderer.Render(f.store)

	assert.False(t, dom.IsChecked(f.renderer.Checkbox("1")))
}

func TestLabelTextIsNeverMarkup(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"script", `<script>alert("xss")</script>`},
		{"special", `< > & " ' / \ @ # $ %`},
		{"unicode", "🎉 日本語 тест test"},
		{"long", strings.Repeat("A", 1000)},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.add(t, "1", tt.text, false)
			f.renderer.Render(f.store)

			label := dom.First(f.renderer.Container(), "label")
			require.NotNil(t, label)
			assert.Equal(t, tt.text, dom.TextContent(label))
			assert.Nil(t, dom.First(f.renderer.Container(), "script"))
			assert.Len(t, dom.Children(label), 0, "label holds only text")
		})
	}
}

func TestDuplicateTextDistinctIDs(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "Same task", false)
	f.add(t, "2", "Same task", false)
	f.renderer.Render(f.store)

	labels := dom.QuerySelectorAll(f.renderer.Container(), "label")
	require.Len(t, labels, 2)
	assert.Equal(t, dom.TextContent(labels[0]), dom.TextContent(labels[1]))
	assert.NotEqual(t, dom.Attr(labels[0], "for"), dom.Attr(labels[1], "for"))
}

func TestToggleCheckboxUpdatesItemAndPersists(t *testing.T) {
	f := newFixture(t)
	it := f.add(t, "1", "Task", false)
	f.add(t, "2", "Other", false)
	f.renderer.Render(f.store)
	ctx := context.Background()

	check := f.renderer.Checkbox("1")
	require.NotNil(t, check)

	for _, want := range []bool{true, false, true} {
		require.NoError(t, f.doc.Click(ctx, check))
		assert.Equal(t, want, it.Checked)

		data, _, _ := f.kv.Get(ctx, list.DefaultKey)
		assert.Contains(t, string(data), fmt.Sprintf(`"_id":"1","_item":"Task","_checked":%v`, want))
	}

	assert.Equal(t, 2, f.children(), "toggle does not change the row count")
	assert.Same(t, check, f.renderer.Checkbox("1"), "toggle does not re-render")
}

func TestDeleteButtonRemovesAndRerenders(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "Task 1", false)
	f.add(t, "2", "Task 2", false)
	f.renderer.Render(f.store)
	ctx := context.Background()

	button := dom.First(f.renderer.Container(), "button")
	require.NoError(t, f.doc.Click(ctx, button))

	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, 1, f.children())
	assert.Equal(t, []string{"Task 1"}, texts(f.renderer.Rows()))
	assert.Equal(t, 0, f.doc.ListenerCount(button, dom.EventClick), "stale row listeners are dropped")
}

// Start empty, add two items, render, delete the first row.
func TestAddRenderDeleteScenario(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "Buy milk", false)
	f.add(t, "2", "Walk dog", false)

	f.renderer.Render(f.store)
	rows := f.renderer.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Walk dog", rows[0].Text)
	assert.Equal(t, "Buy milk", rows[1].Text)

	first := dom.Children(f.renderer.Container())[0]
	require.NoError(t, f.doc.Click(context.Background(), dom.First(first, "button")))

	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, []views.Row{{ID: "1", Text: "Buy milk"}}, f.renderer.Rows())
}

func TestRowsAndLookups(t *testing.T) {
	f := newFixture(t)
	f.add(t, "1", "a", true)
	f.add(t, "2", "b", false)
	f.renderer.Render(f.store)

	assert.Equal(t, []views.Row{
		{ID: "2", Text: "b"},
		{ID: "1", Text: "a", Checked: true},
	}, f.renderer.Rows())

	assert.NotNil(t, f.renderer.DeleteButton("2"))
	assert.Nil(t, f.renderer.Checkbox("3"))
	assert.Nil(t, f.renderer.DeleteButton("3"))
}

// failingStore fails on every mutation
type failingStore struct {
	items []*item.Item
	err   error
}

func (s *failingStore) Items() []*item.Item { return s.items }

func (s *failingStore) Remove(context.Context, string) error { return s.err }

func (s *failingStore) SetChecked(context.Context, string, bool) (bool, error) {
	return false, s.err
}

func TestHandlerErrorsPropagate(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	r, err := views.NewRenderer(doc)
	require.NoError(t, err)

	boom := errors.New("write failed")
	store := &failingStore{items: []*item.Item{item.New("1", "x", false)}, err: boom}
	r.Render(store)
	ctx := context.Background()

	assert.ErrorIs(t, doc.Click(ctx, r.Checkbox("1")), boom)
	assert.ErrorIs(t, doc.Click(ctx, r.DeleteButton("1")), boom)
	assert.Len(t, r.Rows(), 1, "failed delete does not re-render")
}
