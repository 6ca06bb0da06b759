// Package dom provides a small document object model over golang.org/x/net/html
// node trees: element lookup, attribute and text helpers, and synchronous
// event listeners with browser-like activation of checkboxes and buttons.
package dom

import (
	"context"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Event types dispatched by Click and the page collaborators.
const (
	EventClick  = "click"
	EventChange = "change"
	EventSubmit = "submit"
)

// Event is passed to listeners.
type Event struct {
	Type   string
	Target *html.Node
}

// Listener handles an event. Returning an error stops the remaining
// listeners and is returned from Dispatch.
type Listener func(ctx context.Context, ev *Event) error

// Document is a parsed page plus the event listeners attached to its nodes.
// It is not safe for concurrent use.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]Listener),
	}, nil
}

// ParseString parses markup held in a string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// GetElementByID returns the first element whose id attribute equals id, in
// document order, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Render writes the document as HTML. Text nodes are escaped.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// AddEventListener registers fn for events of type typ on n.
func (d *Document) AddEventListener(n *html.Node, typ string, fn Listener) {
	byType := d.listeners[n]
	if byType == nil {
		byType = make(map[string][]Listener)
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// ListenerCount returns how many listeners of type typ are registered on n.
func (d *Document) ListenerCount(n *html.Node, typ string) int {
	return len(d.listeners[n][typ])
}

// Dispatch runs the listeners registered on n for typ in registration order.
// Events do not bubble.
func (d *Document) Dispatch(ctx context.Context, n *html.Node, typ string) error {
	// Listeners may re-render and drop n's registrations mid-dispatch.
	fns := append([]Listener(nil), d.listeners[n][typ]...)
	ev := &Event{Type: typ, Target: n}
	for _, fn := range fns {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Click activates n the way a user click would: a checkbox flips its checked
// state and fires click then change; a submit button inside a form fires
// click then submit on the form; anything else fires click.
func (d *Document) Click(ctx context.Context, n *html.Node) error {
	if IsCheckbox(n) {
		SetChecked(n, !IsChecked(n))
		if err := d.Dispatch(ctx, n, EventClick); err != nil {
			return err
		}
		return d.Dispatch(ctx, n, EventChange)
	}

	if err := d.Dispatch(ctx, n, EventClick); err != nil {
		return err
	}
	if isSubmitButton(n) {
		if form := closest(n, "form"); form != nil {
			return d.Dispatch(ctx, form, EventSubmit)
		}
	}
	return nil
}

// RemoveChildren detaches every child of n and forgets the listeners
// registered anywhere in the removed subtrees.
func (d *Document) RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		walk(c, func(x *html.Node) bool {
			delete(d.listeners, x)
			return true
		})
		n.RemoveChild(c)
		c = next
	}
}

// CreateElement returns a detached element node.
func CreateElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// QuerySelectorAll returns the descendant elements of root with the given
// tag name, in document order.
func QuerySelectorAll(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == tag {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// First returns the first descendant element of root with the given tag, or nil.
func First(root *html.Node, tag string) *html.Node {
	all := QuerySelectorAll(root, tag)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether attribute key is present.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets attribute key to val, replacing any existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether class appears in n's class list.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// SetTextContent replaces n's children with a single text node. The text is
// never parsed as markup.
func SetTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// TextContent returns the concatenated text of n's descendants.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(x *html.Node) bool {
		if x.Type == html.TextNode {
			sb.WriteString(x.Data)
		}
		return true
	})
	return sb.String()
}

// Value returns a form control's current value.
func Value(n *html.Node) string {
	return Attr(n, "value")
}

// SetValue sets a form control's current value.
func SetValue(n *html.Node, v string) {
	SetAttr(n, "value", v)
}

// IsCheckbox reports whether n is an <input type="checkbox">.
func IsCheckbox(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "input" && strings.EqualFold(Attr(n, "type"), "checkbox")
}

// IsChecked reports whether the checked attribute is present.
func IsChecked(n *html.Node) bool {
	return HasAttr(n, "checked")
}

// SetChecked adds or removes the checked attribute.
func SetChecked(n *html.Node, checked bool) {
	if checked {
		SetAttr(n, "checked", "")
	} else {
		RemoveAttr(n, "checked")
	}
}

// isSubmitButton reports whether n is a button that submits its form. A
// button without a type attribute is a submit button.
func isSubmitButton(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "button" {
		return false
	}
	t := strings.ToLower(Attr(n, "type"))
	return t == "" || t == "submit"
}

// closest returns the nearest ancestor element with the given tag.
func closest(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return p
		}
	}
	return nil
}

// walk visits n and its descendants depth-first. Returning false from fn
// stops the walk.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}
