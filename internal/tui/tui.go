// Package tui provides a terminal user interface for the list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todolist/internal/item"
	"todolist/internal/utils"
	"todolist/internal/views"
)

// Page is the page the TUI drives. Every action is a click on the page.
type Page interface {
	Rows() []views.Row
	Submit(ctx context.Context, text string) (*item.Item, error)
	Toggle(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Reload(ctx context.Context) error
}

// StorageChangedMsg tells the model the stored list was changed by someone
// else and should be read again.
type StorageChangedMsg struct{}

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeHelp
	ModeConfirmClear
)

// Model represents the TUI state
type Model struct {
	page Page
	ctx  context.Context

	// Data
	rows   []views.Row
	cursor int
	title  string
	maxLen int
	err    error

	// Mode and input
	mode      Mode
	textInput textinput.Model

	// UI dimensions
	width  int
	height int

	// Styles
	paneStyle      lipgloss.Style
	titleStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
	checkedStyle   lipgloss.Style
	helpStyle      lipgloss.Style
	errorStyle     lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the heading shown above the rows.
func WithTitle(title string) Option {
	return func(m *Model) {
		if title != "" {
			m.title = title
		}
	}
}

// WithMaxItemLength limits the add dialog's input.
func WithMaxItemLength(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxLen = n
		}
	}
}

// WithContext sets the context passed to page actions.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// New creates a new TUI model
func New(p Page, opts ...Option) *Model {
	m := &Model{
		page:   p,
		ctx:    context.Background(),
		title:  "List",
		maxLen: utils.DefaultMaxItemLength,
		mode:   ModeNormal,
		paneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		titleStyle: lipgloss.NewStyle().
			Bold(true),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		checkedStyle: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	ti := textinput.New()
	ti.Placeholder = "Add item"
	ti.CharLimit = m.maxLen
	m.textInput = ti

	m.refresh()
	return m
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return nil
}

// Rows returns the rows currently shown.
func (m *Model) Rows() []views.Row {
	return m.rows
}

// Cursor returns the index of the selected row.
func (m *Model) Cursor() int {
	return m.cursor
}

// Err returns the error of the last failed action, if any.
func (m *Model) Err() error {
	return m.err
}

// refresh reads the rows back from the page and keeps the cursor in range.
func (m *Model) refresh() {
	m.rows = m.page.Rows()
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (views.Row, bool) {
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return views.Row{}, false
	}
	return m.rows[m.cursor], true
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StorageChangedMsg:
		m.err = m.page.Reload(m.ctx)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd:
			return m.handleAddMode(msg)
		case ModeHelp:
			return m.handleHelpMode(msg)
		case ModeConfirmClear:
			return m.handleConfirmClearMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case " ", "space", "enter":
		if row, ok := m.selected(); ok {
			m.err = m.page.Toggle(m.ctx, row.ID)
			m.refresh()
		}

	case "d", "x":
		if row, ok := m.selected(); ok {
			m.err = m.page.Delete(m.ctx, row.ID)
			m.refresh()
		}

	case "a":
		m.mode = ModeAdd
		m.err = nil
		m.textInput.Reset()
		m.textInput.Focus()
		return m, textinput.Blink

	case "C":
		if len(m.rows) > 0 {
			m.mode = ModeConfirmClear
		}

	case "?":
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		value := m.textInput.Value()
		m.mode = ModeNormal
		m.textInput.Blur()
		if utils.NormalizeItemText(value) == "" {
			return m, nil
		}
		if err := utils.ValidateItemText(value, m.maxLen); err != nil {
			m.err = err
			return m, nil
		}
		_, m.err = m.page.Submit(m.ctx, value)
		m.refresh()
		// newest row is on top
		m.cursor = 0
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.mode = ModeNormal
		return m, nil
	}

	if msg.String() == "q" || msg.String() == "?" {
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) handleConfirmClearMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.err = m.page.ClearAll(m.ctx)
		m.refresh()
		m.mode = ModeNormal
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderAddDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	case ModeConfirmClear:
		return m.renderConfirmClearDialog()
	}

	pane := m.paneStyle.Width(m.width - 2).Height(m.height - 4).Render(m.renderList(m.width - 6))
	return pane + "\n" + m.renderStatusBar()
}

func (m *Model) renderList(width int) string {
	var b strings.Builder
	b.WriteString(m.titleStyle.Render(m.title))
	b.WriteString("\n")
	if width > 0 {
		b.WriteString(strings.Repeat("─", width))
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(m.helpStyle.Render("Nothing to do. Press a to add an item."))
		b.WriteString("\n")
		return b.String()
	}

	for i, row := range m.rows {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		status := "[ ]"
		text := row.Text
		if row.Checked {
			status = "[x]"
			text = m.checkedStyle.Render(text)
		} else if i == m.cursor {
			text = m.selectedStyle.Render(text)
		}

		b.WriteString(cursor + " " + status + " " + text + "\n")
	}

	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := fmt.Sprintf("%d items", len(m.rows))
	if m.err != nil {
		left = m.errorStyle.Render(firstLine(m.err.Error()))
	}

	right := "a:add  space:toggle  d:delete  C:clear  q:quit  ?:help"

	padding := m.width - lipgloss.Width(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderAddDialog() string {
	dialog := m.dialogStyle.Render(
		"Add New Item\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render(fmt.Sprintf("Enter: confirm  Esc: cancel  (max %d characters)", m.maxLen)),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderHelpDialog() string {
	help := `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up

Actions:
  a      Add new item
  space  Check or uncheck item
  d/x    Delete item
  C      Clear the list (with confirm)

General:
  ?      Show this help
  q      Quit

Press any key to close`

	dialog := m.dialogStyle.Render(help)
	return m.centerDialog(dialog)
}

func (m *Model) renderConfirmClearDialog() string {
	dialog := m.dialogStyle.Render(
		fmt.Sprintf("Remove all %d items from the list?\n\n", len(m.rows)) +
			m.helpStyle.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := lipgloss.Width(dialog)

	topPad := (m.height - dialogHeight) / 2
	leftPad := (m.width - dialogWidth) / 2

	if topPad < 0 {
		topPad = 0
	}
	if leftPad < 0 {
		leftPad = 0
	}

	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
