package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"todolist/backend"
	"todolist/backend/file"
	"todolist/backend/keyring"
	"todolist/backend/memory"
	"todolist/backend/sqlite"
	"todolist/internal/app"
	"todolist/internal/cli/prompt"
	"todolist/internal/config"
	"todolist/internal/item"
	"todolist/internal/list"
	"todolist/internal/shutdown"
	"todolist/internal/tui"
	"todolist/internal/utils"
	"todolist/internal/views"
	"todolist/internal/watcher"
)

// Version is set at build time
var Version = "dev"

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultCancelled       = "CANCELLED"
	ResultError           = "ERROR"
)

// Config holds application configuration
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	ConfigPath   string          // Path to config file (for testing)
	Backend      string          // Backend override, below --backend (for testing)
	DBPath       string          // Path to database file (for testing)
	FilePath     string          // Path to file backend storage (for testing)
	Keyring      keyring.Keyring // Keyring implementation (for testing)
	Stdin        io.Reader       // Prompt input (for testing)
	IsTerminal   func() bool     // Terminal check for the tui command (for testing)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	if cfg == nil {
		cfg = &Config{}
	}
	rootCmd := NewTodoList(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewTodoList creates the root command with injectable IO
func NewTodoList(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "todolist",
		Short:   "A small to-do list",
		Long:    "todolist keeps one list of short to-do items and stores it in SQLite, a JSON file or the OS keyring.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, stdout, stderr, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (.yaml or .toml)")
	cmd.PersistentFlags().String("backend", "", "Storage backend: "+strings.Join(backend.Types(), ", "))
	cmd.PersistentFlags().String("key", "", "Storage key the list is saved under")
	cmd.PersistentFlags().Bool("ephemeral", false, "Keep the list in memory only")
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	cmd.AddCommand(newListCmd(stdout, stderr, cfg))
	cmd.AddCommand(newAddCmd(stdout, stderr, cfg))
	cmd.AddCommand(newCheckCmd(stdout, stderr, cfg, "check", true))
	cmd.AddCommand(newCheckCmd(stdout, stderr, cfg, "uncheck", false))
	cmd.AddCommand(newToggleCmd(stdout, stderr, cfg))
	cmd.AddCommand(newDeleteCmd(stdout, stderr, cfg))
	cmd.AddCommand(newClearCmd(stdout, stderr, cfg))
	cmd.AddCommand(newExportHTMLCmd(stdout, stderr, cfg))
	cmd.AddCommand(newTUICmd(stdout, stderr, cfg))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// session is one command's view of the list: the configured backend, the
// store over it and the page bound to the store.
type session struct {
	cfg      *config.Config
	kv       backend.KeyValueStore
	store    *list.Store
	page     *app.App
	shutdown *shutdown.Manager
	log      *utils.Logger
	json     bool
}

// sessionOptions tweak how a session starts
type sessionOptions struct {
	// ignoreCorrupt starts with an empty list when the stored one cannot be
	// decoded, so that clear can overwrite it.
	ignoreCorrupt bool
}

// openSession loads configuration, opens the backend and renders the stored
// list into a fresh page.
func openSession(cmd *cobra.Command, stderr io.Writer, cfg *Config, opts sessionOptions) (*session, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = cfg.ConfigPath
	}
	appCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	backendName, _ := cmd.Flags().GetString("backend")
	if backendName == "" {
		backendName = cfg.Backend
	}
	key, _ := cmd.Flags().GetString("key")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputFormat := cfg.OutputFormat
	if jsonOutput {
		outputFormat = "json"
	}
	appCfg.ApplyFlags(backendName, key, verbose || cfg.Verbose, noPrompt || cfg.NoPrompt, outputFormat)

	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		appCfg.Storage.Backend = backend.TypeMemory
	}
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}
	cfg.NoPrompt = appCfg.NoPrompt

	log := utils.GetLogger()
	log.SetOutput(stderr)
	log.SetVerbose(appCfg.Logging.Verbose)
	log.SetFile(appCfg.Logging.File, appCfg.GetLogMaxSizeMB())

	s := &session{
		cfg:      appCfg,
		shutdown: shutdown.NewManager(),
		log:      log,
		json:     appCfg.OutputFormat == "json",
	}
	s.shutdown.NotifyOnSignal(os.Interrupt, syscall.SIGTERM)
	s.shutdown.RegisterCleanup("logger", func(context.Context) error {
		return log.Close()
	})

	kv, err := getBackend(appCfg, cfg)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.kv = kv
	s.shutdown.RegisterCleanup("backend", func(context.Context) error {
		return kv.Close()
	})
	log.Debug("using %s backend, key %q", appCfg.GetBackend(), appCfg.GetKey())

	s.store = list.New(kv, list.WithKey(appCfg.GetKey()), list.WithLogger(log))

	doc, err := app.NewPage()
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.page, err = app.New(doc, s.store,
		app.WithTitle(appCfg.GetTitle()),
		app.WithMaxLength(appCfg.GetMaxItemLength()),
		app.WithLogger(log),
	)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	ctx := s.ctx()
	if err := s.page.Init(ctx); err != nil {
		var pde *list.PersistedDataError
		if !errors.As(err, &pde) {
			_ = s.close()
			return nil, err
		}
		if !opts.ignoreCorrupt {
			_ = s.close()
			return nil, utils.ErrPersistedData(err)
		}
		log.Warn("ignoring unreadable stored list: %v", pde.Err)
	}

	if sb, ok := kv.(*sqlite.Backend); ok {
		if modified, found, err := sb.Modified(ctx, appCfg.GetKey()); err == nil && found {
			log.Debug("list last saved %s", modified.Format("2006-01-02 15:04:05"))
		}
	}

	return s, nil
}

func (s *session) ctx() context.Context {
	return s.shutdown.Context()
}

func (s *session) close() error {
	return s.shutdown.Cleanup(context.Background())
}

// getBackend opens the configured key-value backend
func getBackend(appCfg *config.Config, cfg *Config) (backend.KeyValueStore, error) {
	name, err := backend.ValidateType(appCfg.Storage.Backend)
	if err != nil {
		return nil, utils.ErrBackendNotConfigured(appCfg.Storage.Backend, backend.Types())
	}

	switch name {
	case backend.TypeMemory:
		return memory.New(), nil

	case backend.TypeFile:
		path := cfg.FilePath
		if path == "" {
			path = appCfg.GetFilePath()
		}
		return file.New(file.Config{FilePath: path})

	case backend.TypeKeyring:
		ring := cfg.Keyring
		if ring == nil {
			ring = keyring.System()
		}
		return keyring.New(ring, appCfg.GetKeyringService()), nil

	default:
		path := cfg.DBPath
		if path == "" {
			path = appCfg.GetDatabasePath()
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("could not create data directory: %w", err)
			}
		}
		return sqlite.New(path)
	}
}

// storagePath returns the file the session's list lives in, or "" when the
// backend is not file based.
func storagePath(s *session, cfg *Config) string {
	switch kv := s.kv.(type) {
	case *file.Backend:
		return kv.Path()
	case *sqlite.Backend:
		path := cfg.DBPath
		if path == "" {
			path = s.cfg.GetDatabasePath()
		}
		if path == ":memory:" {
			return ""
		}
		return path
	}
	return ""
}

// itemError turns a missing row into a not-found error with a hint
func itemError(err error, id string) error {
	if errors.Is(err, app.ErrItemNotRendered) {
		return utils.ErrItemNotFound(id)
	}
	return err
}

// =============================================================================
// list
// =============================================================================

func newListCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the list, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, stdout, stderr, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runList(cmd *cobra.Command, stdout, stderr io.Writer, cfg *Config) error {
	s, err := openSession(cmd, stderr, cfg, sessionOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	return doList(s, stdout, cfg)
}

func doList(s *session, stdout io.Writer, cfg *Config) error {
	rows := s.page.Rows()

	if s.json {
		return outputListJSON(s.cfg.GetKey(), rows, stdout)
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(stdout, "No items")
	} else {
		colored := isTerminal(stdout)
		checkedStyle := lipgloss.NewStyle().Strikethrough(true).Faint(true)
		for _, r := range rows {
			line := prompt.FormatRow(r)
			if colored && r.Checked {
				line = checkedStyle.Render(line)
			}
			_, _ = fmt.Fprintln(stdout, line)
		}
	}

	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

// =============================================================================
// add
// =============================================================================

func newAddCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "add [text...]",
		Aliases: []string{"a"},
		Short:   "Add an item",
		Long:    "Add an item to the list. Without arguments the text is read from standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, stderr, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			text := strings.Join(args, " ")
			if len(args) == 0 {
				if text, err = utils.ReadStringWithReader(stdinOf(cfg)); err != nil {
					return utils.ErrEmptyItem()
				}
			}
			return doAdd(s, text, stdout, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doAdd(s *session, text string, stdout io.Writer, cfg *Config) error {
	if err := utils.ValidateItemText(text, s.cfg.GetMaxItemLength()); err != nil {
		return err
	}

	it, err := s.page.Submit(s.ctx(), text)
	if err != nil {
		return err
	}
	if it == nil {
		return utils.ErrEmptyItem()
	}

	return outputAction("add", "Added", it, stdout, s, cfg)
}

// =============================================================================
// check / uncheck / toggle
// =============================================================================

func newCheckCmd(stdout, stderr io.Writer, cfg *Config, name string, checked bool) *cobra.Command {
	short := "Check an item"
	if !checked {
		short = "Uncheck an item"
	}
	return &cobra.Command{
		Use:   name + " [id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, stderr, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			id, err := resolveID(s, args, short+":", stdout, cfg)
			if err != nil || id == "" {
				return err
			}
			if err := s.page.SetChecked(s.ctx(), id, checked); err != nil {
				return itemError(err, id)
			}

			verb := "Checked"
			if !checked {
				verb = "Unchecked"
			}
			return outputAction(name, verb, s.store.Get(id), stdout, s, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newToggleCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Flip an item between checked and unchecked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, stderr, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			id, err := resolveID(s, args, "Toggle item:", stdout, cfg)
			if err != nil || id == "" {
				return err
			}
			if err := s.page.Toggle(s.ctx(), id); err != nil {
				return itemError(err, id)
			}

			it := s.store.Get(id)
			verb := "Unchecked"
			if it.Checked {
				verb = "Checked"
			}
			return outputAction("toggle", verb, it, stdout, s, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// delete
// =============================================================================

func newDeleteCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm", "d"},
		Short:   "Delete an item",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, stderr, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			id, err := resolveID(s, args, "Delete item:", stdout, cfg)
			if err != nil || id == "" {
				return err
			}

			it := s.store.Get(id)
			if err := s.page.Delete(s.ctx(), id); err != nil {
				return itemError(err, id)
			}
			return outputAction("delete", "Deleted", it, stdout, s, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// resolveID returns the id argument, or asks the user to pick a row when
// none was given. An empty id with no error means the user cancelled.
func resolveID(s *session, args []string, title string, stdout io.Writer, cfg *Config) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	selector := &prompt.RowSelector{
		Rows:     s.page.Rows(),
		Prompt:   title,
		Reader:   stdinOf(cfg),
		Writer:   stdout,
		NoPrompt: cfg.NoPrompt,
	}
	row, err := selector.Run()
	switch {
	case errors.Is(err, prompt.ErrSelectionCancelled):
		_, _ = fmt.Fprintln(stdout, "Cancelled")
		return "", nil
	case errors.Is(err, prompt.ErrNoPromptMode):
		return "", utils.WrapWithSuggestion(errors.New("item id is required"), "Pass the id shown by 'todolist list'")
	case err != nil:
		return "", err
	}
	return row.ID, nil
}

// =============================================================================
// clear
// =============================================================================

func newClearCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item",
		Long:  "Remove every item from the list. Also resets a stored list that can no longer be read.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, stderr, cfg, sessionOptions{ignoreCorrupt: true})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			return doClear(s, stdout, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doClear(s *session, stdout io.Writer, cfg *Config) error {
	count := s.store.Len()

	if !cfg.NoPrompt && count > 0 {
		question := fmt.Sprintf("Remove all %d items?", count)
		if !utils.PromptYesNoWithReader(question, stdinOf(cfg), stdout) {
			_, _ = fmt.Fprintln(stdout, "Cancelled")
			return nil
		}
	}

	if err := s.page.ClearAll(s.ctx()); err != nil {
		return err
	}

	if s.json {
		return writeJSON(stdout, clearResponse{Action: "clear", Removed: count, Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintf(stdout, "Cleared %d items\n", count)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// export-html
// =============================================================================

func newExportHTMLCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-html",
		Short: "Write the list page as HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, stderr, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return s.page.WriteHTML(stdout)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := s.page.WriteHTML(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Wrote %s\n", output)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of standard output")
	return cmd
}

// =============================================================================
// tui
// =============================================================================

func newTUICmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := cfg.IsTerminal
			if interactive == nil {
				interactive = func() bool {
					return term.IsTerminal(int(os.Stdin.Fd())) && isTerminal(stdout)
				}
			}
			if !interactive() {
				return utils.ErrNotATerminal("tui")
			}

			s, err := openSession(cmd, stderr, cfg, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			// keep log lines from tearing the screen
			s.log.SetOutput(io.Discard)

			model := tui.New(s.page,
				tui.WithTitle(s.cfg.GetTitle()),
				tui.WithMaxItemLength(s.cfg.GetMaxItemLength()),
				tui.WithContext(s.ctx()),
			)
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(s.ctx()),
				tea.WithInput(stdinOf(cfg)),
				tea.WithOutput(stdout),
			)
			if path := storagePath(s, cfg); path != "" {
				w, err := watcher.New(watcher.DefaultConfig(path, func() {
					p.Send(tui.StorageChangedMsg{})
				}))
				if err == nil {
					err = w.Start()
					defer w.Stop()
				}
				if err != nil {
					s.log.Debug("not watching %s: %v", path, err)
				}
			}

			_, err = p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// version
// =============================================================================

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(stdout, "todolist version %s\n", Version)
		},
	}
}

// =============================================================================
// Output helpers
// =============================================================================

func stdinOf(cfg *Config) io.Reader {
	if cfg.Stdin != nil {
		return cfg.Stdin
	}
	return os.Stdin
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type itemJSON struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

type listResponse struct {
	Key    string     `json:"key"`
	Items  []itemJSON `json:"items"`
	Count  int        `json:"count"`
	Result string     `json:"result"`
}

type actionResponse struct {
	Action string   `json:"action"`
	Item   itemJSON `json:"item"`
	Result string   `json:"result"`
}

type clearResponse struct {
	Action  string `json:"action"`
	Removed int    `json:"removed"`
	Result  string `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

func rowToJSON(r views.Row) itemJSON {
	return itemJSON{ID: r.ID, Text: r.Text, Checked: r.Checked}
}

func itemToJSON(it *item.Item) itemJSON {
	return itemJSON{ID: it.ID, Text: it.Text, Checked: it.Checked}
}

func writeJSON(stdout io.Writer, v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// outputListJSON outputs the rows in JSON format, newest first
func outputListJSON(key string, rows []views.Row, stdout io.Writer) error {
	items := make([]itemJSON, 0, len(rows))
	for _, r := range rows {
		items = append(items, rowToJSON(r))
	}
	return writeJSON(stdout, listResponse{
		Key:    key,
		Items:  items,
		Count:  len(items),
		Result: ResultInfoOnly,
	})
}

// outputAction reports a completed single-item action
func outputAction(action, verb string, it *item.Item, stdout io.Writer, s *session, cfg *Config) error {
	if s.json {
		return writeJSON(stdout, actionResponse{
			Action: action,
			Item:   itemToJSON(it),
			Result: ResultActionCompleted,
		})
	}

	_, _ = fmt.Fprintf(stdout, "%s item %s: %s\n", verb, it.ID, it.Text)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	_ = writeJSON(stdout, errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	})
}
