// Package settings edits the client configuration file from inside the TUI.
package settings

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeView       Mode = iota // Show current values
	ModeForm                   // Editing
	ModeTesting                // Probing the API
	ModeTestResult             // Show probe result
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg carries the configuration after it was written to disk.
type SavedMsg struct {
	Config model.AppConfig
}

// TestResultMsg carries the outcome of a connection probe.
type TestResultMsg struct {
	BaseURL string
	Err     error
}

type savedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// Checker probes an API root.
type Checker func(ctx context.Context, baseURL string) error

// APIChecker returns a Checker that calls the identity endpoint without a
// credential. A 401 means the server answered, which is all it checks.
func APIChecker(timeout time.Duration) Checker {
	return func(ctx context.Context, baseURL string) error {
		c := api.NewClient(baseURL, credential.NewMemoryStore(), api.WithTimeout(timeout))
		_, err := c.CurrentUser(ctx)
		if err == nil || api.IsUnauthorized(err) {
			return nil
		}
		return err
	}
}

type formBindings struct {
	baseURL     string
	timeout     string
	backend     string
	defaultSort derive.SortKey
	logLevel    string
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	mode  Mode
	cfg   model.AppConfig
	path  string
	check Checker

	form *huh.Form
	fb   *formBindings

	spinner spinner.Model
	testErr error

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates the settings view for cfg, saved to path.
func New(cfg model.AppConfig, path string, check Checker, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		mode:    ModeView,
		cfg:     cfg,
		path:    path,
		check:   check,
		fb:      &formBindings{},
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Mode returns the current mode.
func (m Model) Mode() Mode { return m.mode }

// Config returns the configuration as last saved.
func (m Model) Config() model.AppConfig { return m.cfg }

// Editing reports whether the form is open.
func (m Model) Editing() bool { return m.mode == ModeForm }

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedInternalMsg:
		m.mode = ModeView
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved. Connection changes apply on next start."
		cfg := msg.cfg
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }

	case TestResultMsg:
		if m.mode != ModeTesting {
			return m, nil
		}
		m.testErr = msg.Err
		m.mode = ModeTestResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeTesting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeView:
			return m.handleViewKeys(msg)
		case ModeTesting:
			if key.Matches(msg, m.keys.Back) {
				m.mode = ModeView
			}
			return m, nil
		case ModeTestResult:
			switch msg.String() {
			case "enter", "esc":
				m.mode = ModeView
				m.testErr = nil
			case "r":
				return m.startTest()
			}
			return m, nil
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleViewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.statusMsg = ""
		return m, func() tea.Msg { return DoneMsg{} }
	case key.Matches(msg, m.keys.Edit):
		return m, m.startForm()
	case msg.String() == "t":
		return m.startTest()
	}
	return m, nil
}

func (m *Model) startForm() tea.Cmd {
	m.fb.baseURL = m.cfg.API.BaseURL
	m.fb.timeout = strconv.Itoa(m.cfg.API.TimeoutSec)
	m.fb.backend = m.cfg.Credential.Backend
	m.fb.defaultSort = derive.ParseSortKey(m.cfg.Display.DefaultSort)
	m.fb.logLevel = strings.ToLower(m.cfg.Log.Level)
	m.statusMsg = ""
	m.form = m.buildForm()
	m.mode = ModeForm
	return m.form.Init()
}

func (m Model) startTest() (Model, tea.Cmd) {
	if m.check == nil {
		return m, nil
	}
	m.mode = ModeTesting
	m.testErr = nil
	check, base := m.check, m.cfg.API.BaseURL
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return TestResultMsg{BaseURL: base, Err: check(context.Background(), base)}
		},
	)
}

func (m *Model) buildForm() *huh.Form {
	sortOpts := make([]huh.Option[derive.SortKey], len(derive.SortKeys))
	for i, k := range derive.SortKeys {
		sortOpts[i] = huh.NewOption(k.Label(), k)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Base URL").
				Placeholder("http://localhost:8000/api").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request Timeout (seconds)").
				Description("0 waits forever").
				Value(&m.fb.timeout).
				Validate(validateSeconds),
			huh.NewSelect[string]().
				Title("Credential Storage").
				Options(
					huh.NewOption("OS keyring", "keyring"),
					huh.NewOption("Memory (forget on exit)", "memory"),
				).
				Value(&m.fb.backend),
			huh.NewSelect[derive.SortKey]().
				Title("Default Sort").
				Options(sortOpts...).
				Value(&m.fb.defaultSort),
			huh.NewSelect[string]().
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&m.fb.logLevel),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		m.mode = ModeView
		return m, m.save(m.applyForm())
	case huh.StateAborted:
		m.form = nil
		m.mode = ModeView
		return m, nil
	}
	return m, cmd
}

func (m Model) applyForm() model.AppConfig {
	cfg := m.cfg
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	cfg.API.TimeoutSec, _ = strconv.Atoi(strings.TrimSpace(m.fb.timeout))
	cfg.Credential.Backend = m.fb.backend
	cfg.Display.DefaultSort = string(m.fb.defaultSort)
	cfg.Log.Level = m.fb.logLevel
	return cfg
}

func (m Model) save(cfg model.AppConfig) tea.Cmd {
	path := m.path
	return func() tea.Msg {
		return savedInternalMsg{cfg: cfg, err: model.SaveConfig(path, &cfg)}
	}
}

// View renders the settings screen.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeForm:
		if m.form == nil {
			return ""
		}
		return style.Render(theme.TitleStyle.Render("Edit Settings") + "\n\n" + m.form.View())
	case ModeTesting:
		return style.Render(fmt.Sprintf(
			"%s Contacting %s...\n\nPress esc to cancel.",
			m.spinner.View(), m.cfg.API.BaseURL,
		))
	case ModeTestResult:
		return style.Render(m.viewTestResult())
	}
	return style.Render(m.viewValues())
}

func (m Model) viewValues() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Settings"))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(20)
	rows := [][2]string{
		{"API base URL", m.cfg.API.BaseURL},
		{"Request timeout", timeoutLabel(m.cfg.API.TimeoutSec)},
		{"Credential storage", m.cfg.Credential.Backend},
		{"Default sort", derive.ParseSortKey(m.cfg.Display.DefaultSort).Label()},
		{"Log level", m.cfg.Log.Level},
		{"Log file", m.cfg.Log.File},
		{"Config file", m.path},
	}
	for _, r := range rows {
		b.WriteString(label.Render(r[0]) + r[1] + "\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("e edit | t test connection | esc back"))
	return b.String()
}

func (m Model) viewTestResult() string {
	hint := theme.HelpStyle.Render("r retry | enter/esc back")
	if m.testErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		return errStyle.Render("Connection failed") + "\n\n" + api.Message(m.testErr) + "\n\n" + hint
	}
	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return okStyle.Render("Connection successful") + "\n\n" +
		fmt.Sprintf("The API at %s answered.", m.cfg.API.BaseURL) + "\n\n" + hint
}

func timeoutLabel(sec int) string {
	if sec <= 0 {
		return "none"
	}
	return fmt.Sprintf("%ds", sec)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., http://localhost:8000/api)")
	}
	return nil
}

func validateSeconds(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("timeout must be a whole number of seconds")
	}
	return nil
}
