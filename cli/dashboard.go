// cli/dashboard.go
// Package cli provides the interactive terminal dashboard for gridcast: a
// single-model view, a comparison view across every trained model and a chat
// panel for asking the assistant about what is on screen.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/chat"
	"github.com/mwiater/gridcast/internal/dashboard"
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/mwiater/gridcast/internal/store"
)

// CatalogSource returns the granularity catalog and trained-model availability.
type CatalogSource interface {
	Catalog(ctx context.Context) (forecast.Catalog, error)
}

// DashboardOptions wires the dashboard to its collaborators. State is created
// from Config when nil. A nil Session disables the chat panel.
type DashboardOptions struct {
	Config  *appconfig.Config
	Catalog CatalogSource
	Loader  *store.Loader
	Session *chat.Session
	State   *dashboard.State
}

// focusArea is the part of the screen receiving key presses.
type focusArea int

const (
	focusDashboard focusArea = iota
	focusChat
)

const chatPanelHeight = 8

// model is the Bubble Tea model for the dashboard.
type model struct {
	ctx      context.Context
	opts     DashboardOptions
	state    *dashboard.State
	renderer *Renderer

	catalogLoaded bool
	focus         focusArea
	sending       bool
	notice        string

	textArea      textarea.Model
	viewport      viewport.Model
	spinner       spinner.Model
	width, height int
}

// catalogLoadedMsg carries the result of the catalog request.
type catalogLoadedMsg struct {
	catalog forecast.Catalog
	err     error
}

// roundLoadedMsg carries the store built for one generation.
type roundLoadedMsg struct {
	generation uint64
	store      *store.Store
	outcomes   []store.Outcome
}

// chatReplyMsg carries the assistant reply, or the fallback on failure.
type chatReplyMsg struct {
	message chat.Message
	err     error
}

func newState(cfg *appconfig.Config) *dashboard.State {
	var opts []dashboard.Option
	if cfg != nil && cfg.Alignment == appconfig.AlignIndex {
		opts = append(opts, dashboard.WithPositionalRows())
	}
	return dashboard.New(opts...)
}

// initialModel creates the dashboard model with its input widgets.
func initialModel(ctx context.Context, opts DashboardOptions) *model {
	if opts.Config == nil {
		cfg := appconfig.Defaults()
		opts.Config = &cfg
	}
	state := opts.State
	if state == nil {
		state = newState(opts.Config)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Ask about these forecasts..."
	ta.Prompt = "Ask: "
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &model{
		ctx:      ctx,
		opts:     opts,
		state:    state,
		renderer: NewRenderer(*opts.Config),
		textArea: ta,
		viewport: viewport.New(80, chatPanelHeight),
		spinner:  s,
	}
}

func loadCatalogCmd(ctx context.Context, src CatalogSource) tea.Cmd {
	return func() tea.Msg {
		if src == nil {
			return catalogLoadedMsg{err: errors.New("no catalog source configured")}
		}
		c, err := src.Catalog(ctx)
		return catalogLoadedMsg{catalog: c, err: err}
	}
}

func loadRoundCmd(ctx context.Context, loader *store.Loader, round dashboard.Round) tea.Cmd {
	return func() tea.Msg {
		st, outcomes := loader.Load(ctx, round.Granularity, round.Entries)
		return roundLoadedMsg{generation: round.Generation, store: st, outcomes: outcomes}
	}
}

func sendChatCmd(ctx context.Context, session *chat.Session, text string, c chat.Context) tea.Cmd {
	return func() tea.Msg {
		msg, err := session.Send(ctx, text, c)
		return chatReplyMsg{message: msg, err: err}
	}
}

// granularityCodes lists the codes offered for selection: the catalog's when
// it has any, otherwise every known code.
func (m *model) granularityCodes() []string {
	var codes []string
	for _, g := range m.state.Catalog().Granularities {
		codes = append(codes, g.Code)
	}
	if len(codes) == 0 {
		for _, c := range granularity.Codes() {
			codes = append(codes, string(c))
		}
	}
	return codes
}

// initialGranularity picks the first catalog granularity with trained models.
func initialGranularity(c forecast.Catalog) string {
	for _, g := range c.Granularities {
		if len(c.Entries(g.Code)) > 0 {
			return g.Code
		}
	}
	if len(c.Granularities) > 0 {
		return c.Granularities[0].Code
	}
	return string(granularity.Hourly)
}

// startRound begins a fetch round for code. Rounds already in flight become stale.
func (m *model) startRound(code string) tea.Cmd {
	if !m.catalogLoaded {
		return nil
	}
	round, err := m.state.SelectGranularity(code)
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	m.notice = ""
	logging.WithComponent("dashboard").
		WithField("granularity", round.Granularity).
		WithField("generation", round.Generation).
		Debugf("fetching %d models", len(round.Entries))
	return tea.Batch(m.spinner.Tick, loadRoundCmd(m.ctx, m.opts.Loader, round))
}

func (m *model) cycleGranularity(delta int) tea.Cmd {
	codes := m.granularityCodes()
	current := m.state.Granularity()
	idx := 0
	for i, c := range codes {
		if c == current {
			idx = i
		}
	}
	return m.startRound(codes[(idx+delta+len(codes))%len(codes)])
}

func (m *model) cycleModel(delta int) {
	models := m.state.Store().Models()
	if len(models) == 0 {
		return
	}
	idx := 0
	for i, id := range models {
		if id == m.state.SelectedModel() {
			idx = i
		}
	}
	_ = m.state.SelectModel(models[(idx+delta+len(models))%len(models)])
}

func (m *model) toggleView() {
	if m.state.View() == chat.ViewCompare {
		m.state.SetView(chat.ViewSingle)
		return
	}
	m.state.SetView(chat.ViewCompare)
}

func (m *model) sendChat() tea.Cmd {
	text := strings.TrimSpace(m.textArea.Value())
	if text == "" {
		return nil
	}
	if m.opts.Session == nil {
		m.notice = "The assistant is not configured."
		return nil
	}
	if m.sending || m.opts.Session.Busy() {
		m.notice = "Wait for the assistant to answer before sending another message."
		return nil
	}
	m.sending = true
	m.notice = ""
	m.textArea.Reset()
	return tea.Batch(m.spinner.Tick, sendChatCmd(m.ctx, m.opts.Session, text, m.state.ChatContext()))
}

// Init starts the spinner and requests the catalog.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCatalogCmd(m.ctx, m.opts.Catalog))
}

// Update is the central update function for the dashboard.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		m.viewport.Width = msg.Width
		m.viewport.Height = chatPanelHeight
		return m, nil

	case catalogLoadedMsg:
		m.state.SetCatalog(msg.catalog, msg.err)
		if msg.err != nil {
			logging.WithComponent("dashboard").WithError(msg.err).Error("catalog request failed")
			return m, nil
		}
		m.catalogLoaded = true
		return m, m.startRound(initialGranularity(msg.catalog))

	case roundLoadedMsg:
		if !m.state.ApplyRound(msg.generation, msg.store) {
			logging.WithComponent("dashboard").WithField("generation", msg.generation).Debug("discarded stale round")
		}
		return m, nil

	case chatReplyMsg:
		m.sending = false
		if msg.err != nil && !errors.Is(msg.err, chat.ErrSendInFlight) {
			m.notice = "The assistant could not be reached."
		}
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.state.Loading() || m.sending || (!m.catalogLoaded && m.state.Banner() == "") {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.focus == focusChat {
		var cmd tea.Cmd
		m.textArea, cmd = m.textArea.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.focus == focusChat {
		switch msg.String() {
		case "esc":
			m.focus = focusDashboard
			m.textArea.Blur()
			return m, nil
		case "enter":
			return m, m.sendChat()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.textArea, cmd = m.textArea.Update(msg)
		return m, cmd
	}

	switch key := msg.String(); key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.toggleView()
	case "left", "h":
		return m, m.cycleGranularity(-1)
	case "right", "l":
		return m, m.cycleGranularity(1)
	case "up", "k":
		m.cycleModel(-1)
	case "down", "j":
		m.cycleModel(1)
	case "r":
		if !m.catalogLoaded {
			return m, loadCatalogCmd(m.ctx, m.opts.Catalog)
		}
		if code := m.state.Granularity(); code != "" {
			return m, m.startRound(code)
		}
	case "c", "/":
		m.focus = focusChat
		return m, m.textArea.Focus()
	case "1", "2", "3", "4", "5":
		codes := m.granularityCodes()
		if idx := int(key[0] - '1'); idx < len(codes) {
			return m, m.startRound(codes[idx])
		}
	}
	return m, nil
}

// View renders the dashboard.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	if banner := m.state.Banner(); banner != "" {
		b.WriteString("\n" + Banner(banner))
	}
	b.WriteString("\n\n")
	b.WriteString(m.bodyView())
	b.WriteString("\n\n")
	b.WriteString(m.chatView())
	if m.notice != "" {
		b.WriteString("\n" + failedStyle.Render(m.notice))
	}
	b.WriteString("\n" + mutedStyle.Render(m.helpLine()))
	return b.String()
}

func (m *model) headerView() string {
	tab := lipgloss.NewStyle().Padding(0, 1)
	active := tab.Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230"))
	parts := []string{titleStyle.Render("gridcast")}
	current := m.state.Granularity()
	for i, code := range m.granularityCodes() {
		label := fmt.Sprintf("%d %s", i+1, granularity.Code(code).Name())
		if code == current {
			parts = append(parts, active.Render(label))
		} else {
			parts = append(parts, tab.Render(label))
		}
	}
	viewLabel := "single model"
	if m.state.View() == chat.ViewCompare {
		viewLabel = "compare"
	}
	parts = append(parts, mutedStyle.Render(" view: "+viewLabel))
	parts = append(parts, renderAPIBadge(deriveAPIStatus(m.catalogLoaded, m.state.Banner())))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *model) rowLimit() int {
	return max(m.height-chatPanelHeight-16, 5)
}

func (m *model) bodyView() string {
	code := granularity.Code(m.state.Granularity())
	switch {
	case !m.catalogLoaded && m.state.Banner() == "":
		return fmt.Sprintf("  %s Loading model catalog...", m.spinner.View())
	case !m.catalogLoaded:
		return mutedStyle.Render("Start the outputs API and press r to retry once the catalog loads.")
	case m.state.Loading():
		return fmt.Sprintf("  %s Fetching %s forecasts...", m.spinner.View(), code.Name())
	case m.state.EmptyState():
		return mutedStyle.Render(fmt.Sprintf("No %s models could be loaded. Train models for this granularity or check the outputs API.", code.Name()))
	}

	st := m.state.Store()
	if st.Empty() {
		return ""
	}
	if m.state.View() == chat.ViewCompare {
		return strings.Join([]string{
			m.renderer.Ranking(code, m.state.Ranked()),
			m.renderer.RowsTable(code, st.Models(), m.state.Rows(), m.rowLimit()),
			titleStyle.Render("Absolute error"),
			m.renderer.ErrorSparklines(st, m.width),
		}, "\n\n")
	}
	result, ok := st.Get(m.state.SelectedModel())
	if !ok {
		return ""
	}
	return m.renderer.Single(code, result, m.rowLimit())
}

func (m *model) chatView() string {
	if m.opts.Session == nil {
		return mutedStyle.Render("Chat is unavailable: no assistant configured.")
	}
	m.viewport.SetContent(m.renderer.Chat(m.opts.Session.Messages(), m.width-2))
	var b strings.Builder
	b.WriteString(m.viewport.View())
	if m.sending {
		b.WriteString("\n" + m.spinner.View() + " Assistant is thinking...")
	} else {
		b.WriteString("\n" + m.textArea.View())
	}
	return b.String()
}

func (m *model) helpLine() string {
	if m.focus == focusChat {
		return "enter send · pgup/pgdown scroll · esc back · ctrl+c quit"
	}
	return "tab view · ←/→ or 1-5 granularity · ↑/↓ model · c chat · r reload · q quit"
}

// StartDashboard runs the dashboard until the user quits.
func StartDashboard(ctx context.Context, opts DashboardOptions) error {
	if opts.Loader == nil {
		return errors.New("dashboard: a loader is required")
	}
	m := initialModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
