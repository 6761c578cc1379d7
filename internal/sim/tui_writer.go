package sim

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"lnops-sim/internal/incident"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Controller is the part of Engine the console drives.
type Controller interface {
	Start() bool
	SelectEvent(id string) bool
	ApplyAction(action Action, id string) ActionResult
	Retry() bool
	Exit()
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) func()
}

// snapshotMsg carries a fresh engine snapshot into the model.
type snapshotMsg struct{ Snapshot }

// resultMsg reports the last mitigation attempt.
type resultMsg struct {
	action Action
	res    ActionResult
	snap   Snapshot
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	fatalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	severityTint = map[incident.Severity]lipgloss.Style{
		incident.SeverityLow:      dimStyle,
		incident.SeverityMedium:   warnStyle,
		incident.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		incident.SeverityCritical: fatalStyle,
	}
)

// TUIWriter renders a stress test session using a bubbletea TUI.
type TUIWriter struct {
	program     teaProgram
	run         func() (tea.Model, error)
	ctrl        Controller
	unsubscribe func()
}

// NewTUIWriter builds the console for ctrl. Run starts it.
func NewTUIWriter(ctrl Controller, rules Rules, opts ...tea.ProgramOption) *TUIWriter {
	m := newTUIModel(ctrl, rules)
	p := tea.NewProgram(m, opts...)
	w := &TUIWriter{program: p, run: p.Run, ctrl: ctrl}
	w.unsubscribe = ctrl.Subscribe(w.push)
	return w
}

func (w *TUIWriter) push(s Snapshot) {
	w.program.Send(snapshotMsg{s})
}

// Run blocks until the player quits, then abandons the session.
func (w *TUIWriter) Run() error {
	defer w.ctrl.Exit()
	if w.unsubscribe != nil {
		defer w.unsubscribe()
	}
	if w.run == nil {
		return nil
	}
	_, err := w.run()
	return err
}

type tuiModel struct {
	ctrl     Controller
	rules    Rules
	snap     Snapshot
	table    table.Model
	vp       viewport.Model
	width    int
	height   int
	report   bool
	lastNote string
}

func newTUIModel(ctrl Controller, rules Rules) tuiModel {
	cols := []table.Column{
		{Title: "Sev", Width: 9},
		{Title: "Type", Width: 20},
		{Title: "Incident", Width: 26},
		{Title: "Symptom", Width: 40},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(rules.MaxActive+1), table.WithFocused(true))
	m := tuiModel{
		ctrl:  ctrl,
		rules: rules,
		snap:  ctrl.Snapshot(),
		table: t,
		vp:    viewport.New(0, 0),
	}
	m.refresh()
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refresh()
	case snapshotMsg:
		m.apply(msg.Snapshot)
	case resultMsg:
		m.apply(msg.snap)
		m.lastNote = describeResult(msg.action, msg.res)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// apply installs s unless a newer snapshot was already seen.
func (m *tuiModel) apply(s Snapshot) {
	if s.Version < m.snap.Version {
		return
	}
	if s.RunID != m.snap.RunID {
		m.report = false
		m.lastNote = ""
	}
	m.snap = s
	m.refresh()
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		ctrl := m.ctrl
		return m, tea.Sequence(func() tea.Msg { ctrl.Exit(); return nil }, tea.Quit)
	}
	switch m.snap.State.Phase {
	case PhaseBriefing:
		if key == "enter" {
			return m, m.do(func(c Controller) { c.Start() })
		}
	case PhaseRunning:
		return m.handleRunningKey(key)
	case PhaseFailed:
		if key == "r" {
			return m, m.do(func(c Controller) { c.Retry() })
		}
	case PhaseSuccess:
		switch key {
		case "enter":
			m.report = !m.report
		case "r":
			return m, m.do(func(c Controller) { c.Retry() })
		}
	}
	return m, nil
}

func (m tuiModel) handleRunningKey(key string) (tea.Model, tea.Cmd) {
	open := m.snap.Unresolved
	switch key {
	case "up", "k":
		m.table.MoveUp(1)
		return m, m.selectCursor(open)
	case "down", "j":
		m.table.MoveDown(1)
		return m, m.selectCursor(open)
	case "esc":
		return m, m.do(func(c Controller) { c.SelectEvent("") })
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		i := int(key[0] - '1')
		if i >= len(Actions) {
			return m, nil
		}
		target := m.target(open)
		if target == "" {
			m.lastNote = "Select an incident first."
			return m, nil
		}
		action := Actions[i]
		ctrl := m.ctrl
		return m, func() tea.Msg {
			res := ctrl.ApplyAction(action, target)
			return resultMsg{action: action, res: res, snap: ctrl.Snapshot()}
		}
	}
	return m, nil
}

// target is the selected incident, or the one under the cursor.
func (m tuiModel) target(open []incident.Event) string {
	if ev, ok := m.snap.State.Selected(); ok {
		return ev.ID
	}
	c := m.table.Cursor()
	if c >= 0 && c < len(open) {
		return open[c].ID
	}
	return ""
}

func (m tuiModel) selectCursor(open []incident.Event) tea.Cmd {
	c := m.table.Cursor()
	if c < 0 || c >= len(open) {
		return nil
	}
	id := open[c].ID
	return m.do(func(c Controller) { c.SelectEvent(id) })
}

// do runs fn against the engine off the UI goroutine.
func (m tuiModel) do(fn func(Controller)) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		fn(ctrl)
		return snapshotMsg{ctrl.Snapshot()}
	}
}

func describeResult(a Action, res ActionResult) string {
	if !res.Applied {
		return "Action ignored."
	}
	if res.Success {
		return okStyle.Render(fmt.Sprintf("%s resolved %s (%+.0f%%)", a.Label(), res.Event.Title, res.Delta))
	}
	return fatalStyle.Render(fmt.Sprintf("%s failed on %s (%+.0f%%)", a.Label(), res.Event.Title, res.Delta))
}

func (m *tuiModel) refresh() {
	rows := make([]table.Row, 0, len(m.snap.Unresolved))
	selected := -1
	for i, ev := range m.snap.Unresolved {
		rows = append(rows, table.Row{string(ev.Severity), string(ev.Type), ev.Title, ev.Symptom})
		if ev.ID == m.snap.State.SelectedEventID {
			selected = i
		}
	}
	m.table.SetRows(rows)
	if selected >= 0 {
		m.table.SetCursor(selected)
	} else if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}

	var lines []string
	for _, l := range m.snap.State.Log {
		if m.vp.Width > 0 {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	m.vp.GotoTop()
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.renderMetrics()) - m.table.Height() - lipgloss.Height(m.renderActions()) - 8
	if h < 3 {
		h = 3
	}
	m.vp.Height = h
}

func (m tuiModel) View() string {
	switch m.snap.State.Phase {
	case PhaseBriefing:
		return m.renderBriefing()
	case PhaseFailed:
		return m.renderFailed()
	case PhaseSuccess:
		if m.report {
			return m.renderReport()
		}
		return m.renderSuccess()
	}
	divider := dimStyle.Render(strings.Repeat("─", max(m.width, 40)))
	sections := []string{
		m.renderMetrics(),
		divider,
		m.table.View(),
		m.renderSelected(),
		divider,
		m.renderActions(),
	}
	if m.lastNote != "" {
		sections = append(sections, m.lastNote)
	}
	sections = append(sections, divider, "System Log:", m.vp.View())
	return strings.Join(sections, "\n")
}

// uptimeStyle colours the uptime gauge.
func uptimeStyle(v float64) lipgloss.Style {
	switch {
	case v > 60:
		return okStyle
	case v > 30:
		return warnStyle
	}
	return fatalStyle
}

func (m tuiModel) renderMetrics() string {
	st := m.snap.State
	bar := gauge(st.Uptime, 20)
	parts := []string{
		titleStyle.Render("NODE STRESS TEST"),
		uptimeStyle(st.Uptime).Render(fmt.Sprintf("UPTIME %s %5.1f%%", bar, st.Uptime)),
		fmt.Sprintf("T-%02ds", st.TimeRemaining),
		warnStyle.Render(fmt.Sprintf("THREATS %d/%d", len(m.snap.Unresolved), m.rules.MaxActive)),
		okStyle.Render(fmt.Sprintf("RESOLVED %d", len(m.snap.Resolved))),
	}
	return strings.Join(parts, "  ")
}

func gauge(v float64, width int) string {
	filled := int(v / maxUptime * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

func (m tuiModel) renderSelected() string {
	ev, ok := m.snap.State.Selected()
	if !ok {
		if len(m.snap.Unresolved) == 0 {
			return dimStyle.Render("All systems nominal. Monitoring...")
		}
		return dimStyle.Render("No incident selected (j/k to select)")
	}
	tint, ok := severityTint[ev.Severity]
	if !ok {
		tint = dimStyle
	}
	body := fmt.Sprintf("%s %s\n%s", tint.Render("["+string(ev.Severity)+"]"), ev.Title, ev.Symptom)
	if m.width > 4 {
		body = wordwrap.String(body, m.width-4)
	}
	return panelStyle.Render(body)
}

func (m tuiModel) renderActions() string {
	var b strings.Builder
	for i, a := range Actions {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, a.Label())
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("j/k select  esc clear  q quit"))
	return b.String()
}

func (m tuiModel) renderBriefing() string {
	body := []string{
		titleStyle.Render("NODE STRESS TEST :: " + strings.ToUpper(m.snap.Track)),
		"",
		fmt.Sprintf("Keep your node alive for %d seconds while adversarial incidents hit it.", m.rules.Duration),
		fmt.Sprintf("Up to %d threats can be active at once. Each one drains uptime until mitigated.", m.rules.MaxActive),
		"Pick the right response. Waiting only works on low severity noise.",
		"If uptime reaches zero the node goes down.",
		"",
		"[ENTER] Begin   [Q] Quit",
	}
	text := strings.Join(body, "\n")
	if m.width > 4 {
		text = wordwrap.String(text, m.width-4)
	}
	return panelStyle.Render(text)
}

func (m tuiModel) renderFailed() string {
	lines := []string{fatalStyle.Render("SYSTEM FAILURE :: NODE OFFLINE"), ""}
	if m.snap.Outcome != nil {
		for _, u := range m.snap.Outcome.Unresolved {
			lines = append(lines, fatalStyle.Render("[FATAL]")+fmt.Sprintf(" Unresolved: %s (%s)", u.Title, u.RootCause))
		}
		lines = append(lines, "", fmt.Sprintf("Survived %d ticks. Resolved %d threats.", m.snap.Outcome.Ticks, m.snap.Outcome.Resolved))
	}
	lines = append(lines, "", "[R] Retry   [Q] Quit")
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m tuiModel) renderSuccess() string {
	lines := []string{
		okStyle.Render("STRESS TEST PASSED"),
		"",
		fmt.Sprintf("Final uptime: %.1f%%", m.snap.State.Uptime),
		fmt.Sprintf("Threats neutralized: %d", len(m.snap.Resolved)),
		"",
		"[ENTER] View report   [R] Retry   [Q] Quit",
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m tuiModel) renderReport() string {
	lines := []string{titleStyle.Render("INCIDENT REPORT"), ""}
	if m.snap.Outcome != nil {
		o := m.snap.Outcome
		lines = append(lines,
			fmt.Sprintf("Run:    %s", o.RunID),
			fmt.Sprintf("Track:  %s", o.Track),
			fmt.Sprintf("Score:  %.1f", o.Score),
			fmt.Sprintf("Ticks:  %d", o.Ticks),
			"",
		)
	}
	for _, ev := range m.snap.Resolved {
		lines = append(lines, fmt.Sprintf("%s %s :: %s", okStyle.Render("[OK]"), ev.Title, ev.RootCause))
	}
	lines = append(lines, "", "[ENTER] Back   [R] Retry   [Q] Quit")
	return panelStyle.Render(strings.Join(lines, "\n"))
}
