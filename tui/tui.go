// ABOUTME: Terminal dashboard using the bubbletea framework
// ABOUTME: Shows the panel grid, the filter bar and the load status; loads go through the coordinator
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/salesdash/loader"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/panels"
	"github.com/harperreed/salesdash/scheduler"
)

// Options wires the dashboard to its collaborators.
type Options struct {
	Context     context.Context
	Coordinator *loader.Coordinator
	Scheduler   *scheduler.Scheduler
	Dispatcher  *panels.Dispatcher
	People      *panels.PersonTotalsPanel
	Prober      loader.Prober
	Filters     *FilterState
	Endpoint    string
	AutoRefresh bool
}

type keyMap struct {
	Quit       key.Binding
	Apply      key.Binding
	Refresh    key.Binding
	Reset      key.Binding
	ToggleAuto key.Binding
	FilterBar  key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Leave      key.Binding
	Submit     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	Suggest    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Apply:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "apply")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Reset:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
		ToggleAuto: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "auto refresh")),
		FilterBar:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filters")),
		PrevPage:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev page")),
		NextPage:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
		ScrollUp:   key.NewBinding(key.WithKeys("up", "k")),
		ScrollDown: key.NewBinding(key.WithKeys("down", "j")),
		Leave:      key.NewBinding(key.WithKeys("tab", "esc"), key.WithHelp("tab/esc", "leave")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		NextField:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next field")),
		PrevField:  key.NewBinding(key.WithKeys("up", "shift+tab"), key.WithHelp("↑", "prev field")),
		Suggest:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "suggest")),
	}
}

// Model is the main bubbletea model
type Model struct {
	ctx        context.Context
	coord      *loader.Coordinator
	sched      *scheduler.Scheduler
	dispatcher *panels.Dispatcher
	people     *panels.PersonTotalsPanel
	prober     loader.Prober
	filters    *FilterState
	endpoint   string
	keys       keyMap

	// Dashboard state
	payload          *models.Payload
	source           loader.Source
	regions          []panels.Region
	fallback         error
	status           loader.Status
	busy             bool
	spinner          spinner.Model
	message          string
	autoRefresh      bool
	schedulerStarted bool
	scroll           int

	// Filter bar state
	inputs        []textinput.Model
	focusIndex    int
	filterFocused bool
	options       models.Options
	suggestion    int

	// UI state
	width  int
	height int
}

// NewModel creates a new dashboard model
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Filters == nil {
		opts.Filters = NewFilterState(models.DefaultFilters())
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := Model{
		ctx:         opts.Context,
		coord:       opts.Coordinator,
		sched:       opts.Scheduler,
		dispatcher:  opts.Dispatcher,
		people:      opts.People,
		prober:      opts.Prober,
		filters:     opts.Filters,
		endpoint:    opts.Endpoint,
		keys:        defaultKeyMap(),
		spinner:     s,
		autoRefresh: opts.AutoRefresh,
		inputs:      newFilterInputs(),
		suggestion:  -1,
		width:       80,
		height:      24,
	}
	m.setInputs(opts.Filters.Get())
	return m
}

// BootDoneMsg reports the startup sequence.
type BootDoneMsg struct {
	Result loader.BootResult
}

// LoadDoneMsg reports one Trigger call started from the dashboard.
type LoadDoneMsg struct {
	Result loader.Result
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.boot())
}

func (m Model) boot() tea.Cmd {
	coord, ctx, prober := m.coord, m.ctx, m.prober
	return func() tea.Msg {
		return BootDoneMsg{Result: coord.Boot(ctx, prober)}
	}
}

// load runs a trigger off the UI goroutine; the coordinator reports back
// through the Bridge while it works.
func (m Model) load(trig loader.Trigger) tea.Cmd {
	coord, ctx := m.coord, m.ctx
	return func() tea.Msg {
		return LoadDoneMsg{Result: coord.Trigger(ctx, trig)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.redraw()
		return m, nil
	case tea.FocusMsg:
		m.sched.SetVisible(true)
		return m, nil
	case tea.BlurMsg:
		m.sched.SetVisible(false)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case PayloadMsg:
		m.payload = msg.Payload
		m.source = msg.Source
		m.fallback = nil
		m.updateOptions()
		m.redraw()
		return m, nil
	case StatusMsg:
		m.status = msg.Status
		return m, nil
	case BusyMsg:
		m.busy = msg.Busy
		return m, nil
	case FallbackMsg:
		m.fallback = msg.Err
		m.redraw()
		return m, nil
	case BootDoneMsg:
		if msg.Result.Reachable {
			m.startScheduler()
		} else if msg.Result.ProbeErr != nil {
			m.message = "endpoint unreachable: " + msg.Result.ProbeErr.Error()
		}
		return m, nil
	case LoadDoneMsg:
		return m.handleLoadDone(msg.Result), nil
	}
	return m, nil
}

func (m Model) handleLoadDone(res loader.Result) Model {
	switch {
	case res.Outcome.Dropped():
		m.message = "a load is already running"
	case res.Outcome == loader.OutcomeSuccess:
		m.message = ""
		if !m.schedulerStarted {
			m.startScheduler()
		}
	case len(res.Warnings) > 0:
		m.message = fmt.Sprintf("%d payload warning(s): %s", len(res.Warnings), res.Warnings[0])
	}
	return m
}

func (m *Model) startScheduler() {
	m.sched.SetEnabled(m.autoRefresh)
	m.sched.Start(m.ctx)
	m.schedulerStarted = true
}

// redraw re-dispatches the current payload at the current width.
func (m *Model) redraw() {
	var regions []panels.Region
	if m.payload != nil {
		regions = m.dispatcher.Dispatch(m.payload, m.gridWidth())
	}
	if m.fallback != nil {
		regions = panels.Merge(regions, m.dispatcher.Fallback(m.fallback))
	}
	m.regions = regions
}

func (m *Model) updateOptions() {
	opts, err := m.payload.AvailableOptions()
	if err != nil {
		return
	}
	m.options = opts
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterFocused {
		return m.handleFilterKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Apply):
		if !m.commitFilters() {
			return m, nil
		}
		return m, m.load(loader.TriggerManual)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load(loader.TriggerManual)
	case key.Matches(msg, m.keys.Reset):
		defaults := models.DefaultFilters()
		m.filters.Set(defaults)
		m.setInputs(defaults)
		m.message = "filters reset"
		return m, m.load(loader.TriggerManual)
	case key.Matches(msg, m.keys.ToggleAuto):
		m.autoRefresh = !m.autoRefresh
		m.sched.SetEnabled(m.autoRefresh)
		if m.autoRefresh {
			m.message = "auto refresh on"
		} else {
			m.message = "auto refresh off"
		}
		return m, nil
	case key.Matches(msg, m.keys.FilterBar):
		cmd := m.focusFilterBar()
		return m, cmd
	case key.Matches(msg, m.keys.PrevPage):
		m.people.PrevPage()
		m.redraw()
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		m.people.NextPage()
		m.redraw()
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp):
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.scroll++
		return m, nil
	}
	return m, nil
}
