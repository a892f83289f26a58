package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
	"github.com/fd1az/blockterm/pkg/ui/components"
)

// DefaultTickInterval is the redraw period when none is configured.
const DefaultTickInterval = 250 * time.Millisecond

const maxSuggestions = 3

// Dispatcher queues fetch commands.
type Dispatcher interface {
	Dispatch(cmd domain.Command)
}

// Options tunes the dashboard.
type Options struct {
	ChainID      uint64
	Registry     *asset.Registry
	TickInterval time.Duration
	// InitialRows fixes the latest list length instead of deriving it from
	// the terminal height.
	InitialRows int
}

// Model is the main Bubble Tea model for the TUI. It renders snapshots of
// the shared state and turns keys into navigation edits and commands.
type Model struct {
	state    *app.State
	dispatch Dispatcher
	opts     Options

	// Components
	keys    KeyMap
	help    help.Model
	search  textinput.Model
	spinner spinner.Model
	stats   *components.StatisticsComponent

	snap app.Snapshot

	ready       bool
	quitting    bool
	editing     bool
	fullscreen  bool
	width       int
	height      int
	rows        int
	suggestions []string
}

// New creates a dashboard over state. Commands go to d.
func New(state *app.State, d Dispatcher, opts Options) Model {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Registry == nil {
		opts.Registry = asset.DefaultRegistry()
	}

	search := textinput.New()
	search.Placeholder = "address, tx hash, block number or name.eth"
	search.Prompt = "› "
	search.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SuggestionStyle

	return Model{
		state:    state,
		dispatch: d,
		opts:     opts,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		search:   search,
		spinner:  sp,
		stats:    components.NewStatisticsComponent(),
		snap:     state.Snapshot(),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.opts.TickInterval), m.spinner.Tick)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// RowsFor derives how many latest blocks and transactions fit a terminal
// of the given height.
func RowsFor(height int) int {
	return max((height-12)/2-4, 1)
}

// NewProgram creates the full-screen program for m.
func NewProgram(ctx context.Context, m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
}

// Notifier redraws p after each commit. Sends never block the caller.
func Notifier(p *tea.Program) app.Notifier {
	return app.NotifierFunc(func() {
		go p.Send(StateChangedMsg{})
	})
}
