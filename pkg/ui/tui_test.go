package ui

import (
	"math/big"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
)

type recorder struct {
	cmds []domain.Command
}

func (r *recorder) Dispatch(cmd domain.Command) { r.cmds = append(r.cmds, cmd) }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func newTestModel(t *testing.T, opts Options) (Model, *app.State, *recorder) {
	t.Helper()
	state := app.NewState()
	rec := &recorder{}
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Second
	}
	m := New(state, rec, opts)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, state, rec
}

func TestRowsFor(t *testing.T) {
	assert.Equal(t, 10, RowsFor(40))
	assert.Equal(t, 1, RowsFor(10))
	assert.Equal(t, 1, RowsFor(0))
	assert.Equal(t, 21, RowsFor(62))
}

func TestModel_InitialSetupOnFirstResize(t *testing.T) {
	m, _, rec := newTestModel(t, Options{})
	assert.Equal(t, []domain.Command{domain.InitialSetup{N: 10}}, rec.cmds)

	_, _ = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 60})
	assert.Len(t, rec.cmds, 1, "only the first resize bootstraps")
}

func TestModel_InitialRowsOverride(t *testing.T) {
	_, _, rec := newTestModel(t, Options{InitialRows: 3})
	assert.Equal(t, []domain.Command{domain.InitialSetup{N: 3}}, rec.cmds)
}

func TestModel_Focus(t *testing.T) {
	m, state, _ := newTestModel(t, Options{})

	tests := []struct {
		key  string
		want domain.ActiveBlock
	}{
		{"2", domain.PaneLatestTransactions},
		{"3", domain.PaneMain},
		{"s", domain.PaneSearchBar},
		{"1", domain.PaneLatestBlocks},
	}
	for _, tt := range tests {
		m, _ = send(t, m, runes(tt.key))
		assert.Equal(t, tt.want, state.Current().Pane, "key %q", tt.key)
	}
	assert.False(t, m.editing)
}

func TestModel_Search(t *testing.T) {
	m, state, rec := newTestModel(t, Options{})

	m, _ = send(t, m, runes("/"))
	require.True(t, m.editing)
	assert.Equal(t, domain.PaneSearchBar, state.Current().Pane)

	m, _ = send(t, m, runes("17000000"), enter)
	assert.False(t, m.editing)
	assert.Empty(t, m.search.Value())
	assert.Equal(t, domain.FetchBlockByNumber{Number: 17_000_000, FromSearch: true}, rec.cmds[len(rec.cmds)-1])
	assert.Equal(t, domain.RouteSearching{Query: "17000000", Token: state.Generation()}, state.Current().ID)
	assert.Equal(t, "17000000", m.snap.Current.ID.(domain.RouteSearching).Query)

	_, _ = send(t, m, esc)
	assert.Equal(t, domain.RouteWelcome{}, state.Current().ID)
}

func TestModel_SearchFromSearchBar(t *testing.T) {
	m, _, rec := newTestModel(t, Options{})

	m, _ = send(t, m, runes("s"), runes("i"))
	require.True(t, m.editing)
	m, _ = send(t, m, runes("vitalik.eth"), enter)
	assert.Equal(t, domain.ResolveNameOrAddress{Query: "vitalik.eth", FromSearch: true}, rec.cmds[len(rec.cmds)-1])

	// enter on the focused bar starts editing too
	m, _ = send(t, m, runes("s"), enter)
	assert.True(t, m.editing)
}

func TestModel_SearchRejectsUnknownInput(t *testing.T) {
	m, state, rec := newTestModel(t, Options{})

	m, _ = send(t, m, runes("/"), runes("hello"), enter)
	assert.Len(t, rec.cmds, 1)
	assert.Equal(t, domain.RouteWelcome{}, state.Current().ID)
	assert.Equal(t, "hello", m.search.Value(), "input stays for correction")
	require.NotNil(t, m.snap.Status)
	assert.True(t, m.snap.Status.IsError)
	assert.Contains(t, m.snap.Status.Text, "hello")
}

func TestModel_SearchEscStopsEditing(t *testing.T) {
	m, state, rec := newTestModel(t, Options{})

	m, _ = send(t, m, runes("/"), runes("123"), esc)
	assert.False(t, m.editing)
	assert.Len(t, rec.cmds, 1)
	assert.Equal(t, domain.RouteWelcome{}, state.Current().ID, "esc while editing does not navigate")
}

func TestModel_Reload(t *testing.T) {
	m, _, rec := newTestModel(t, Options{})

	m, _ = send(t, m, runes("1"), runes("r"))
	assert.Equal(t, []domain.Command{
		domain.InitialSetup{N: 10},
		domain.RefreshStatistics{},
		domain.FetchLatestBlocks{N: 10},
	}, rec.cmds)

	rec.cmds = nil
	m, _ = send(t, m, runes("2"), runes("r"))
	assert.Equal(t, []domain.Command{domain.FetchLatestTransactions{N: 10}}, rec.cmds)

	rec.cmds = nil
	_, _ = send(t, m, runes("3"), runes("r"))
	assert.Empty(t, rec.cmds, "the detail pane has nothing to reload")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, Options{})
	m, cmd := send(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Contains(t, m.View(), "Goodbye")
}

func TestModel_ToggleFullscreenAndHelp(t *testing.T) {
	m, _, _ := newTestModel(t, Options{})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlE}, runes("?"))
	assert.True(t, m.fullscreen)
	assert.True(t, m.help.ShowAll)
	assert.NotContains(t, m.View(), "Statistics")
}

func TestModel_Suggestions(t *testing.T) {
	m, _, _ := newTestModel(t, Options{})
	m, _ = send(t, m, runes("/"))

	ens := domain.NewEnsCache()
	for _, name := range []string{"vitalik.eth", "nick.eth", "vitalik2.eth"} {
		n := name
		ens.Insert(common.BigToAddress(big.NewInt(int64(len(n)))), &n)
	}
	m.snap.Ens = ens
	m.search.SetValue("vtlk")
	m.updateSuggestions()
	require.NotEmpty(t, m.suggestions)
	assert.Equal(t, "vitalik.eth", m.suggestions[0])
	assert.NotContains(t, m.suggestions, "nick.eth")

	// completion uses the best match; the next update rebuilds the snapshot
	m.handleSearchKey(tab)
	assert.Equal(t, "vitalik.eth", m.search.Value())
}

func TestModel_View(t *testing.T) {
	m := New(app.NewState(), &recorder{}, Options{})
	assert.Contains(t, m.View(), "Initializing")

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	assert.Contains(t, view, "Search by Address")
	assert.Contains(t, view, "Welcome")
	assert.Contains(t, view, "Statistics")
	assert.Contains(t, view, "Latest Blocks")
	assert.Contains(t, view, "Latest Transactions")
}

func TestModel_SearchingView(t *testing.T) {
	m, state, _ := newTestModel(t, Options{})
	state.BeginSearch("50")
	m, _ = send(t, m, StateChangedMsg{})

	view := m.View()
	assert.Contains(t, view, "No result for 50")
	assert.NotContains(t, view, "Searching for 50")
	assert.NotContains(t, view, m.spinner.View())

	m.snap.Loading = true
	view = m.View()
	assert.Contains(t, view, "Searching for 50")
	assert.Contains(t, view, m.spinner.View())
}

func TestCopyTarget(t *testing.T) {
	header := &types.Header{Number: big.NewInt(7), Coinbase: common.HexToAddress("0xc0ffee"), ParentHash: common.HexToHash("0xabc")}
	block := &domain.BlockWithReceipts{Block: types.NewBlockWithHeader(header)}

	route := func(id domain.RouteID, pane domain.ActiveBlock, cursor int) app.Snapshot {
		r := domain.NewRoute(id, pane)
		r.Cursor = cursor
		return app.Snapshot{Current: r}
	}

	assert.Equal(t, block.Hash().Hex(), copyTarget(route(domain.RouteBlock{Block: block}, domain.PaneMain, domain.NoCursor)))
	assert.Equal(t, header.Coinbase.Hex(), copyTarget(route(domain.RouteBlock{Block: block}, domain.PaneMain, 1)))
	assert.Equal(t, header.ParentHash.Hex(), copyTarget(route(domain.RouteBlock{Block: block}, domain.PaneMain, 2)))
	assert.Empty(t, copyTarget(route(domain.RouteBlock{}, domain.PaneMain, 0)))
	assert.Empty(t, copyTarget(route(domain.RouteWelcome{}, domain.PaneMain, domain.NoCursor)))
	assert.Empty(t, copyTarget(route(domain.RouteBlock{Block: block}, domain.PaneLatestBlocks, 0)), "no latest list yet")

	snap := route(domain.RouteWelcome{}, domain.PaneLatestBlocks, domain.NoCursor)
	snap.LatestBlocks = domain.NewSelectionList([]*domain.BlockWithReceipts{block}, domain.DefaultHeaderSize)
	snap.LatestBlocks.Select(0)
	assert.Equal(t, block.Hash().Hex(), copyTarget(snap))

	addr := common.HexToAddress("0xbeef")
	assert.Equal(t, addr.Hex(), copyTarget(route(domain.RouteAddressInfo{Info: &domain.AddressInfo{Address: addr}}, domain.PaneMain, domain.NoCursor)))
}
