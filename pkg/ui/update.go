package ui

import (
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/fd1az/blockterm/business/explorer/app"
	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
	"github.com/fd1az/blockterm/pkg/ui/components"
)

// Update handles messages and updates the model. Every message ends with a
// fresh snapshot so View never touches the shared state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			cmd = m.handleSearchKey(msg)
		} else {
			cmd = m.handleKey(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.rows = RowsFor(msg.Height)
		if m.opts.InitialRows > 0 {
			m.rows = m.opts.InitialRows
		}
		if !m.ready {
			m.ready = true
			m.dispatch.Dispatch(domain.InitialSetup{N: m.rows})
		}

	case TickMsg:
		cmd = tickCmd(m.opts.TickInterval)

	case StateChangedMsg:

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.state.ReportError(apperror.External(apperror.CodeClipboardFailed, "clipboard", msg.err))
		} else {
			m.state.ReportInfo("copied " + components.ShortHex(msg.text))
		}
	}

	m.snap = m.state.Snapshot()
	m.stats.Update(m.snap.Statistics)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case msg.String() == "/":
		return m.startEditing()

	case key.Matches(msg, m.keys.Search):
		m.state.Focus(domain.PaneSearchBar)

	case key.Matches(msg, m.keys.Edit):
		if m.state.Current().Pane == domain.PaneSearchBar {
			return m.startEditing()
		}

	case key.Matches(msg, m.keys.Blocks):
		m.state.Focus(domain.PaneLatestBlocks)

	case key.Matches(msg, m.keys.Transactions):
		m.state.Focus(domain.PaneLatestTransactions)

	case key.Matches(msg, m.keys.Main):
		m.state.Focus(domain.PaneMain)

	case key.Matches(msg, m.keys.Down):
		m.state.Move(true)

	case key.Matches(msg, m.keys.Up):
		m.state.Move(false)

	case key.Matches(msg, m.keys.Enter):
		if m.state.Current().Pane == domain.PaneSearchBar {
			return m.startEditing()
		}
		if cmd := m.state.Activate(); cmd != nil {
			m.dispatch.Dispatch(cmd)
		}

	case key.Matches(msg, m.keys.Back):
		m.state.Back()

	case key.Matches(msg, m.keys.Fullscreen):
		m.fullscreen = !m.fullscreen

	case key.Matches(msg, m.keys.Reload):
		m.reload()

	case key.Matches(msg, m.keys.Copy):
		if text := copyTarget(m.snap); text != "" {
			return copyCmd(text)
		}
	}
	return nil
}

// reload refetches the focused latest list.
func (m *Model) reload() {
	switch m.state.Current().Pane {
	case domain.PaneLatestBlocks:
		m.state.ResetBlocksPane()
		m.dispatch.Dispatch(domain.RefreshStatistics{})
		m.dispatch.Dispatch(domain.FetchLatestBlocks{N: m.rowCount()})
	case domain.PaneLatestTransactions:
		m.state.ResetTransactionsPane()
		m.dispatch.Dispatch(domain.FetchLatestTransactions{N: m.rowCount()})
	}
}

func (m *Model) rowCount() int {
	if m.rows > 0 {
		return m.rows
	}
	return RowsFor(m.height)
}

func (m *Model) startEditing() tea.Cmd {
	m.state.Focus(domain.PaneSearchBar)
	m.editing = true
	m.updateSuggestions()
	return m.search.Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	m.suggestions = nil
	m.search.Blur()
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.String() == "ctrl+c":
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Submit):
		m.submitSearch()
		return nil

	case key.Matches(msg, m.keys.Cancel):
		m.stopEditing()
		return nil

	case key.Matches(msg, m.keys.Complete):
		if len(m.suggestions) > 0 {
			m.search.SetValue(m.suggestions[0])
			m.search.CursorEnd()
			m.updateSuggestions()
		}
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.updateSuggestions()
	return cmd
}

// submitSearch parses the input and opens the searching view. Unparseable
// input stays in the bar and is reported on the status line.
func (m *Model) submitSearch() {
	query := strings.TrimSpace(m.search.Value())
	m.stopEditing()
	if query == "" {
		return
	}

	cmd, err := domain.ParseSearch(query)
	if err != nil {
		m.state.ReportError(err)
		return
	}
	m.search.Reset()
	m.state.BeginSearch(query)
	m.dispatch.Dispatch(cmd)
}

// updateSuggestions ranks the resolved names against the input.
func (m *Model) updateSuggestions() {
	m.suggestions = nil
	input := strings.TrimSpace(m.search.Value())
	if input == "" || m.snap.Ens == nil {
		return
	}

	ranks := fuzzy.RankFindFold(input, m.snap.Ens.Names())
	sort.Sort(ranks)
	for _, r := range ranks {
		if r.Target == input {
			continue
		}
		m.suggestions = append(m.suggestions, r.Target)
		if len(m.suggestions) == maxSuggestions {
			break
		}
	}
}

// copyTarget picks the hash or address under the cursor.
func copyTarget(snap app.Snapshot) string {
	cur := snap.Current
	switch cur.Pane {
	case domain.PaneLatestBlocks:
		if snap.LatestBlocks == nil {
			return ""
		}
		if b, ok := snap.LatestBlocks.SelectedItem(); ok {
			return b.Hash().Hex()
		}
		return ""
	case domain.PaneLatestTransactions:
		if snap.LatestTransactions == nil {
			return ""
		}
		if tx, ok := snap.LatestTransactions.SelectedItem(); ok {
			return tx.Hash().Hex()
		}
		return ""
	}

	switch r := cur.ID.(type) {
	case domain.RouteBlock:
		if r.Block == nil {
			return ""
		}
		items := domain.BlockDetailItems(r.Block)
		if cur.Cursor >= 0 && cur.Cursor < len(items) {
			switch items[cur.Cursor] {
			case domain.BlockItemFeeRecipient:
				return r.Block.Block.Coinbase().Hex()
			case domain.BlockItemParentHash:
				return r.Block.Block.ParentHash().Hex()
			}
		}
		return r.Block.Hash().Hex()

	case domain.RouteTransactionsOfBlock:
		if r.Block == nil {
			return ""
		}
		txs := r.Block.Block.Transactions()
		if cur.Cursor >= 0 && cur.Cursor < txs.Len() {
			return txs[cur.Cursor].Hash().Hex()
		}
		return r.Block.Hash().Hex()

	case domain.RouteWithdrawalsOfBlock:
		if r.Block == nil {
			return ""
		}
		ws := r.Block.Block.Withdrawals()
		if cur.Cursor >= 0 && cur.Cursor < len(ws) {
			return ws[cur.Cursor].Address.Hex()
		}
		return r.Block.Hash().Hex()

	case domain.RouteTransaction:
		if r.Tx == nil {
			return ""
		}
		items := domain.TxDetailItems(r.Tx)
		if cur.Cursor >= 0 && cur.Cursor < len(items) {
			switch items[cur.Cursor] {
			case domain.TxItemFrom:
				return r.Tx.From.Hex()
			case domain.TxItemTo:
				return r.Tx.Tx.To().Hex()
			case domain.TxItemInputData:
				return hexutil.Encode(r.Tx.Tx.Data())
			}
		}
		return r.Tx.Hash().Hex()

	case domain.RouteInputData:
		if r.Tx == nil {
			return ""
		}
		return hexutil.Encode(r.Tx.Tx.Data())

	case domain.RouteAddressInfo:
		if r.Info == nil {
			return ""
		}
		return r.Info.Address.Hex()
	}
	return ""
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: clipboard.WriteAll(text)}
	}
}
