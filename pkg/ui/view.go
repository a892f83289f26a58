package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/pkg/ui/components"
)

// sparklineMinHeight is the terminal height from which the gas sparkline
// is drawn under the latest blocks.
const sparklineMinHeight = 45

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !m.ready {
		return "\n  " + m.spinner.View() + " Initializing…\n"
	}

	search := m.renderSearchBar()
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(search)-lipgloss.Height(footer), 5)

	var body string
	if m.fullscreen {
		body = m.renderMain(m.width, bodyHeight)
	} else {
		left := m.width / 3
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderSidebar(left),
			m.renderMain(m.width-left, bodyHeight),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, search, body, footer)
}

func (m Model) focused(pane domain.ActiveBlock) bool {
	return m.snap.Current.Pane == pane
}

func (m Model) labeler() components.Labeler {
	return components.Labeler{Ens: m.snap.Ens, Registry: m.opts.Registry, ChainID: m.opts.ChainID}
}

func (m Model) renderSearchBar() string {
	hint := "press 'i' to edit, 'q' to exit"
	if m.editing {
		hint = "'esc' to stop editing, 'enter' to search"
	}
	title := HeaderStyle.Render("Search by Address / Txn Hash / Block / Domain Name") + MutedValue.Render(" ("+hint+")")

	content := title + "\n" + m.search.View()
	if m.editing && len(m.suggestions) > 0 {
		content += "\n" + MutedValue.Render("tab: ") + SuggestionStyle.Render(strings.Join(m.suggestions, "  "))
	}
	return boxStyle(m.focused(domain.PaneSearchBar) || m.editing).Width(max(m.width-2, 10)).Render(content)
}

func (m Model) renderSidebar(width int) string {
	inner := max(width-4, 10)
	lab := m.labeler()

	stats := BoxStyle.Width(width - 2).Render(
		HeaderStyle.Render("Statistics") + "\n" + m.stats.View(inner),
	)

	blocks := HeaderStyle.Render("Latest Blocks [1]") + "\n" + components.LatestBlocks(m.snap.LatestBlocks, lab)
	if m.height >= sparklineMinHeight {
		if graph := components.GasSparkline(m.snap.LatestBlocks, inner-8, 4); graph != "" {
			blocks += "\n\n" + graph
		}
	}
	blocksBox := boxStyle(m.focused(domain.PaneLatestBlocks)).Width(width - 2).Render(blocks)

	txs := HeaderStyle.Render("Latest Transactions [2]") + "\n" + components.LatestTransactions(m.snap.LatestTransactions, lab)
	txsBox := boxStyle(m.focused(domain.PaneLatestTransactions)).Width(width - 2).Render(txs)

	return lipgloss.JoinVertical(lipgloss.Left, stats, blocksBox, txsBox)
}

func (m Model) renderMain(width, height int) string {
	inner := max(width-4, 10)
	limit := max(height-5, 1)
	cur := m.snap.Current
	lab := m.labeler()

	var content string
	switch r := cur.ID.(type) {
	case domain.RouteWelcome:
		content = renderWelcome()
	case domain.RouteSearching:
		if m.snap.Loading {
			content = m.spinner.View() + " Searching for " + r.Query + "…"
		} else {
			content = MutedValue.Render("No result for " + r.Query)
		}
	case domain.RouteAddressInfo:
		content = components.Address(r.Info, cur.Cursor, inner, limit, lab)
	case domain.RouteBlock:
		content = components.Block(r.Block, cur.Cursor, lab)
	case domain.RouteTransactionsOfBlock:
		content = components.BlockTransactions(r.Block, cur.Cursor, limit, lab)
	case domain.RouteWithdrawalsOfBlock:
		content = components.BlockWithdrawals(r.Block, cur.Cursor, limit, lab)
	case domain.RouteTransaction:
		content = components.Transaction(r.Tx, cur.Cursor, lab)
	case domain.RouteInputData:
		content = components.InputData(r.Tx, r.Decoded, inner)
	}

	title := HeaderStyle.Render(routeTitle(cur.ID) + " [3]")
	return boxStyle(m.focused(domain.PaneMain)).
		Width(width - 2).
		Height(max(height-2, 1)).
		Render(title + "\n\n" + content)
}

func routeTitle(id domain.RouteID) string {
	switch id.(type) {
	case domain.RouteWelcome:
		return "Welcome"
	case domain.RouteSearching:
		return "Searching"
	case domain.RouteAddressInfo:
		return "Address"
	case domain.RouteBlock:
		return "Block"
	case domain.RouteTransactionsOfBlock:
		return "Block Transactions"
	case domain.RouteWithdrawalsOfBlock:
		return "Block Withdrawals"
	case domain.RouteTransaction:
		return "Transaction"
	case domain.RouteInputData:
		return "Input Data"
	default:
		return ""
	}
}

func (m Model) renderFooter() string {
	st := components.Status{
		Loading: m.snap.Loading,
		Pending: m.snap.Pending,
		Spinner: m.spinner.View(),
		Route:   routeTitle(m.snap.Current.ID),
	}
	if s := m.snap.Status; s != nil {
		st.Message = s.Text
		st.IsError = s.IsError
	}
	return " " + components.StatusLine(st) + "\n" + HelpStyle.Render(m.help.View(m.keys))
}

func renderWelcome() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(" ⛓  blockterm "))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("An Ethereum explorer for the terminal."))
	sb.WriteString("\n\n")

	hints := [][2]string{
		{"s, /", "search an address, transaction hash, block number or ENS name"},
		{"1, 2, 3", "focus latest blocks, latest transactions or this pane"},
		{"j, k", "move through lists and detail rows"},
		{"enter", "open the selection"},
		{"esc", "go back"},
		{"r", "reload the focused list"},
		{"y", "copy the selected hash or address"},
		{"ctrl+e", "toggle fullscreen"},
	}
	for _, h := range hints {
		sb.WriteString(SuggestionStyle.Render(lipgloss.NewStyle().Width(10).Render(h[0])))
		sb.WriteString(h[1])
		sb.WriteString("\n")
	}
	return sb.String()
}
