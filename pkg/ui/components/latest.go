package components

import (
	"strconv"

	"github.com/guptarohit/asciigraph"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
)

const loadingText = "Loading…"

// LatestBlocks renders the latest blocks table. A nil list has not been
// fetched yet.
func LatestBlocks(list *domain.SelectionList[*domain.BlockWithReceipts], lab Labeler) string {
	if list == nil {
		return mutedStyle.Render(loadingText)
	}
	if list.Len() == 0 {
		return mutedStyle.Render("No blocks")
	}

	rows := make([][]string, 0, list.Len())
	for _, b := range list.Items() {
		h := b.Block.Header()
		rows = append(rows, []string{
			strconv.FormatUint(b.Number(), 10),
			ShortHex(b.Hash().Hex()),
			lab.Short(h.Coinbase),
			strconv.Itoa(b.Block.Transactions().Len()),
			Percent(h.GasUsed, h.GasLimit),
		})
	}
	return table(
		[]string{"Height", "Hash", "Fee Recipient", "Txs", "Gas Used"},
		rows,
		[]int{10, 13, 16, 5, 8},
		cursorOf(list),
	)
}

// GasSparkline plots gas used per block, oldest first. It needs at least two
// blocks.
func GasSparkline(list *domain.SelectionList[*domain.BlockWithReceipts], width, height int) string {
	if list.Len() < 2 || width < 10 || height < 1 {
		return ""
	}
	items := list.Items()
	data := make([]float64, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		h := items[i].Block.Header()
		if h.GasLimit == 0 {
			data = append(data, 0)
			continue
		}
		data = append(data, float64(h.GasUsed)*100/float64(h.GasLimit))
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(0),
		asciigraph.Caption("Gas used (%)"),
	)
}

// LatestTransactions renders the latest transactions table.
func LatestTransactions(list *domain.SelectionList[*domain.TxWithReceipt], lab Labeler) string {
	if list == nil {
		return mutedStyle.Render(loadingText)
	}
	if list.Len() == 0 {
		return mutedStyle.Render("No transactions")
	}

	rows := make([][]string, 0, list.Len())
	for _, tx := range list.Items() {
		to := "Contract Creation"
		if addr := tx.Tx.To(); addr != nil {
			to = lab.Short(*addr)
		}
		rows = append(rows, []string{
			ShortHex(tx.Hash().Hex()),
			lab.Short(tx.From),
			to,
			asset.FormatEther(tx.Tx.Value(), 4),
		})
	}
	return table(
		[]string{"Hash", "From", "To", "Value"},
		rows,
		[]int{13, 16, 16, 14},
		cursorOf(list),
	)
}

func cursorOf[T any](list *domain.SelectionList[T]) int {
	if i, ok := list.SelectedDataIndex(); ok {
		return i
	}
	return -1
}
