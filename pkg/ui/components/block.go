package components

import (
	"math/big"
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
)

var gweiToWei = big.NewInt(1_000_000_000)

// Block renders the block detail view. cursor indexes BlockDetailItems.
func Block(b *domain.BlockWithReceipts, cursor int, lab Labeler) string {
	if b == nil {
		return NotFound
	}
	h := b.Block.Header()
	items := domain.BlockDetailItems(b)
	at := func(it domain.BlockDetailItem) int { return slices.Index(items, it) }

	baseFee := "-"
	burnt := "-"
	if h.BaseFee != nil {
		baseFee = asset.FormatGwei(h.BaseFee, 2)
		burnt = asset.FormatEther(Fee(h.GasUsed, h.BaseFee), 6)
	}

	fields := []field{
		plain("Block Height", strconv.FormatUint(b.Number(), 10)),
		plain("Hash", b.Hash().Hex()),
		plain("Timestamp", Timestamp(h.Time)),
		selectable("Transactions", strconv.Itoa(b.Block.Transactions().Len())+" transactions", at(domain.BlockItemTransactions)),
	}
	if b.HasWithdrawals() {
		fields = append(fields, selectable("Withdrawals",
			strconv.Itoa(len(b.Block.Withdrawals()))+" withdrawals", at(domain.BlockItemWithdrawals)))
	}
	fields = append(fields,
		selectable("Fee Recipient", lab.Address(h.Coinbase), at(domain.BlockItemFeeRecipient)),
		plain("Gas Used", strconv.FormatUint(h.GasUsed, 10)+" ("+Percent(h.GasUsed, h.GasLimit)+")"),
		plain("Gas Limit", strconv.FormatUint(h.GasLimit, 10)),
		plain("Base Fee Per Gas", baseFee),
		plain("Burnt Fees", burnt),
		plain("Extra Data", hexutil.Encode(h.Extra)),
		plain("Size", strconv.FormatUint(b.Block.Size(), 10)+" bytes"),
		selectable("Parent Hash", h.ParentHash.Hex(), at(domain.BlockItemParentHash)),
	)
	return renderFields(fields, cursor)
}

// BlockTransactions renders the transactions table of b. Status and gas
// columns fill in once receipts arrive.
func BlockTransactions(b *domain.BlockWithReceipts, cursor, limit int, lab Labeler) string {
	if b == nil {
		return NotFound
	}
	txs := b.Block.Transactions()
	if txs.Len() == 0 {
		return mutedStyle.Render("Block #" + strconv.FormatUint(b.Number(), 10) + " has no transactions")
	}

	start, end := visible(txs.Len(), cursor, limit)
	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		tx := txs[i]
		from := "-"
		if addr, ok := b.Sender(i); ok {
			from = lab.Short(addr)
		}
		to := "Contract Creation"
		if addr := tx.To(); addr != nil {
			to = lab.Short(*addr)
		}
		status, gas := "…", "…"
		if r := b.Receipt(i); r != nil {
			status = statusText(r.Status)
			gas = strconv.FormatUint(r.GasUsed, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			ShortHex(tx.Hash().Hex()),
			from,
			to,
			asset.FormatEther(tx.Value(), 4),
			status,
			gas,
		})
	}
	title := headerStyle.Render("Transactions of block #"+strconv.FormatUint(b.Number(), 10)) + "\n"
	return title + table(
		[]string{"#", "Hash", "From", "To", "Value", "Status", "Gas Used"},
		rows,
		[]int{4, 13, 16, 16, 14, 8, 10},
		cursor-start,
	)
}

// BlockWithdrawals renders the withdrawals table of b.
func BlockWithdrawals(b *domain.BlockWithReceipts, cursor, limit int, lab Labeler) string {
	if b == nil {
		return NotFound
	}
	ws := b.Block.Withdrawals()
	if len(ws) == 0 {
		return mutedStyle.Render("Block #" + strconv.FormatUint(b.Number(), 10) + " has no withdrawals")
	}

	start, end := visible(len(ws), cursor, limit)
	rows := make([][]string, 0, end-start)
	for _, w := range ws[start:end] {
		amount := new(big.Int).Mul(new(big.Int).SetUint64(w.Amount), gweiToWei)
		rows = append(rows, []string{
			strconv.FormatUint(w.Index, 10),
			strconv.FormatUint(w.Validator, 10),
			lab.Short(w.Address),
			asset.FormatEther(amount, 6),
		})
	}
	title := headerStyle.Render("Withdrawals of block #"+strconv.FormatUint(b.Number(), 10)) + "\n"
	return title + table(
		[]string{"Index", "Validator", "Recipient", "Amount"},
		rows,
		[]int{10, 10, 24, 16},
		cursor-start,
	)
}
