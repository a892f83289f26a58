package domain

// BlockDetailItem is a selectable row of the block view.
type BlockDetailItem int

const (
	BlockItemTransactions BlockDetailItem = iota
	BlockItemWithdrawals
	BlockItemFeeRecipient
	BlockItemParentHash
)

func (i BlockDetailItem) String() string {
	switch i {
	case BlockItemTransactions:
		return "Transactions"
	case BlockItemWithdrawals:
		return "Withdrawals"
	case BlockItemFeeRecipient:
		return "Fee Recipient"
	case BlockItemParentHash:
		return "Parent Hash"
	default:
		return "?"
	}
}

// BlockDetailItems lists the selectable rows of b. Withdrawals only appear
// on blocks that carry a withdrawals list.
func BlockDetailItems(b *BlockWithReceipts) []BlockDetailItem {
	if b == nil {
		return nil
	}
	items := []BlockDetailItem{BlockItemTransactions}
	if b.HasWithdrawals() {
		items = append(items, BlockItemWithdrawals)
	}
	return append(items, BlockItemFeeRecipient, BlockItemParentHash)
}

// TxDetailItem is a selectable row of the transaction view.
type TxDetailItem int

const (
	TxItemFrom TxDetailItem = iota
	TxItemTo
	TxItemInputData
)

func (i TxDetailItem) String() string {
	switch i {
	case TxItemFrom:
		return "From"
	case TxItemTo:
		return "To"
	case TxItemInputData:
		return "Input Data"
	default:
		return "?"
	}
}

// TxDetailItems lists the selectable rows of t. Contract creations have no
// To row and plain transfers no input data row.
func TxDetailItems(t *TxWithReceipt) []TxDetailItem {
	if t == nil {
		return nil
	}
	items := []TxDetailItem{TxItemFrom}
	if t.Tx.To() != nil {
		items = append(items, TxItemTo)
	}
	if len(t.Tx.Data()) > 0 {
		items = append(items, TxItemInputData)
	}
	return items
}

// AddressDetailItem is a selectable row of the address view.
type AddressDetailItem int

const (
	AddressItemSource AddressDetailItem = iota
	AddressItemABI
)

func (i AddressDetailItem) String() string {
	if i == AddressItemABI {
		return "Contract ABI"
	}
	return "Contract Source"
}

func AddressDetailItems(a *AddressInfo) []AddressDetailItem {
	if a == nil {
		return nil
	}
	var items []AddressDetailItem
	if a.ContractSource != nil {
		items = append(items, AddressItemSource)
	}
	if a.ContractABI != nil {
		items = append(items, AddressItemABI)
	}
	return items
}

// CursorLen returns how many rows of id can be selected.
func CursorLen(id RouteID) int {
	switch r := id.(type) {
	case RouteBlock:
		return len(BlockDetailItems(r.Block))
	case RouteTransactionsOfBlock:
		if r.Block == nil {
			return 0
		}
		return r.Block.Block.Transactions().Len()
	case RouteWithdrawalsOfBlock:
		if r.Block == nil {
			return 0
		}
		return len(r.Block.Block.Withdrawals())
	case RouteTransaction:
		return len(TxDetailItems(r.Tx))
	case RouteAddressInfo:
		return len(AddressDetailItems(r.Info))
	default:
		return 0
	}
}

// StepCursor moves a detail cursor over n rows with wraparound. With no
// rows the result is NoCursor.
func StepCursor(cursor, n int, forward bool) int {
	l := NewSelectionList(make([]struct{}, n), 0)
	l.Select(cursor)
	if forward {
		l.Next()
	} else {
		l.Previous()
	}
	i, ok := l.SelectedDataIndex()
	if !ok {
		return NoCursor
	}
	return i
}
