package domain

// RouteID is the logical view of a frame. The set of variants is closed.
// A nil payload on a variant means the lookup found nothing.
type RouteID interface {
	routeID()
	Name() string
}

// RouteWelcome is the root view.
type RouteWelcome struct{}

// RouteSearching is shown while a search is resolved. Token is the
// navigation generation the search was started at; the commands it
// dispatches carry the same value.
type RouteSearching struct {
	Query string
	Token uint64
}

type RouteAddressInfo struct {
	Info *AddressInfo
}

type RouteBlock struct {
	Block *BlockWithReceipts
}

type RouteTransactionsOfBlock struct {
	Block *BlockWithReceipts
}

type RouteWithdrawalsOfBlock struct {
	Block *BlockWithReceipts
}

type RouteTransaction struct {
	Tx *TxWithReceipt
}

// RouteInputData shows a transaction's calldata. Decoded stays nil when no
// ABI was available or the selector did not match.
type RouteInputData struct {
	Tx      *TxWithReceipt
	Decoded *DecodedInput
}

func (RouteWelcome) routeID()             {}
func (RouteSearching) routeID()           {}
func (RouteAddressInfo) routeID()         {}
func (RouteBlock) routeID()               {}
func (RouteTransactionsOfBlock) routeID() {}
func (RouteWithdrawalsOfBlock) routeID()  {}
func (RouteTransaction) routeID()         {}
func (RouteInputData) routeID()           {}

func (RouteWelcome) Name() string             { return "welcome" }
func (RouteSearching) Name() string           { return "searching" }
func (RouteAddressInfo) Name() string         { return "address" }
func (RouteBlock) Name() string               { return "block" }
func (RouteTransactionsOfBlock) Name() string { return "block-transactions" }
func (RouteWithdrawalsOfBlock) Name() string  { return "block-withdrawals" }
func (RouteTransaction) Name() string         { return "transaction" }
func (RouteInputData) Name() string           { return "input-data" }
