package app

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/blockterm/business/explorer/domain"
)

// UI-thread navigation edits. Frame pushes, pops and replacements bump the
// generation so in-flight results for the old view are dropped. List-pane
// moves open or replace a preview frame and therefore bump it too; focus
// changes and detail cursor moves do not.

// Push opens a frame.
func (s *State) Push(r domain.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Push(r)
	s.generation++
}

// Back pops the top frame; the root stays.
func (s *State) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.nav.Pop() {
		return false
	}
	s.generation++
	return true
}

// Focus moves focus to pane without changing the view.
func (s *State) Focus(pane domain.ActiveBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.ReplaceActivePane(pane)
}

// BeginSearch shows the searching view for query. A search frame already on
// top is replaced so repeated searches do not stack.
func (s *State) BeginSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	r := domain.NewRoute(domain.RouteSearching{Query: query, Token: s.generation}, domain.PaneMain)
	if _, ok := s.nav.Current().ID.(domain.RouteSearching); ok {
		s.nav.ReplaceTop(r)
	} else {
		s.nav.Push(r)
	}
}

// ResetBlocksPane clears the latest blocks, statistics and names ahead of
// a reload.
func (s *State) ResetBlocksPane() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestBlocks = nil
	s.stats = domain.Statistics{}
	s.ens.Clear()
}

// ResetTransactionsPane clears the latest transactions ahead of a reload.
func (s *State) ResetTransactionsPane() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestTxs = nil
}

// Move steps the cursor of the focused pane. On the list panes the selected
// item opens as a preview frame that the next move replaces.
func (s *State) Move(forward bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.nav.Current()
	switch cur.Pane {
	case domain.PaneLatestBlocks:
		if s.latestBlocks == nil {
			return
		}
		step(s.latestBlocks, forward)
		if b, ok := s.latestBlocks.SelectedItem(); ok {
			s.previewLocked(domain.RouteBlock{Block: b}, domain.PaneLatestBlocks)
		}
	case domain.PaneLatestTransactions:
		if s.latestTxs == nil {
			return
		}
		step(s.latestTxs, forward)
		if tx, ok := s.latestTxs.SelectedItem(); ok {
			s.previewLocked(domain.RouteTransaction{Tx: tx}, domain.PaneLatestTransactions)
		}
	case domain.PaneMain:
		s.nav.SetCursor(domain.StepCursor(cur.Cursor, domain.CursorLen(cur.ID), forward))
	}
}

func step[T any](l *domain.SelectionList[T], forward bool) {
	if forward {
		l.Next()
	} else {
		l.Previous()
	}
}

func (s *State) previewLocked(id domain.RouteID, pane domain.ActiveBlock) {
	r := domain.NewRoute(id, pane)
	r.Preview = true
	if s.nav.Current().Preview {
		s.nav.ReplaceTop(r)
	} else {
		s.nav.Push(r)
	}
	s.generation++
}

// Activate handles Enter on the focused pane. It applies any navigation
// edit itself and returns the command to dispatch, or nil.
func (s *State) Activate() domain.Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.nav.Current()
	switch cur.Pane {
	case domain.PaneLatestBlocks:
		if s.latestBlocks == nil {
			return nil
		}
		b, ok := s.latestBlocks.SelectedItem()
		if !ok {
			return nil
		}
		s.openLocked(cur, domain.RouteBlock{Block: b})
		return s.resolveMissingLocked(b.Addresses())
	case domain.PaneLatestTransactions:
		if s.latestTxs == nil {
			return nil
		}
		tx, ok := s.latestTxs.SelectedItem()
		if !ok {
			return nil
		}
		s.openLocked(cur, domain.RouteTransaction{Tx: tx})
		return s.resolveMissingLocked(tx.Addresses())
	case domain.PaneMain:
		return s.activateDetailLocked(cur)
	default:
		return nil
	}
}

// openLocked turns the preview of id into a regular frame, or pushes one.
func (s *State) openLocked(cur domain.Route, id domain.RouteID) {
	if cur.Preview {
		cur.Preview = false
		cur.Pane = domain.PaneMain
		cur.ID = id
		s.nav.ReplaceTop(cur)
	} else {
		s.nav.Push(domain.NewRoute(id, domain.PaneMain))
	}
	s.generation++
}

func (s *State) resolveMissingLocked(addrs []common.Address) domain.Command {
	missing := s.ens.Missing(addrs)
	if len(missing) == 0 {
		return nil
	}
	return domain.ResolveENSNames{Addresses: missing}
}

func (s *State) activateDetailLocked(cur domain.Route) domain.Command {
	if cur.Cursor == domain.NoCursor {
		return nil
	}

	switch r := cur.ID.(type) {
	case domain.RouteBlock:
		items := domain.BlockDetailItems(r.Block)
		if cur.Cursor >= len(items) {
			return nil
		}
		b := r.Block.Block
		switch items[cur.Cursor] {
		case domain.BlockItemTransactions:
			s.nav.Push(domain.NewRoute(domain.RouteTransactionsOfBlock{Block: r.Block}, domain.PaneMain))
			s.generation++
			if r.Block.Receipts != nil || b.Transactions().Len() == 0 {
				return nil
			}
			hashes := make([]common.Hash, 0, b.Transactions().Len())
			for _, tx := range b.Transactions() {
				hashes = append(hashes, tx.Hash())
			}
			return domain.FetchReceipts{BlockHash: b.Hash(), TxHashes: hashes}
		case domain.BlockItemWithdrawals:
			s.nav.Push(domain.NewRoute(domain.RouteWithdrawalsOfBlock{Block: r.Block}, domain.PaneMain))
			s.generation++
			return nil
		case domain.BlockItemFeeRecipient:
			return domain.ResolveNameOrAddress{Query: b.Coinbase().Hex()}
		case domain.BlockItemParentHash:
			return domain.FetchBlockByHash{Hash: b.ParentHash()}
		}

	case domain.RouteTransactionsOfBlock:
		if r.Block == nil {
			return nil
		}
		txs := r.Block.Block.Transactions()
		if cur.Cursor >= txs.Len() {
			return nil
		}
		return domain.FetchTransaction{Hash: txs[cur.Cursor].Hash()}

	case domain.RouteWithdrawalsOfBlock:
		if r.Block == nil {
			return nil
		}
		ws := r.Block.Block.Withdrawals()
		if cur.Cursor >= len(ws) {
			return nil
		}
		return domain.ResolveNameOrAddress{Query: ws[cur.Cursor].Address.Hex()}

	case domain.RouteTransaction:
		items := domain.TxDetailItems(r.Tx)
		if cur.Cursor >= len(items) {
			return nil
		}
		switch items[cur.Cursor] {
		case domain.TxItemFrom:
			return domain.ResolveNameOrAddress{Query: r.Tx.From.Hex()}
		case domain.TxItemTo:
			return domain.ResolveNameOrAddress{Query: r.Tx.Tx.To().Hex()}
		case domain.TxItemInputData:
			return domain.DecodeInputData{Tx: r.Tx}
		}
	}
	return nil
}
