package app

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/apperror"
)

// StatusTTL is how long a status line stays visible.
const StatusTTL = 5 * time.Second

// Status is a transient message for the status line.
type Status struct {
	Text    string
	IsError bool
	At      time.Time
}

// State is the dashboard state shared by the UI and the worker. The UI
// edits navigation and cursors; the worker writes lists, names, statistics
// and result frames. Every access holds mu.
type State struct {
	mu sync.Mutex

	nav          *domain.Navigation
	ens          *domain.EnsCache
	latestBlocks *domain.SelectionList[*domain.BlockWithReceipts]
	latestTxs    *domain.SelectionList[*domain.TxWithReceipt]
	stats        domain.Statistics

	pending    int
	generation uint64
	status     *Status

	now func() time.Time
}

// NewState creates a state rooted at the welcome view with the latest
// blocks pane focused.
func NewState() *State {
	return &State{
		nav: domain.NewNavigation(domain.NewRoute(domain.RouteWelcome{}, domain.PaneLatestBlocks)),
		ens: domain.NewEnsCache(),
		now: time.Now,
	}
}

// Snapshot is a copy of State for one render.
type Snapshot struct {
	Routes             []domain.Route
	Current            domain.Route
	Ens                *domain.EnsCache
	LatestBlocks       *domain.SelectionList[*domain.BlockWithReceipts]
	LatestTransactions *domain.SelectionList[*domain.TxWithReceipt]
	Statistics         domain.Statistics
	Loading            bool
	Pending            int
	Status             *Status
}

// Snapshot copies the state. Payload values are shared and immutable.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Routes:             s.nav.Routes(),
		Current:            s.nav.Current(),
		Ens:                s.ens.Clone(),
		LatestBlocks:       s.latestBlocks.Clone(),
		LatestTransactions: s.latestTxs.Clone(),
		Statistics:         s.stats,
		Loading:            s.pending > 0,
		Pending:            s.pending,
	}
	if s.status != nil && s.now().Sub(s.status.At) < StatusTTL {
		st := *s.status
		snap.Status = &st
	}
	return snap
}

// Loading reports whether a command is queued or running.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Current returns the top navigation frame.
func (s *State) Current() domain.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

// Generation counts navigation edits made by the UI.
func (s *State) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ReportError shows err on the status line.
func (s *State) ReportError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStatusLocked(apperror.StatusLine(err), true)
}

// ReportInfo shows text on the status line.
func (s *State) ReportInfo(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStatusLocked(text, false)
}

func (s *State) setStatusLocked(text string, isErr bool) {
	s.status = &Status{Text: text, IsError: isErr, At: s.now()}
}

// beginDispatch marks one more command in flight and returns the
// generation to stamp it with.
func (s *State) beginDispatch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	return s.generation
}

// finish ends one command, reporting err when set.
func (s *State) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setStatusLocked(apperror.StatusLine(err), true)
	}
	if s.pending > 0 {
		s.pending--
	}
}

// setLatestBlocks replaces the list. A selected block that is still in the
// new list stays selected, so the row and its preview frame agree.
func (s *State) setLatestBlocks(blocks []*domain.BlockWithReceipts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestBlocks = reselect(s.latestBlocks, blocks, (*domain.BlockWithReceipts).Hash)
}

func (s *State) setLatestTransactions(txs []*domain.TxWithReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestTxs = reselect(s.latestTxs, txs, (*domain.TxWithReceipt).Hash)
}

func reselect[T any](old *domain.SelectionList[T], items []T, key func(T) common.Hash) *domain.SelectionList[T] {
	l := domain.NewSelectionList(items, domain.DefaultHeaderSize)
	if old == nil {
		return l
	}
	prev, ok := old.SelectedItem()
	if !ok {
		return l
	}
	want := key(prev)
	for i, it := range items {
		if key(it) == want {
			l.Select(i)
			break
		}
	}
	return l
}

func (s *State) updateStatistics(fn func(*domain.Statistics)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}

// mergeNames applies lookup results to the name cache. Failed lookups
// merge as no name.
func (s *State) mergeNames(names map[common.Address]*string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, name := range names {
		s.ens.Insert(addr, name)
	}
}

func (s *State) missingNames(addrs []common.Address) []common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ens.Missing(addrs)
}

// pushResult pushes a result frame unless the UI navigated since gen.
// A search result also takes the search frame it was started from off the
// stack, whether or not the result itself is still wanted.
func (s *State) pushResult(gen uint64, route domain.Route, fromSearch bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fromSearch {
		s.removeSearchLocked(gen)
	}
	if gen != s.generation {
		return false
	}
	s.nav.Push(route)
	return true
}

// abandonSearch drops the search frame started at gen after its command
// failed. The frame may sit below frames opened since.
func (s *State) abandonSearch(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeSearchLocked(gen)
}

func (s *State) removeSearchLocked(token uint64) bool {
	return s.nav.RemoveFunc(func(r domain.Route) bool {
		sr, ok := r.ID.(domain.RouteSearching)
		return ok && sr.Token == token
	}) > 0
}

// replaceTop swaps the top frame for fn's result when fn accepts it and
// the UI did not navigate since gen. The cursor is kept.
func (s *State) replaceTop(gen uint64, fn func(domain.Route) (domain.RouteID, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	cur := s.nav.Current()
	id, ok := fn(cur)
	if !ok {
		return false
	}
	cur.ID = id
	s.nav.ReplaceTop(cur)
	return true
}
