package domain

// ActiveBlock names the focused pane.
type ActiveBlock int

const (
	PaneSearchBar ActiveBlock = iota
	PaneLatestBlocks
	PaneLatestTransactions
	PaneMain
)

func (a ActiveBlock) String() string {
	switch a {
	case PaneSearchBar:
		return "search"
	case PaneLatestBlocks:
		return "latest-blocks"
	case PaneLatestTransactions:
		return "latest-transactions"
	case PaneMain:
		return "main"
	default:
		return "unknown"
	}
}

// NoCursor marks a frame whose detail view has nothing selected.
const NoCursor = -1

// Route is one navigation frame: a logical view and the focused pane.
// Cursor is the selected detail item or table row of the view, or NoCursor.
// Preview frames follow a list cursor and are replaced by the next move.
type Route struct {
	ID      RouteID
	Pane    ActiveBlock
	Cursor  int
	Preview bool
}

// NewRoute creates a frame with no detail selection.
func NewRoute(id RouteID, pane ActiveBlock) Route {
	return Route{ID: id, Pane: pane, Cursor: NoCursor}
}

// Navigation is a stack of routes that is never empty.
type Navigation struct {
	routes []Route
}

// NewNavigation creates a stack holding root as its permanent bottom frame.
func NewNavigation(root Route) *Navigation {
	return &Navigation{routes: []Route{root}}
}

// Push appends a frame.
func (n *Navigation) Push(r Route) {
	n.routes = append(n.routes, r)
}

// Pop removes the top frame unless it is the root, and reports whether it did.
func (n *Navigation) Pop() bool {
	if len(n.routes) <= 1 {
		return false
	}
	n.routes = n.routes[:len(n.routes)-1]
	return true
}

// Current returns a copy of the top frame.
func (n *Navigation) Current() Route {
	return n.routes[len(n.routes)-1]
}

// ReplaceActivePane changes the focused pane of the top frame in place.
func (n *Navigation) ReplaceActivePane(pane ActiveBlock) {
	n.routes[len(n.routes)-1].Pane = pane
}

// ReplaceTop swaps the top frame, keeping the stack depth.
func (n *Navigation) ReplaceTop(r Route) {
	n.routes[len(n.routes)-1] = r
}

// SetCursor updates the detail selection of the top frame.
func (n *Navigation) SetCursor(cursor int) {
	n.routes[len(n.routes)-1].Cursor = cursor
}

// RemoveFunc drops every frame above the root for which match returns
// true, keeping the order of the rest. It returns how many were dropped.
func (n *Navigation) RemoveFunc(match func(Route) bool) int {
	kept := n.routes[:1]
	for _, r := range n.routes[1:] {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	removed := len(n.routes) - len(kept)
	clear(n.routes[len(kept):])
	n.routes = kept
	return removed
}

func (n *Navigation) Depth() int { return len(n.routes) }

// Routes returns a copy of the stack, bottom first.
func (n *Navigation) Routes() []Route {
	out := make([]Route, len(n.routes))
	copy(out, n.routes)
	return out
}

// Clone returns an independent copy of the stack.
func (n *Navigation) Clone() *Navigation {
	return &Navigation{routes: n.Routes()}
}
