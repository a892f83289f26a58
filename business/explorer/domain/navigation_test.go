package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigation_PushPopRestoresTop(t *testing.T) {
	n := NewNavigation(NewRoute(RouteWelcome{}, PaneLatestBlocks))
	n.Push(NewRoute(RouteSearching{Query: "vitalik.eth"}, PaneMain))
	before := n.Current()

	n.Push(NewRoute(RouteBlock{}, PaneMain))
	assert.Equal(t, 3, n.Depth())

	assert.True(t, n.Pop())
	assert.Equal(t, before, n.Current())
	assert.Equal(t, 2, n.Depth())
}

func TestNavigation_RootIsPermanent(t *testing.T) {
	root := NewRoute(RouteWelcome{}, PaneLatestBlocks)
	n := NewNavigation(root)

	assert.False(t, n.Pop())
	assert.Equal(t, 1, n.Depth())
	assert.Equal(t, root, n.Current())
}

func TestNavigation_ReplaceActivePaneKeepsView(t *testing.T) {
	n := NewNavigation(NewRoute(RouteWelcome{}, PaneLatestBlocks))
	n.Push(NewRoute(RouteSearching{Query: "1"}, PaneMain))

	n.ReplaceActivePane(PaneSearchBar)

	cur := n.Current()
	assert.Equal(t, PaneSearchBar, cur.Pane)
	assert.Equal(t, RouteSearching{Query: "1"}, cur.ID)
	assert.Equal(t, 2, n.Depth())
}

func TestNavigation_ReplaceTopAndCursor(t *testing.T) {
	n := NewNavigation(NewRoute(RouteWelcome{}, PaneLatestBlocks))
	n.Push(NewRoute(RouteTransactionsOfBlock{}, PaneMain))
	n.SetCursor(3)
	assert.Equal(t, 3, n.Current().Cursor)

	n.ReplaceTop(NewRoute(RouteTransactionsOfBlock{}, PaneMain))
	assert.Equal(t, 2, n.Depth())
	assert.Equal(t, NoCursor, n.Current().Cursor)
}

func TestNavigation_CloneIsIndependent(t *testing.T) {
	n := NewNavigation(NewRoute(RouteWelcome{}, PaneLatestBlocks))
	c := n.Clone()
	c.Push(NewRoute(RouteBlock{}, PaneMain))

	assert.Equal(t, 1, n.Depth())
	assert.Equal(t, 2, c.Depth())
	assert.Len(t, c.Routes(), 2)
}

func TestNavigation_RemoveFuncKeepsRootAndOrder(t *testing.T) {
	n := NewNavigation(NewRoute(RouteWelcome{}, PaneLatestBlocks))
	n.Push(NewRoute(RouteSearching{Query: "50", Token: 3}, PaneMain))
	n.Push(NewRoute(RouteBlock{}, PaneLatestBlocks))
	n.Push(NewRoute(RouteSearching{Query: "51", Token: 4}, PaneMain))

	removed := n.RemoveFunc(func(r Route) bool {
		s, ok := r.ID.(RouteSearching)
		return ok && s.Token == 3
	})
	assert.Equal(t, 1, removed)

	routes := n.Routes()
	assert.Len(t, routes, 3)
	assert.Equal(t, RouteWelcome{}, routes[0].ID)
	assert.Equal(t, RouteBlock{}, routes[1].ID)
	assert.Equal(t, RouteSearching{Query: "51", Token: 4}, routes[2].ID)

	assert.Equal(t, 2, n.RemoveFunc(func(Route) bool { return true }))
	assert.Equal(t, 1, n.Depth(), "root survives")
}
