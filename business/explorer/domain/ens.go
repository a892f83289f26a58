package domain

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// EnsCache maps addresses to reverse-resolved names. An entry with a nil name
// records a lookup that found nothing.
//
// Insert follows one rule: a name always overwrites, a nil only fills a gap.
type EnsCache struct {
	names map[common.Address]*string
}

func NewEnsCache() *EnsCache {
	return &EnsCache{names: make(map[common.Address]*string)}
}

// Insert merges one lookup result. An empty name counts as nil.
func (c *EnsCache) Insert(addr common.Address, name *string) {
	if name != nil && *name == "" {
		name = nil
	}
	if name != nil {
		n := *name
		c.names[addr] = &n
		return
	}
	if _, ok := c.names[addr]; !ok {
		c.names[addr] = nil
	}
}

// Get returns the cached name and whether addr has an entry at all.
func (c *EnsCache) Get(addr common.Address) (*string, bool) {
	name, ok := c.names[addr]
	return name, ok
}

// Name returns the resolved name of addr or "".
func (c *EnsCache) Name(addr common.Address) string {
	if name := c.names[addr]; name != nil {
		return *name
	}
	return ""
}

// Missing returns the addresses without an entry, in input order.
func (c *EnsCache) Missing(addrs []common.Address) []common.Address {
	var out []common.Address
	for _, a := range addrs {
		if _, ok := c.names[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// Names returns every resolved name, sorted.
func (c *EnsCache) Names() []string {
	out := make([]string, 0, len(c.names))
	for _, name := range c.names {
		if name != nil {
			out = append(out, *name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *EnsCache) Len() int { return len(c.names) }

// Clear drops every entry.
func (c *EnsCache) Clear() {
	clear(c.names)
}

// Clone returns an independent copy.
func (c *EnsCache) Clone() *EnsCache {
	out := NewEnsCache()
	for addr, name := range c.names {
		out.names[addr] = name
	}
	return out
}
