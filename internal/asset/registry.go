package asset

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type key struct {
	chainID uint64
	address common.Address
}

// Registry indexes assets by chain and contract address.
type Registry struct {
	mu     sync.RWMutex
	assets map[key]*Asset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{assets: make(map[key]*Asset)}
}

// Register adds or replaces a.
func (r *Registry) Register(a *Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[key{a.ChainID(), a.Address()}] = a
}

// Native returns the native coin of chainID.
func (r *Registry) Native(chainID uint64) (*Asset, bool) {
	return r.Token(chainID, common.Address{})
}

// Token looks up a contract address.
func (r *Registry) Token(chainID uint64, addr common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[key{chainID, addr}]
	return a, ok
}

// Label returns the display label for addr, or "" when it is not a known token.
func (r *Registry) Label(chainID uint64, addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	if a, ok := r.Token(chainID, addr); ok {
		return a.Label()
	}
	return ""
}

// All returns every asset ordered by chain then symbol.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	out := make([]*Asset, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ChainID() != out[j].ChainID() {
			return out[i].ChainID() < out[j].ChainID()
		}
		return out[i].Symbol() < out[j].Symbol()
	})
	return out
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}
