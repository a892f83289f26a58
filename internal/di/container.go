// Package di provides a small service container with typed tokens and lazy singletons.
package di

import (
	"fmt"
	"sort"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
	Has(name string) bool
}

// Container is a ServiceRegistry that accepts registrations.
type Container interface {
	ServiceRegistry
	// Register stores a ready-made instance.
	Register(name string, instance any)
	// RegisterFactory stores a constructor run on first Get.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
	// Names lists registered services, sorted.
	Names() []string
}

type entry struct {
	once     sync.Once
	factory  func(ServiceRegistry) any
	instance any
}

type container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewContainer returns an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

func (c *container) Register(name string, instance any) {
	e := &entry{instance: instance}
	e.once.Do(func() {})

	c.mu.Lock()
	c.entries[name] = e
	c.mu.Unlock()
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.entries[name] = &entry{factory: factory}
	c.mu.Unlock()
}

// Get panics on unknown names: a missing registration is a wiring bug.
func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// Factories may resolve other services; no container lock is held here.
	e.once.Do(func() {
		e.instance = e.factory(c)
	})
	return e.instance
}

func (c *container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[name]
	return ok
}

func (c *container) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
