// Package di provides a small lazy service container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container is a ServiceRegistry that services can be registered into.
type Container interface {
	ServiceRegistry
	Register(name string, service any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
	Has(name string) bool
}

type entry struct {
	once     sync.Once
	factory  func(ServiceRegistry) any
	instance any
}

type container struct {
	mu       sync.RWMutex
	services map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]*entry)}
}

// Register stores an already-built service.
func (c *container) Register(name string, service any) {
	e := &entry{instance: service}
	e.once.Do(func() {})

	c.mu.Lock()
	c.services[name] = e
	c.mu.Unlock()
}

// RegisterFactory stores a factory that is invoked once, on first Get.
func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.services[name] = &entry{factory: factory}
	c.mu.Unlock()
}

// Has reports whether name is registered.
func (c *container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Get resolves name, building it on first use. Unknown names panic: wiring errors are
// programming errors surfaced at startup.
func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.services[name]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}

	e.once.Do(func() {
		e.instance = e.factory(c)
	})
	return e.instance
}
