/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/record"
)

// Schemas holds record schemas by name. It is safe for concurrent use.
type Schemas struct {
	mu      sync.RWMutex
	schemas map[string]*record.Schema
}

// New creates an empty Schemas registry.
func New() *Schemas {
	return &Schemas{
		schemas: make(map[string]*record.Schema),
	}
}

// Register checks s and stores it under s.Name.
func (r *Schemas) Register(s *record.Schema) error {
	if err := s.Check(); err != nil {
		return fmt.Errorf("schema %q: %w", s.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[s.Name]; exists {
		return fmt.Errorf("schema registry: schema %q already registered", s.Name)
	}
	r.schemas[s.Name] = s
	return nil
}

// MustRegister is Register that panics, for use during initialization.
func (r *Schemas) MustRegister(s *record.Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get returns the schema registered under name.
func (r *Schemas) Get(name string) (*record.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema registry: %q: %w", name, errors.ErrNoSchema)
	}
	return s, nil
}

// Names returns the registered schema names in sorted order.
func (r *Schemas) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
