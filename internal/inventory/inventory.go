// Package inventory defines the goods-holding collaborator the shop moves
// items through, plus an in-memory implementation for the standalone binary
// and tests.
package inventory

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Stack is a quantity of one kind held by an actor.
type Stack struct {
	Kind     string
	Quantity int
}

// Holder is the external inventory/capacity surface.
type Holder interface {
	// HasCapacity reports whether the actor can receive qty units of kind.
	HasCapacity(actor uuid.UUID, kind string, qty int) bool
	// Grant delivers qty units of kind to the actor.
	Grant(actor uuid.UUID, kind string, qty int)
	// HasQuantity reports whether the actor holds at least qty units of kind.
	HasQuantity(actor uuid.UUID, kind string, qty int) bool
	// Remove takes qty units of kind from the actor.
	Remove(actor uuid.UUID, kind string, qty int)
	// Stacks returns the actor's holdings as one stack per distinct kind.
	Stacks(actor uuid.UUID) []Stack
}

// Memory is a map-backed Holder with a flat per-kind capacity limit
// (slots × stack size collapsed into a single bound).
type Memory struct {
	capacityPerKind int

	mu       sync.Mutex
	holdings map[uuid.UUID]map[string]int
}

// NewMemory creates an in-memory holder. capacityPerKind <= 0 means
// unlimited capacity.
func NewMemory(capacityPerKind int) *Memory {
	return &Memory{
		capacityPerKind: capacityPerKind,
		holdings:        make(map[uuid.UUID]map[string]int),
	}
}

// HasCapacity reports whether qty more units of kind fit.
func (m *Memory) HasCapacity(actor uuid.UUID, kind string, qty int) bool {
	if m.capacityPerKind <= 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holdings[actor][kind]+qty <= m.capacityPerKind
}

// Grant delivers qty units of kind to the actor.
func (m *Memory) Grant(actor uuid.UUID, kind string, qty int) {
	if qty <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holdings[actor]
	if !ok {
		h = make(map[string]int)
		m.holdings[actor] = h
	}
	h[kind] += qty
}

// HasQuantity reports whether the actor holds at least qty units of kind.
func (m *Memory) HasQuantity(actor uuid.UUID, kind string, qty int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holdings[actor][kind] >= qty
}

// Remove takes up to qty units of kind from the actor.
func (m *Memory) Remove(actor uuid.UUID, kind string, qty int) {
	if qty <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.holdings[actor]
	if h == nil {
		return
	}
	h[kind] -= qty
	if h[kind] <= 0 {
		delete(h, kind)
	}
}

// Stacks returns the actor's holdings, one stack per kind, sorted by kind.
func (m *Memory) Stacks(actor uuid.UUID) []Stack {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.holdings[actor]
	stacks := make([]Stack, 0, len(h))
	for kind, qty := range h {
		stacks = append(stacks, Stack{Kind: kind, Quantity: qty})
	}
	slices.SortFunc(stacks, func(a, b Stack) int {
		return strings.Compare(a.Kind, b.Kind)
	})
	return stacks
}
