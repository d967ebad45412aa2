package ui

import (
	"fmt"
	"sync"
)

// Tabs is a single-select set of named tabs
type Tabs struct {
	mu     sync.RWMutex
	names  []string
	active int
}

// NewTabs creates tabs with the first name active
func NewTabs(names ...string) *Tabs {
	return &Tabs{names: append([]string(nil), names...)}
}

// Activate makes name the only active tab
func (t *Tabs) Activate(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, n := range t.names {
		if n == name {
			t.active = i
			return nil
		}
	}
	return fmt.Errorf("unknown tab %q", name)
}

// Next activates the tab after the current one, wrapping around
func (t *Tabs) Next() string {
	return t.shift(1)
}

// Prev activates the tab before the current one, wrapping around
func (t *Tabs) Prev() string {
	return t.shift(-1)
}

func (t *Tabs) shift(delta int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.names) == 0 {
		return ""
	}
	t.active = (t.active + delta + len(t.names)) % len(t.names)
	return t.names[t.active]
}

// Active returns the active tab name
func (t *Tabs) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.names) == 0 {
		return ""
	}
	return t.names[t.active]
}

func (t *Tabs) IsActive(name string) bool {
	return t.Active() == name
}

func (t *Tabs) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.names...)
}
