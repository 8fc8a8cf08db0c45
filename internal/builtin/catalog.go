// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrPluginNotFound is returned for names the catalog does not know.
var ErrPluginNotFound = errors.New("plugin not found")

// Plugin describes an installed plugin.
type Plugin struct {
	Name        string
	Version     string
	Description string
	Enabled     bool
}

// Catalog is an in-memory set of plugins keyed by case-insensitive name.
// It only tracks state; loading plugin code is the host's business.
type Catalog struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewCatalog creates a catalog holding plugins.
func NewCatalog(plugins ...Plugin) *Catalog {
	c := &Catalog{plugins: make(map[string]*Plugin)}
	for _, p := range plugins {
		c.Add(p)
	}
	return c
}

// Add inserts or replaces p.
func (c *Catalog) Add(p Plugin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plugins[strings.ToLower(p.Name)] = &p
}

// Get returns a copy of the named plugin.
func (c *Catalog) Get(name string) (Plugin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plugins[strings.ToLower(name)]
	if !ok {
		return Plugin{}, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return *p, nil
}

// List returns all plugins sorted by name.
func (c *Catalog) List() []Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Plugin, 0, len(c.plugins))
	for _, p := range c.plugins {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetEnabled changes the state of a plugin and reports whether it changed.
func (c *Catalog) SetEnabled(name string, enabled bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.plugins[strings.ToLower(name)]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	if p.Enabled == enabled {
		return false, nil
	}
	p.Enabled = enabled
	return true, nil
}

// Names returns sorted plugin names, filtered by state when state is non-nil.
func (c *Catalog) Names(state *bool) []string {
	var names []string
	for _, p := range c.List() {
		if state == nil || p.Enabled == *state {
			names = append(names, p.Name)
		}
	}
	return names
}
