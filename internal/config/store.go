// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"sync"
)

// =============================================================================
// STORE (THREAD-SAFE)
// =============================================================================

// Store holds the active configuration and the file it came from. The shell,
// the config commands and the file watcher all go through one Store.
type Store struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

// NewStore wraps cfg. path may be empty when cfg came from defaults.
func NewStore(cfg *Config, path string) *Store {
	if cfg == nil {
		cfg = Default()
	}
	return &Store{cfg: cfg, path: path}
}

// Current returns a copy of the active configuration.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Path returns the backing file, or "" if there is none.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Replace swaps in cfg.
func (s *Store) Replace(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Reload re-reads the backing file. On error the active configuration is
// left untouched.
func (s *Store) Reload() (*Config, error) {
	path := s.Path()
	if path == "" {
		return nil, ErrNoConfigFile
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	s.Replace(cfg)
	return cfg.Clone(), nil
}

// Update applies key=value to a copy, validates it and only then makes it
// active. When a backing file exists the result is persisted too.
func (s *Store) Update(key, value string) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if err := next.Set(key, value); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if s.path != "" {
		if err := save(next, s.path); err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", key, err)
		}
	}
	s.cfg = next
	return next.Clone(), nil
}
