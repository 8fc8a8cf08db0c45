// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package builtin provides the command trees every kcapi host ships with:
// help, tree, config, plugin, audit and exit.
package builtin

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/karasu256/kcapi/internal/audit"
	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/config"
)

// Deps are the collaborators the built-in commands act on.
type Deps struct {
	// Out receives command output. Required.
	Out Output
	// Config backs the config command. Nil skips it.
	Config *config.Store
	// Catalog backs the plugin command. Nil skips it.
	Catalog *Catalog
	// Audit backs the audit command. Nil skips it.
	Audit *audit.Log
	// Logger is handed to every router.
	Logger logrus.FieldLogger
	// OnConfigChange runs after config set or config reload succeeds.
	OnConfigChange func(cfg *config.Config)
	// Stop is called by exit.
	Stop func()
}

// Install registers the built-in commands on reg.
func Install(reg *commands.Registry, deps Deps) error {
	if deps.Out == nil {
		return errors.New("builtin: output is required")
	}
	if deps.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		deps.Logger = logger
	}

	b := &builtins{reg: reg, deps: deps}

	type entry struct {
		root    *commands.Router
		aliases []string
	}
	entries := []entry{
		{b.helpCommand(), []string{"?"}},
		{b.treeCommand(), nil},
	}
	if deps.Config != nil {
		entries = append(entries, entry{b.configCommand(), []string{"cfg"}})
	}
	if deps.Catalog != nil {
		entries = append(entries, entry{b.pluginCommand(), []string{"pl", "plugins"}})
	}
	if deps.Audit != nil {
		entries = append(entries, entry{b.auditCommand(), nil})
	}
	entries = append(entries, entry{b.exitCommand(), []string{"quit"}})

	for _, e := range entries {
		if err := reg.Register(e.root, e.aliases...); err != nil {
			return fmt.Errorf("failed to register %s: %w", e.root.Name(), err)
		}
	}
	return nil
}

type builtins struct {
	reg  *commands.Registry
	deps Deps
}

// node is commands.New with the shared logger applied.
func (b *builtins) node(name string, opts ...commands.Option) *commands.Router {
	return commands.New(name, append([]commands.Option{commands.WithLogger(b.deps.Logger)}, opts...)...)
}

func (b *builtins) printf(format string, args ...any) {
	b.deps.Out.Print(fmt.Sprintf(format, args...))
}

// lookup finds the root for a label typed as an argument, accepting the
// same prefix and full-width forms the registry accepts on a command line.
func (b *builtins) lookup(label string) (*commands.Router, error) {
	parsed := commands.ParseLine(commands.Normalize(label), b.reg.Prefix())
	if root, ok := b.reg.Lookup(parsed.Label); ok {
		return root, nil
	}
	// Resolve builds the same error Execute would report.
	if _, _, err := b.reg.Resolve(label); err != nil {
		return nil, err
	}
	return nil, &commands.UnknownCommandError{Label: label}
}

func senderName(s commands.Sender) string {
	if s == nil {
		return ""
	}
	return s.Name()
}

// filterPrefix keeps the values starting with prefix, ignoring case.
func filterPrefix(values []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := []string{}
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), prefix) {
			out = append(out, v)
		}
	}
	return out
}
