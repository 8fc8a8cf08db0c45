// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtin

import (
	"fmt"
	"strings"

	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/config"
	"github.com/karasu256/kcapi/internal/util"
)

func (b *builtins) configCommand() *commands.Router {
	store := b.deps.Config

	get := b.node("get",
		commands.Terminal(),
		commands.WithDescription("Print one setting"),
		commands.WithUsage("<key>"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) != 1 {
				return false
			}
			val, err := store.Current().Get(args[0])
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			b.printf("%s = %v", args[0], val)
			return true
		}),
		commands.WithCompletions(func(_ commands.Sender, args []string) []string {
			if len(args) != 1 {
				return []string{}
			}
			return filterPrefix(config.GetAllKeys(), args[0])
		}),
	)

	set := b.node("set",
		commands.Terminal(),
		commands.WithDescription("Change one setting and save it"),
		commands.WithUsage("<key> <value>"),
		commands.WithExecutor(func(sender commands.Sender, _ string, args []string) bool {
			if len(args) < 2 {
				return false
			}
			key, value := args[0], strings.Join(args[1:], " ")
			cfg, err := store.Update(key, value)
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			b.deps.Logger.WithField("sender", senderName(sender)).WithField("key", key).Info("config updated")
			b.printf("%s = %s", key, value)
			b.changed(cfg)
			return true
		}),
		commands.WithCompletions(func(_ commands.Sender, args []string) []string {
			switch len(args) {
			case 1:
				return filterPrefix(config.GetAllKeys(), args[0])
			case 2:
				return filterPrefix(config.KeyValues(args[0]), args[1])
			}
			return []string{}
		}),
	)

	reload := b.node("reload",
		commands.WithDescription("Re-read the config file"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) != 0 {
				return false
			}
			cfg, err := store.Reload()
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			b.printf("reloaded %s", store.Path())
			b.changed(cfg)
			return true
		}),
	)

	path := b.node("path",
		commands.WithDescription("Show which config file is in use"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) != 0 {
				return false
			}
			if p := store.Path(); p != "" {
				b.deps.Out.Print(p)
			} else {
				b.deps.Out.Print("(defaults, no config file)")
			}
			return true
		}),
	)

	return b.node("config",
		commands.WithDescription("Inspect and change settings"),
		commands.WithChildren(get, set, reload, path),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) != 0 {
				return false
			}
			b.deps.Out.Print(b.dump(store.Current()))
			return true
		}),
	)
}

// dump renders every setting as an aligned key = value listing.
func (b *builtins) dump(cfg *config.Config) string {
	keys := config.GetAllKeys()
	width := 0
	for _, k := range keys {
		if w := util.StringWidth(k); w > width {
			width = w
		}
	}

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		val, err := cfg.Get(k)
		if err != nil {
			continue
		}
		lines = append(lines, util.PadRight(k, width)+" = "+formatValue(val))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		if s == "" {
			return `""`
		}
		return s
	}
	return fmt.Sprint(v)
}

func (b *builtins) changed(cfg *config.Config) {
	if b.deps.OnConfigChange != nil {
		b.deps.OnConfigChange(cfg)
	}
}
