// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtin

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/util"
)

func (b *builtins) pluginCommand() *commands.Router {
	return b.node("plugin",
		commands.WithDescription("List, enable and disable plugins"),
		commands.WithChildren(
			b.node("list",
				commands.WithDescription("List installed plugins"),
				commands.WithExecutor(b.listPlugins),
			),
			b.pluginToggle("enable", true),
			b.pluginToggle("disable", false),
			b.node("info",
				commands.Terminal(),
				commands.WithDescription("Show details for one plugin"),
				commands.WithUsage("<name>"),
				commands.WithExecutor(b.pluginInfo),
				commands.WithCompletions(b.completePlugins(nil)),
			),
		),
	)
}

func (b *builtins) listPlugins(_ commands.Sender, _ string, _ []string) bool {
	plugins := b.deps.Catalog.List()
	if len(plugins) == 0 {
		b.deps.Out.Print("no plugins installed")
		return true
	}

	nameWidth, versionWidth := 0, 0
	for _, p := range plugins {
		nameWidth = max(nameWidth, util.StringWidth(p.Name))
		versionWidth = max(versionWidth, util.StringWidth(p.Version))
	}

	lines := make([]string, len(plugins))
	for i, p := range plugins {
		lines[i] = util.PadRight(p.Name, nameWidth) + "  " +
			util.PadRight(p.Version, versionWidth) + "  " + stateLabel(p.Enabled)
	}
	b.deps.Out.Print(strings.Join(lines, "\n"))
	return true
}

// pluginToggle builds enable or disable. Completion offers only the plugins
// the command would change.
func (b *builtins) pluginToggle(name string, enable bool) *commands.Router {
	desc := "Enable a plugin"
	if !enable {
		desc = "Disable a plugin"
	}
	current := !enable

	return b.node(name,
		commands.Terminal(),
		commands.WithDescription(desc),
		commands.WithUsage("<name>"),
		commands.WithExecutor(func(sender commands.Sender, _ string, args []string) bool {
			if len(args) != 1 {
				return false
			}
			changed, err := b.deps.Catalog.SetEnabled(args[0], enable)
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			if !changed {
				b.printf("%s is already %s", args[0], stateLabel(enable))
				return true
			}
			b.deps.Logger.WithFields(logrus.Fields{
				"sender": senderName(sender),
				"plugin": args[0],
			}).Infof("plugin %s", stateLabel(enable))
			b.printf("%s %s", args[0], stateLabel(enable))
			return true
		}),
		commands.WithCompletions(b.completePlugins(&current)),
	)
}

func (b *builtins) pluginInfo(_ commands.Sender, _ string, args []string) bool {
	if len(args) != 1 {
		return false
	}
	p, err := b.deps.Catalog.Get(args[0])
	if err != nil {
		b.deps.Out.Error(err)
		return true
	}

	var sb strings.Builder
	sb.WriteString("# " + p.Name + "\n\n")
	if p.Description != "" {
		sb.WriteString(p.Description + "\n\n")
	}
	sb.WriteString("- Version: " + p.Version + "\n")
	sb.WriteString("- State: " + stateLabel(p.Enabled) + "\n")
	b.deps.Out.Markdown(sb.String())
	return true
}

func (b *builtins) completePlugins(state *bool) commands.CompleteFunc {
	return func(_ commands.Sender, args []string) []string {
		if len(args) != 1 {
			return []string{}
		}
		return filterPrefix(b.deps.Catalog.Names(state), args[0])
	}
}

func stateLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
