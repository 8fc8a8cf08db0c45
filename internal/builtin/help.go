// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtin

import (
	"strings"

	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/util"
)

// =============================================================================
// HELP
// =============================================================================

func (b *builtins) helpCommand() *commands.Router {
	return b.node("help",
		commands.WithDescription("Show commands, or help for one command path"),
		commands.WithUsage("[command...]"),
		commands.WithExecutor(b.runHelp),
		commands.WithCompletions(b.completeHelp),
	)
}

func (b *builtins) runHelp(_ commands.Sender, _ string, args []string) bool {
	if len(args) == 0 {
		b.deps.Out.Markdown(b.overview())
		return true
	}

	root, err := b.lookup(args[0])
	if err != nil {
		b.deps.Out.Error(err)
		return true
	}
	b.deps.Out.Markdown(commands.Help(root, args[1:]...))
	return true
}

// completeHelp offers labels for the first word and then completes the rest
// of the path against the named command.
func (b *builtins) completeHelp(sender commands.Sender, args []string) []string {
	if len(args) <= 1 {
		partial := ""
		if len(args) == 1 {
			partial = args[0]
		}
		return filterPrefix(b.reg.Labels(), partial)
	}

	root, err := b.lookup(args[0])
	if err != nil {
		return []string{}
	}
	return root.Complete(sender, root.Name(), args[0], args[1:])
}

// overview lists every root with its aliases and description.
func (b *builtins) overview() string {
	aliases := b.aliasesByRoot()
	roots := b.reg.Roots()

	names := make([]string, len(roots))
	width := 0
	for i, root := range roots {
		names[i] = root.Name()
		if extra := aliases[root]; len(extra) > 0 {
			names[i] += " (" + strings.Join(extra, ", ") + ")"
		}
		if w := util.StringWidth(names[i]); w > width {
			width = w
		}
	}

	var sb strings.Builder
	sb.WriteString("# Commands\n\n```\n")
	for i, root := range roots {
		sb.WriteString(util.PadRight(names[i], width))
		if desc := root.Description(); desc != "" {
			sb.WriteString("  " + util.TruncateWidth(desc, 60))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\nType `help <command>` for details.\n")
	return sb.String()
}

func (b *builtins) aliasesByRoot() map[*commands.Router][]string {
	out := make(map[*commands.Router][]string)
	for _, label := range b.reg.Labels() {
		root, ok := b.reg.Lookup(label)
		if ok && !strings.EqualFold(label, root.Name()) {
			out[root] = append(out[root], label)
		}
	}
	return out
}

// =============================================================================
// TREE
// =============================================================================

func (b *builtins) treeCommand() *commands.Router {
	return b.node("tree",
		commands.WithDescription("Print the command tree (* marks terminal nodes)"),
		commands.WithUsage("[command]"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) > 1 {
				return false
			}

			var roots []*commands.Router
			if len(args) == 1 {
				root, err := b.lookup(args[0])
				if err != nil {
					b.deps.Out.Error(err)
					return true
				}
				roots = []*commands.Router{root}
			} else {
				roots = b.reg.Roots()
			}

			var lines []string
			for _, root := range roots {
				lines = append(lines, commands.TreeLines(root)...)
			}
			b.deps.Out.Print(strings.Join(lines, "\n"))
			return true
		}),
		commands.WithCompletions(func(_ commands.Sender, args []string) []string {
			if len(args) != 1 {
				return []string{}
			}
			return filterPrefix(b.reg.Labels(), args[0])
		}),
	)
}

// =============================================================================
// EXIT
// =============================================================================

func (b *builtins) exitCommand() *commands.Router {
	return b.node("exit",
		commands.WithDescription("Leave the console"),
		commands.WithExecutor(func(sender commands.Sender, _ string, _ []string) bool {
			b.deps.Logger.WithField("sender", senderName(sender)).Debug("exit requested")
			if b.deps.Stop != nil {
				b.deps.Stop()
			}
			return true
		}),
	)
}
