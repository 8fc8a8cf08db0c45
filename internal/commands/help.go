// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	"github.com/karasu256/kcapi/internal/util"
)

// maxDescWidth caps description columns in sub-command tables.
const maxDescWidth = 60

// Help renders markdown help for the node reached from root by path. Path
// segments that do not name a child are ignored, the same way Dispatch
// would leave them as arguments.
func Help(root *Router, path ...string) string {
	node := root
	trail := []string{root.Name()}
	for _, segment := range path {
		child, ok := node.Child(segment)
		if !ok {
			break
		}
		node = child
		trail = append(trail, child.Name())
	}

	var sb strings.Builder
	sb.WriteString("# " + strings.Join(trail, " ") + "\n\n")

	if node.Description() != "" {
		sb.WriteString(node.Description() + "\n\n")
	}

	sb.WriteString("Usage: `" + UsageLine(trail, node) + "`\n")

	children := node.Children()
	if len(children) == 0 {
		return sb.String()
	}

	nameWidth := 0
	for _, child := range children {
		if w := util.StringWidth(childLabel(child)); w > nameWidth {
			nameWidth = w
		}
	}

	sb.WriteString("\n## Subcommands\n\n```\n")
	for _, child := range children {
		sb.WriteString(util.PadRight(childLabel(child), nameWidth))
		if desc := child.Description(); desc != "" {
			sb.WriteString("  " + util.TruncateWidth(desc, maxDescWidth))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

// UsageLine joins the command path with the node's usage, or with a
// sub-command placeholder when the node has children and no usage of its own.
func UsageLine(path []string, node *Router) string {
	line := strings.Join(path, " ")
	switch {
	case node.Usage() != "":
		line += " " + node.Usage()
	case len(node.Children()) > 0:
		line += " <subcommand>"
	}
	return line
}

// TreeLines renders the tree under root, one node per line, indented two
// spaces per level. Terminal nodes are marked with "*".
func TreeLines(root *Router) []string {
	var lines []string
	root.Walk(func(path []string, r *Router) bool {
		indent := strings.Repeat("  ", len(path)-1)
		lines = append(lines, indent+childLabel(r))
		return true
	})
	return lines
}

func childLabel(r *Router) string {
	if r.IsTerminal() {
		return r.Name() + "*"
	}
	return r.Name()
}
