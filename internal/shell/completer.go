// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"strings"
	"unicode"

	"github.com/karasu256/kcapi/internal/commands"
)

// Completer adapts Registry.CompleteLine to liner's word completer. Only
// the text left of the cursor is completed; the rest of the line is kept.
type Completer struct {
	Registry *commands.Registry
	Sender   commands.Sender
}

// Complete implements liner.WordCompleter.
func (c Completer) Complete(line string, pos int) (head string, completions []string, tail string) {
	runes := []rune(line)
	if pos < 0 || pos > len(runes) {
		pos = len(runes)
	}
	before, tail := string(runes[:pos]), string(runes[pos:])

	candidates := c.Registry.CompleteLine(c.Sender, before)
	if len(candidates) == 0 {
		return before, nil, tail
	}

	head = before
	if commands.PartialToken(before) != "" {
		head = before[:strings.LastIndexFunc(before, unicode.IsSpace)+1]
	}

	// The registry strips the prefix before completing labels; put it back.
	prefix := ""
	if p := c.Registry.Prefix(); p != "" && strings.TrimSpace(head) == "" &&
		strings.HasPrefix(strings.TrimLeftFunc(before, unicode.IsSpace), p) {
		prefix = p
	}

	completions = make([]string, len(candidates))
	for i, candidate := range candidates {
		completions[i] = prefix + quote(candidate)
	}
	return head, completions, tail
}

// quote wraps candidates containing whitespace so they parse as one token.
func quote(s string) string {
	if s == "" || !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}
