// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParsedLine is a command line split into its label and arguments.
type ParsedLine struct {
	// Label is the first token with any prefix removed (e.g. "plugin")
	Label string

	// Args are the remaining tokens
	Args []string

	// TrailingSpace is true when the line ends in unquoted whitespace,
	// meaning the user has finished the last token and wants the next one.
	TrailingSpace bool

	// HasPrefix is true if the configured prefix was present
	HasPrefix bool

	// Raw is the normalized input the tokens were taken from
	Raw string
}

// ParseLine splits input into a label and arguments. prefix, when
// non-empty, is stripped from the front of the line if present (e.g. "/").
func ParseLine(input, prefix string) ParsedLine {
	result := ParsedLine{Raw: input}

	trimmed := strings.TrimLeftFunc(input, unicode.IsSpace)
	if prefix != "" && strings.HasPrefix(trimmed, prefix) {
		result.HasPrefix = true
		trimmed = strings.TrimPrefix(trimmed, prefix)
	}

	tokens, trailing := splitCommandLine(trimmed)
	result.TrailingSpace = trailing
	if len(tokens) == 0 {
		result.Args = []string{}
		return result
	}

	result.Label = tokens[0]
	result.Args = tokens[1:]
	return result
}

// ParseArgs parses a raw argument string into individual arguments.
// Handles quoted strings with spaces.
func ParseArgs(input string) []string {
	tokens, _ := splitCommandLine(input)
	return tokens
}

// Normalize folds compatibility characters with NFKC, so full-width input
// from an IME ("ｐｌｕｇｉｎ　ｌｉｓｔ") reads like its ASCII form.
func Normalize(input string) string {
	return norm.NFKC.String(input)
}

// PartialToken returns the token under the cursor at the end of line, or
// "" when the line ends in whitespace.
func PartialToken(line string) string {
	tokens, trailing := splitCommandLine(line)
	if trailing || len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces. The
// second result reports whether the line ended in unquoted whitespace.
func splitCommandLine(input string) ([]string, bool) {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool
	// quoted tracks an opened quote so that "" yields an empty token.
	quoted := false
	trailing := false

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		trailing = false

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			quoted = true

		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			quoted = true

		case char == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}
			trailing = true

		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}

	return tokens, trailing
}
