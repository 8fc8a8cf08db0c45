// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtin

import (
	"fmt"
	"io"
	"strings"
)

// Output receives everything the built-in commands print.
type Output interface {
	// Print writes one block of plain text.
	Print(text string)
	// Error reports a failure that is not a usage error.
	Error(err error)
	// Markdown writes a markdown document, rendered if the output supports it.
	Markdown(md string)
}

// PlainOutput writes unstyled text to W.
type PlainOutput struct {
	W io.Writer
}

func (o PlainOutput) Print(text string) {
	fmt.Fprintln(o.W, strings.TrimRight(text, "\n"))
}

func (o PlainOutput) Error(err error) {
	fmt.Fprintf(o.W, "error: %v\n", err)
}

func (o PlainOutput) Markdown(md string) {
	o.Print(md)
}
