// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles used by the console.
type Styles struct {
	Prompt lipgloss.Style
	Error  lipgloss.Style
	Usage  lipgloss.Style
	Hint   lipgloss.Style
	Text   lipgloss.Style
}

// NewStyles builds the console styles for w rendered with profile. An Ascii
// profile yields plain text.
func NewStyles(w io.Writer, profile termenv.Profile) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)

	return Styles{
		Prompt: r.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		Error:  r.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		Usage:  r.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		Hint:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")).Italic(true),
		Text:   r.NewStyle(),
	}
}
