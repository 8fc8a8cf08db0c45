// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width markdown is wrapped to
	MinTerminalWidth = 40
)

// TerminalWidth returns the width of stdout, or DefaultTerminalWidth.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

// ColorsEnabled decides whether to emit color for the shell.color setting
// ("auto", "always" or "never"). NO_COLOR beats everything except "always";
// FORCE_COLOR turns "auto" on without a TTY.
// See https://no-color.org/.
func ColorsEnabled(mode string, stdoutTTY bool) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return stdoutTTY
}

// ColorProfile returns the termenv profile for mode.
// Returns Ascii (no colors) when colors are disabled.
func ColorProfile(mode string, stdoutTTY bool) termenv.Profile {
	if !ColorsEnabled(mode, stdoutTTY) {
		return termenv.Ascii
	}
	if profile := termenv.EnvColorProfile(); profile != termenv.Ascii {
		return profile
	}
	// Forced on without a detectable terminal
	return termenv.ANSI256
}
