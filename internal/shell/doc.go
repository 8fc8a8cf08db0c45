// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell implements the kcapi interactive console.
//
// Lines are read with peterh/liner, which provides editing, history and
// tab completion. Completion is delegated to the command registry through
// Completer. Output is styled with lipgloss using a termenv color profile,
// and help pages are rendered with glamour when stdout is a terminal.
//
// Usage:
//
//	styles := shell.NewStyles(os.Stdout, shell.ColorProfile("auto", shell.IsStdoutTTY()))
//	out, _ := shell.NewConsoleOutput(os.Stdout, styles, shell.IsStdoutTTY(), shell.TerminalWidth())
//	sh := shell.New(reg, shell.Options{Prompt: "kcapi> ", Output: out, Styles: styles})
//	err := sh.Run(ctx)
package shell
