// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/karasu256/kcapi/internal/commands"
)

// ConsoleOutput writes command output to a terminal. Plain text and errors
// are styled with lipgloss; markdown goes through glamour when a renderer
// is configured and is printed as-is otherwise.
type ConsoleOutput struct {
	mu       sync.Mutex
	w        io.Writer
	styles   Styles
	markdown *glamour.TermRenderer
}

// NewConsoleOutput creates an output on w. Pass renderMarkdown=false for
// pipes and dumb terminals.
func NewConsoleOutput(w io.Writer, styles Styles, renderMarkdown bool, width int) (*ConsoleOutput, error) {
	o := &ConsoleOutput{w: w, styles: styles}
	if renderMarkdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		o.markdown = r
	}
	return o, nil
}

// Print writes text followed by a newline.
func (o *ConsoleOutput) Print(text string) {
	o.write(o.styles.Text.Render(strings.TrimRight(text, "\n")))
}

// Error writes err in the error style. Unknown commands without a
// suggestion get a hint line as well.
func (o *ConsoleOutput) Error(err error) {
	if err == nil {
		return
	}
	o.write(o.styles.Error.Render("error: " + err.Error()))

	var unknown *commands.UnknownCommandError
	if errors.As(err, &unknown) && unknown.Suggestion == "" {
		o.write(o.styles.Hint.Render("type help to list commands"))
	}
}

// Usage writes a usage line.
func (o *ConsoleOutput) Usage(line string) {
	o.write(o.styles.Usage.Render("usage: " + line))
}

// Markdown renders md, falling back to the raw text if rendering fails.
func (o *ConsoleOutput) Markdown(md string) {
	if o.markdown != nil {
		if rendered, err := o.markdown.Render(md); err == nil {
			o.write(strings.TrimRight(rendered, "\n"))
			return
		}
	}
	o.write(strings.TrimRight(md, "\n"))
}

func (o *ConsoleOutput) write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, s)
}
