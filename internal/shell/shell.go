// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/util"
)

// =============================================================================
// SENDER
// =============================================================================

// ConsoleSender is the sender for lines typed at the console.
type ConsoleSender struct {
	name string
}

// NewConsoleSender creates a sender called name.
func NewConsoleSender(name string) *ConsoleSender {
	return &ConsoleSender{name: name}
}

// Name implements commands.Sender.
func (s *ConsoleSender) Name() string { return s.name }

// =============================================================================
// SHELL
// =============================================================================

// Options configure a Shell.
type Options struct {
	Prompt       string
	HistoryFile  string
	HistoryLimit int
	Sender       commands.Sender
	Output       *ConsoleOutput
	Styles       Styles
	Logger       logrus.FieldLogger
}

// Shell is the interactive console: it reads lines, dispatches them through
// the registry and reports the outcome.
type Shell struct {
	reg    *commands.Registry
	opts   Options
	logger logrus.FieldLogger

	mu      sync.Mutex
	prompt  string
	stopped bool
}

// New creates a shell over reg.
func New(reg *commands.Registry, opts Options) *Shell {
	if opts.Sender == nil {
		opts.Sender = NewConsoleSender("console")
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Shell{reg: reg, opts: opts, logger: logger, prompt: opts.Prompt}
}

// Stop ends the loop after the current line.
func (s *Shell) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether Stop has been called.
func (s *Shell) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// SetPrompt replaces the prompt from the next line on.
func (s *Shell) SetPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

func (s *Shell) currentPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Exec runs one line and prints its outcome: the error if dispatch failed,
// or the usage of the resolved command if no leaf handled it.
func (s *Shell) Exec(line string) (bool, error) {
	handled, err := s.reg.Execute(s.opts.Sender, line)
	switch {
	case err != nil:
		s.opts.Output.Error(err)
	case !handled:
		if usage, usageErr := s.reg.UsageFor(line); usageErr == nil {
			s.opts.Output.Usage(usage)
		}
	}
	return handled, err
}

// Handle is Exec for the read loop. Blank lines are skipped. It returns
// false once the shell should stop.
func (s *Shell) Handle(line string) bool {
	if strings.TrimSpace(line) != "" {
		s.Exec(line)
	}
	return !s.Stopped()
}

// Run reads lines until exit, Ctrl+C, Ctrl+D or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetWordCompleter(Completer{Registry: s.reg, Sender: s.opts.Sender}.Complete)
	s.loadHistory(line)
	defer s.saveHistory(line)

	for ctx.Err() == nil {
		input, err := line.Prompt(s.opts.Styles.Prompt.Render(s.currentPrompt()))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !s.Handle(input) {
			return nil
		}
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Shell) loadHistory(line *liner.State) {
	if s.opts.HistoryFile == "" {
		return
	}
	f, err := os.Open(s.opts.HistoryFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		s.logger.WithError(err).Warn("failed to read history")
	}
}

// saveHistory writes the newest HistoryLimit entries (all when 0) with 0600
// permissions.
func (s *Shell) saveHistory(line *liner.State) {
	if s.opts.HistoryFile == "" {
		return
	}

	var buf bytes.Buffer
	if _, err := line.WriteHistory(&buf); err != nil {
		s.logger.WithError(err).Warn("failed to collect history")
		return
	}
	data := trimHistory(buf.Bytes(), s.opts.HistoryLimit)
	if err := util.AtomicWriteFile(s.opts.HistoryFile, data, 0600); err != nil {
		s.logger.WithError(err).Warn("failed to save history")
	}
}

// trimHistory keeps the last limit lines of a history dump.
func trimHistory(data []byte, limit int) []byte {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
