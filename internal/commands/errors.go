// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyInput is returned by Registry.Execute for a blank line.
	ErrEmptyInput = errors.New("no command provided")

	// ErrEmptyLabel is returned when registering a root without a name.
	ErrEmptyLabel = errors.New("command name must not be empty")
)

// UnknownCommandError is returned when no registered root answers to Label.
type UnknownCommandError struct {
	Label      string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	msg := "unknown command: " + e.Label
	if e.Suggestion != "" {
		msg += " (did you mean '" + e.Suggestion + "'?)"
	}
	return msg
}

// DuplicateLabelError is returned when a name or alias is already taken.
type DuplicateLabelError struct {
	Label string
	Owner string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("label %q is already registered to command %q", e.Label, e.Owner)
}

// CooldownError is returned by the cooldown middleware when a sender
// invokes commands faster than allowed.
type CooldownError struct {
	Sender     string
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown, retry in %s", e.Sender, e.RetryAfter.Round(time.Millisecond))
}

// PanicError wraps a panic recovered from a leaf hook.
type PanicError struct {
	Label string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %s panicked: %v", e.Label, e.Value)
}
