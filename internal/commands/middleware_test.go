// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWithCooldown_BlocksBurst(t *testing.T) {
	rec := &recorder{}
	reg := newTestRegistry(t, rec, WithMiddleware(WithCooldown(rate.Limit(0.001), 1)))

	handled, err := reg.Execute(testSender("alice"), "config")
	require.NoError(t, err)
	assert.True(t, handled)

	handled, err = reg.Execute(testSender("alice"), "config")
	assert.False(t, handled)
	var cd *CooldownError
	require.ErrorAs(t, err, &cd)
	assert.Equal(t, "alice", cd.Sender)
	assert.Positive(t, cd.RetryAfter)
	assert.Len(t, rec.calls, 1)

	// Another sender has its own bucket.
	_, err = reg.Execute(testSender("bob"), "config")
	assert.NoError(t, err)
}

func TestWithCooldown_DisabledPassesThrough(t *testing.T) {
	rec := &recorder{}
	reg := newTestRegistry(t, rec, WithMiddleware(WithCooldown(0, 1)))

	for i := 0; i < 5; i++ {
		_, err := reg.Execute(testSender("alice"), "config")
		require.NoError(t, err)
	}
	assert.Len(t, rec.calls, 5)
}

func TestWithRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	boom := New("boom", WithExecutor(func(Sender, string, []string) bool {
		panic("kaboom")
	}))
	reg := NewRegistry(WithMiddleware(WithRecover(logger)))
	require.NoError(t, reg.Register(boom))

	handled, err := reg.Execute(testSender("s"), "boom")
	assert.False(t, handled)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Contains(t, buf.String(), "recovered panic")
}

func TestWithInvocationLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	reg := newTestRegistry(t, &recorder{}, WithMiddleware(WithInvocationLogging(logger)))
	_, err := reg.Execute(testSender("alice"), "pl list")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "command dispatched")
	assert.Contains(t, out, "sender=alice")
	assert.Contains(t, out, "label=pl")
	assert.Contains(t, out, "invocation=")
	assert.Contains(t, out, "handled=true")
}
