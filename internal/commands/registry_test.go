// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, rec *recorder, opts ...RegistryOption) *Registry {
	t.Helper()

	plugin := New("plugin",
		rec.leaf("plugin", true),
		WithChildren(
			New("list", rec.leaf("list", true)),
			New("enable", rec.leaf("enable", true), Terminal(), staticCompletions("alpha", "beta")),
		),
	)
	config := New("config", rec.leaf("config", true), WithChildren(
		New("get", rec.leaf("get", true)),
	))

	reg := NewRegistry(opts...)
	require.NoError(t, reg.Register(plugin, "pl", "plugins"))
	require.NoError(t, reg.Register(config))
	return reg
}

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := newTestRegistry(t, &recorder{})

	for _, label := range []string{"plugin", "PL", "Plugins", "config"} {
		root, ok := reg.Lookup(label)
		require.True(t, ok, "lookup %q", label)
		assert.NotNil(t, root)
	}

	_, ok := reg.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"plugin", "pl", "plugins", "config"}, reg.Labels())
	assert.Len(t, reg.Roots(), 2)
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	reg := newTestRegistry(t, &recorder{})

	err := reg.Register(New("other"), "PL")
	var dup *DuplicateLabelError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "plugin", dup.Owner)

	// Nothing from the failed registration leaks in.
	_, ok := reg.Lookup("other")
	assert.False(t, ok)

	err = reg.Register(New("self"), "SELF")
	require.ErrorAs(t, err, &dup)
}

func TestRegistry_RegisterRejectsEmpty(t *testing.T) {
	reg := NewRegistry()

	assert.ErrorIs(t, reg.Register(New("")), ErrEmptyLabel)
	assert.ErrorIs(t, reg.Register(nil), ErrEmptyLabel)
	assert.ErrorIs(t, reg.Register(New("ok"), ""), ErrEmptyLabel)
}

func TestRegistry_Unregister(t *testing.T) {
	reg := newTestRegistry(t, &recorder{})

	assert.False(t, reg.Unregister("pl"), "aliases cannot unregister")
	assert.True(t, reg.Unregister("plugin"))

	_, ok := reg.Lookup("pl")
	assert.False(t, ok)
	assert.Equal(t, []string{"config"}, reg.Labels())
	assert.Len(t, reg.Roots(), 1)
}

// =============================================================================
// EXECUTION TESTS
// =============================================================================

func TestRegistry_Execute(t *testing.T) {
	rec := &recorder{}
	reg := newTestRegistry(t, rec, WithPrefix("/"))

	handled, err := reg.Execute(testSender("s"), "/pl enable \"my plugin\"")
	require.NoError(t, err)
	assert.True(t, handled)

	got := rec.last(t)
	assert.Equal(t, "enable", got.node)
	assert.Equal(t, "pl", got.label, "label is the alias as typed")
	assert.Equal(t, []string{"my plugin"}, got.args)
}

func TestRegistry_ExecuteWithoutPrefix(t *testing.T) {
	rec := &recorder{}
	reg := newTestRegistry(t, rec, WithPrefix("/"))

	_, err := reg.Execute(testSender("s"), "config get")
	require.NoError(t, err)
	assert.Equal(t, "get", rec.last(t).node)
}

func TestRegistry_ExecuteEmpty(t *testing.T) {
	reg := newTestRegistry(t, &recorder{}, WithPrefix("/"))

	for _, line := range []string{"", "   ", "/"} {
		_, err := reg.Execute(testSender("s"), line)
		assert.ErrorIs(t, err, ErrEmptyInput, "line %q", line)
	}
}

func TestRegistry_ExecuteUnknownSuggests(t *testing.T) {
	reg := newTestRegistry(t, &recorder{})

	_, err := reg.Execute(testSender("s"), "plugn list")
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "plugn", unknown.Label)
	assert.Equal(t, "plugin", unknown.Suggestion)
	assert.Contains(t, err.Error(), "did you mean 'plugin'")
}

func TestRegistry_ExecuteUnknownWithoutSuggestions(t *testing.T) {
	reg := newTestRegistry(t, &recorder{}, WithSuggestions(false))

	_, err := reg.Execute(testSender("s"), "plugn")
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, unknown.Suggestion)
}

func TestRegistry_ExecuteNormalizesFullWidth(t *testing.T) {
	rec := &recorder{}
	reg := newTestRegistry(t, rec)

	_, err := reg.Execute(testSender("s"), "ｐｌｕｇｉｎ　ｌｉｓｔ")
	require.NoError(t, err)
	assert.Equal(t, "list", rec.last(t).node)
}

func TestRegistry_ExecuteWithoutNormalization(t *testing.T) {
	reg := newTestRegistry(t, &recorder{}, WithNormalization(false))

	_, err := reg.Execute(testSender("s"), "ｐｌｕｇｉｎ")
	var unknown *UnknownCommandError
	assert.ErrorAs(t, err, &unknown)
}

func TestRegistry_MiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(inv *Invocation) (bool, error) {
				order = append(order, name)
				return next(inv)
			}
		}
	}

	reg := newTestRegistry(t, &recorder{}, WithMiddleware(mw("outer"), mw("inner")))
	_, err := reg.Execute(testSender("s"), "config")
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRegistry_MiddlewareErrorStopsDispatch(t *testing.T) {
	rec := &recorder{}
	sentinel := errors.New("denied")
	deny := func(Handler) Handler {
		return func(*Invocation) (bool, error) { return false, sentinel }
	}

	reg := newTestRegistry(t, rec, WithMiddleware(deny))
	handled, err := reg.Execute(testSender("s"), "config get")
	assert.False(t, handled)
	assert.ErrorIs(t, err, sentinel)
	assert.Empty(t, rec.calls)
}

func TestRegistry_Resolve(t *testing.T) {
	reg := newTestRegistry(t, &recorder{}, WithPrefix("/"))

	node, rest, err := reg.Resolve("/plugin enable alpha")
	require.NoError(t, err)
	assert.Equal(t, "enable", node.Name())
	assert.Equal(t, []string{"alpha"}, rest)

	_, _, err = reg.Resolve("/nope")
	assert.Error(t, err)
}

func TestRegistry_UsageFor(t *testing.T) {
	reg := newTestRegistry(t, &recorder{}, WithPrefix("/"))

	tests := []struct {
		line string
		want string
	}{
		{"pl ENABLE alpha", "plugin enable"},
		{"/plugins", "plugin <subcommand>"},
		{"plugin bogus", "plugin <subcommand>"},
		{"config get x", "config get"},
	}
	for _, tc := range tests {
		got, err := reg.UsageFor(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}

	_, err := reg.UsageFor("")
	assert.ErrorIs(t, err, ErrEmptyInput)
	var unknown *UnknownCommandError
	_, err = reg.UsageFor("nope")
	assert.ErrorAs(t, err, &unknown)
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestRegistry_CompleteLine(t *testing.T) {
	reg := newTestRegistry(t, &recorder{}, WithPrefix("/"))

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"blank line lists labels", "", []string{"plugin", "pl", "plugins", "config"}},
		{"label prefix", "/pl", []string{"plugin", "pl", "plugins"}},
		{"label prefix ignores case", "C", []string{"config"}},
		{"unknown label", "/zz", []string{}},
		{"next token after label", "/plugin ", []string{"list", "enable"}},
		{"sub-command prefix", "/pl e", []string{"enable"}},
		{"terminal child hook", "/pl enable ", []string{"alpha", "beta"}},
		{"terminal child hook with partial", "/plugin enable al", []string{"alpha", "beta"}},
		{"unknown root on args", "/zz x", []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reg.CompleteLine(testSender("s"), tc.line))
		})
	}
}
