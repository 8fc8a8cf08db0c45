// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testSender string

func (s testSender) Name() string { return string(s) }

// call records one leaf execution.
type call struct {
	node  string
	label string
	args  []string
}

type recorder struct {
	calls []call
}

// leaf returns an executor that records its invocation and reports handled.
func (rec *recorder) leaf(node string, handled bool) Option {
	return WithExecutor(func(_ Sender, label string, args []string) bool {
		rec.calls = append(rec.calls, call{node: node, label: label, args: args})
		return handled
	})
}

func (rec *recorder) last(t *testing.T) call {
	t.Helper()
	require.NotEmpty(t, rec.calls, "no leaf was executed")
	return rec.calls[len(rec.calls)-1]
}

func staticCompletions(values ...string) Option {
	return WithCompletions(func(Sender, []string) []string { return values })
}

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestNew_EmptyChildren(t *testing.T) {
	r := New("root")
	assert.Equal(t, "root", r.Name())
	assert.Empty(t, r.Children())
	assert.Equal(t, KindRecursive, r.Kind())
}

func TestAddChild_KeepsInsertionOrder(t *testing.T) {
	r := New("root")
	r.AddChild(New("c"))
	r.AddChild(New("a"))
	r.AddChild(New("b"))

	assert.Equal(t, []string{"c", "a", "b"}, r.Complete(testSender("s"), "root", "root", []string{}))
}

func TestAddChild_DuplicateIsNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	child := New("a")
	r := New("root", WithLogger(logger), WithChildren(child))
	before := r.Children()

	r.AddChild(child)
	r.AddChild(nil)

	assert.Equal(t, before, r.Children())
	assert.Contains(t, buf.String(), "already exists")
	assert.Contains(t, buf.String(), "level=warning")
}

func TestAddChild_SameNameDifferentInstance(t *testing.T) {
	r := New("root")
	r.AddChild(New("a"))
	r.AddChild(New("a"))

	// Identity, not name, decides duplicates.
	assert.Len(t, r.Children(), 2)
}

func TestWithChildren_DuplicateLoggedRegardlessOfOptionOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	child := New("a")
	r := New("root", WithChildren(child, child), WithLogger(logger))

	assert.Len(t, r.Children(), 1)
	assert.Contains(t, buf.String(), "already exists")
}

func TestChildren_ReturnsCopy(t *testing.T) {
	r := New("root", WithChildren(New("a")))
	kids := r.Children()
	kids[0] = New("mutated")

	assert.Equal(t, "a", r.Children()[0].Name())
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatch_EmptyArgsRunsSelf(t *testing.T) {
	rec := &recorder{}
	r := New("root", rec.leaf("root", true), WithChildren(New("a", rec.leaf("a", true))))

	assert.True(t, r.Dispatch(testSender("s"), "root", []string{}))
	got := rec.last(t)
	assert.Equal(t, "root", got.node)
	assert.Empty(t, got.args)
}

func TestDispatch_DefaultLeafReturnsFalse(t *testing.T) {
	r := New("root", WithChildren(New("a")))

	assert.False(t, r.Dispatch(testSender("s"), "root", []string{}))
	assert.False(t, r.Dispatch(testSender("s"), "root", []string{"a"}))
	assert.False(t, r.Dispatch(testSender("s"), "root", []string{"zzz", "y"}))
}

func TestDispatch_Routing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantNode string
		wantArgs []string
	}{
		{"child only", []string{"a"}, "a", []string{}},
		{"grandchild", []string{"a", "b"}, "b", []string{}},
		{"grandchild with args", []string{"a", "b", "x", "y"}, "b", []string{"x", "y"}},
		{"case insensitive", []string{"A", "B"}, "b", []string{}},
		{"missing grandchild falls back to child", []string{"a", "x"}, "a", []string{"x"}},
		{"no match keeps untruncated args", []string{"zzz", "a"}, "root", []string{"zzz", "a"}},
		{"three levels", []string{"a", "b", "c", "tail"}, "c", []string{"tail"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			c := New("c", rec.leaf("c", true))
			b := New("b", rec.leaf("b", true), WithChildren(c))
			a := New("a", rec.leaf("a", true), WithChildren(b))
			root := New("root", rec.leaf("root", true), WithChildren(a))

			assert.True(t, root.Dispatch(testSender("s"), "root", tc.args))
			got := rec.last(t)
			assert.Equal(t, tc.wantNode, got.node)
			assert.Equal(t, tc.wantArgs, got.args)
			assert.Len(t, rec.calls, 1, "exactly one leaf runs per dispatch")
		})
	}
}

func TestDispatch_LabelPassesThrough(t *testing.T) {
	rec := &recorder{}
	root := New("root", WithChildren(New("a", rec.leaf("a", true))))

	root.Dispatch(testSender("s"), "rt", []string{"a"})
	assert.Equal(t, "rt", rec.last(t).label)
}

func TestDispatch_FirstMatchingChildWins(t *testing.T) {
	rec := &recorder{}
	root := New("root", WithChildren(
		New("dup", rec.leaf("first", true)),
		New("DUP", rec.leaf("second", true)),
	))

	root.Dispatch(testSender("s"), "root", []string{"dup"})
	assert.Equal(t, "first", rec.last(t).node)
}

func TestDispatch_ReturnsLeafResult(t *testing.T) {
	rec := &recorder{}
	root := New("root", WithChildren(New("a", rec.leaf("a", false))))

	assert.False(t, root.Dispatch(testSender("s"), "root", []string{"a"}))
}

func TestDispatch_SenderPassesThrough(t *testing.T) {
	var got Sender
	root := New("root", WithChildren(New("a", WithExecutor(func(s Sender, _ string, _ []string) bool {
		got = s
		return true
	}))))

	root.Dispatch(testSender("alice"), "root", []string{"a"})
	assert.Equal(t, testSender("alice"), got)
}

func TestResolve(t *testing.T) {
	b := New("b")
	a := New("a", WithChildren(b))
	root := New("root", WithChildren(a))

	node, rest := root.Resolve([]string{"a", "b", "x"})
	assert.Same(t, b, node)
	assert.Equal(t, []string{"x"}, rest)

	node, rest = root.Resolve(nil)
	assert.Same(t, root, node)
	assert.NotNil(t, rest)
	assert.Empty(t, rest)
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestComplete_EmptyArgsListsChildren(t *testing.T) {
	root := New("root", WithChildren(New("b"), New("a"), New("c")))

	assert.Equal(t, []string{"b", "a", "c"}, root.Complete(testSender("s"), "root", "root", []string{}))
}

func TestComplete_EmptyFirstArgListsChildren(t *testing.T) {
	root := New("root", WithChildren(New("a"), New("b")))

	assert.Equal(t, []string{"a", "b"}, root.Complete(testSender("s"), "root", "root", []string{""}))
	assert.Equal(t, []string{"a", "b"}, root.Complete(testSender("s"), "root", "root", []string{"", "whatever", "else"}))
}

func TestComplete_PrefixFiltersImmediateChildrenOnly(t *testing.T) {
	a := New("a", WithChildren(New("bar"), New("baz")))
	root := New("root", WithChildren(a, New("alpha"), New("beta")))

	assert.Equal(t, []string{"a", "alpha"}, root.Complete(testSender("s"), "root", "root", []string{"a"}))
	assert.Equal(t, []string{"beta"}, root.Complete(testSender("s"), "root", "root", []string{"B"}))
}

func TestComplete_NoPrefixMatchUsesOwnCompletions(t *testing.T) {
	root := New("root", staticCompletions("own1", "own2"), WithChildren(New("a")))

	assert.Equal(t, []string{"own1", "own2"}, root.Complete(testSender("s"), "root", "root", []string{"zzz"}))
}

func TestComplete_DefaultOwnCompletionsEmpty(t *testing.T) {
	root := New("root", WithChildren(New("a")))

	got := root.Complete(testSender("s"), "root", "root", []string{"zzz"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestComplete_RecursesIntoMatchedChild(t *testing.T) {
	a := New("a", WithChildren(New("bar"), New("baz"), New("qux")))
	root := New("root", WithChildren(a))

	assert.Equal(t, []string{"bar", "baz"}, root.Complete(testSender("s"), "root", "root", []string{"A", "ba"}))
	assert.Equal(t, []string{"bar", "baz", "qux"}, root.Complete(testSender("s"), "root", "root", []string{"a", ""}))
}

func TestComplete_UnknownFirstArgUsesOwnCompletions(t *testing.T) {
	var gotArgs []string
	root := New("root",
		WithCompletions(func(_ Sender, args []string) []string {
			gotArgs = args
			return []string{"fallback"}
		}),
		WithChildren(New("a")),
	)

	assert.Equal(t, []string{"fallback"}, root.Complete(testSender("s"), "root", "root", []string{"nope", "x"}))
	assert.Equal(t, []string{"nope", "x"}, gotArgs)
}

func TestComplete_TerminalChildOwnsRemainingArgs(t *testing.T) {
	var gotArgs []string
	inner := New("x", staticCompletions("never"))
	term := New("t",
		Terminal(),
		WithChildren(inner),
		WithCompletions(func(_ Sender, args []string) []string {
			gotArgs = args
			return []string{"terminal"}
		}),
	)
	root := New("root", WithChildren(term))

	got := root.Complete(testSender("s"), "root", "root", []string{"t", "x", "y"})
	assert.Equal(t, []string{"terminal"}, got)
	assert.Equal(t, []string{"x", "y"}, gotArgs)
}

func TestComplete_RecursiveChildWithSameShapeDescends(t *testing.T) {
	inner := New("x", staticCompletions("from-x"))
	rec := New("t", WithChildren(inner), staticCompletions("from-t"))
	root := New("root", WithChildren(rec))

	// "t x y": t matches, then x matches, then x completes "y".
	assert.Equal(t, []string{"from-x"}, root.Complete(testSender("s"), "root", "root", []string{"t", "x", "y"}))
}

func TestComplete_TerminalChildWithBlankRestUsesHook(t *testing.T) {
	term := New("t", Terminal(), WithChildren(New("one"), New("two")), staticCompletions("hook"))
	root := New("root", WithChildren(term))

	// rest is [""] which is non-empty, so the terminal hook answers.
	assert.Equal(t, []string{"hook"}, root.Complete(testSender("s"), "root", "root", []string{"t", ""}))
	// Completing "t" itself still filters root's children.
	assert.Equal(t, []string{"t"}, root.Complete(testSender("s"), "root", "root", []string{"t"}))
}

func TestComplete_NilHookResultBecomesEmpty(t *testing.T) {
	root := New("root", WithCompletions(func(Sender, []string) []string { return nil }))

	got := root.Complete(testSender("s"), "root", "root", []string{"x"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestComplete_IsRestartable(t *testing.T) {
	root := New("root", WithChildren(New("alpha"), New("beta")))
	args := []string{"a"}

	first := root.Complete(testSender("s"), "root", "root", args)
	second := root.Complete(testSender("s"), "root", "root", args)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a"}, args, "arguments are not mutated")
}

// =============================================================================
// TRAVERSAL TESTS
// =============================================================================

func TestWalk(t *testing.T) {
	root := New("root", WithChildren(
		New("a", WithChildren(New("a1"), New("a2"))),
		New("b"),
	))

	var visited []string
	root.Walk(func(path []string, r *Router) bool {
		visited = append(visited, joinPath(path))
		return r.Name() != "a"
	})

	assert.Equal(t, []string{"root", "root/a", "root/b"}, visited)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "recursive", KindRecursive.String())
	assert.Equal(t, "terminal", KindTerminal.String())
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
