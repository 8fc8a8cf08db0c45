// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// HOOK TYPES
// =============================================================================

// Sender is the principal invoking a command. The router never inspects it;
// it is passed through to the hooks untouched.
type Sender interface {
	Name() string
}

// ExecuteFunc is the leaf execution hook of a router. It returns true when
// the command was recognized and handled.
type ExecuteFunc func(sender Sender, label string, args []string) bool

// CompleteFunc is the own-completion hook of a router. It is consulted when
// no child name matches the argument being completed.
type CompleteFunc func(sender Sender, args []string) []string

// Kind tells whether a router keeps routing into its children during
// completion or claims all remaining arguments for itself.
type Kind int

const (
	KindRecursive Kind = iota // Completion descends into children
	KindTerminal              // Completion stops here and uses this node's hook
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	default:
		return "recursive"
	}
}

// =============================================================================
// ROUTER
// =============================================================================

// Router is a named node in a command tree. It routes a flat argument list
// to the deepest matching child and offers tab completion along the way.
//
// A Router is not safe for concurrent mutation. Build the tree during
// startup; after that, concurrent Dispatch and Complete calls are fine as
// long as nobody calls AddChild at the same time.
type Router struct {
	name        string
	kind        Kind
	children    []*Router
	execute     ExecuteFunc
	completions CompleteFunc
	logger      logrus.FieldLogger

	description string
	usage       string

	pending []*Router
}

// Option configures a Router at construction time.
type Option func(*Router)

// WithChildren adds sub-commands in order. Duplicates are dropped the same
// way AddChild drops them.
func WithChildren(children ...*Router) Option {
	return func(r *Router) {
		r.pending = append(r.pending, children...)
	}
}

// WithExecutor sets the leaf execution hook.
func WithExecutor(fn ExecuteFunc) Option {
	return func(r *Router) {
		r.execute = fn
	}
}

// WithCompletions sets the own-completion hook.
func WithCompletions(fn CompleteFunc) Option {
	return func(r *Router) {
		r.completions = fn
	}
}

// Terminal marks the router as terminal: once matched during completion,
// every remaining argument goes to its own completion hook.
func Terminal() Option {
	return func(r *Router) {
		r.kind = KindTerminal
	}
}

// WithLogger injects the diagnostic sink. Children added later do not
// inherit it.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDescription sets the one-line description shown in help.
func WithDescription(desc string) Option {
	return func(r *Router) {
		r.description = desc
	}
}

// WithUsage sets the argument syntax shown in help (e.g. "<key> <value>").
func WithUsage(usage string) Option {
	return func(r *Router) {
		r.usage = usage
	}
}

// New creates a router named name. An empty child list is fine.
func New(name string, opts ...Option) *Router {
	r := &Router{
		name:   name,
		kind:   KindRecursive,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	// Children are added last so duplicate warnings use the injected logger.
	pending := r.pending
	r.pending = nil
	for _, child := range pending {
		r.AddChild(child)
	}
	return r
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Name returns the router's name.
func (r *Router) Name() string { return r.name }

// Kind returns whether the router is recursive or terminal.
func (r *Router) Kind() Kind { return r.kind }

// IsTerminal reports whether the router is terminal.
func (r *Router) IsTerminal() bool { return r.kind == KindTerminal }

// Description returns the help description.
func (r *Router) Description() string { return r.description }

// Usage returns the help usage string.
func (r *Router) Usage() string { return r.usage }

// Children returns a copy of the sub-commands in insertion order.
func (r *Router) Children() []*Router {
	out := make([]*Router, len(r.children))
	copy(out, r.children)
	return out
}

// Child returns the first direct child whose name matches name
// case-insensitively.
func (r *Router) Child(name string) (*Router, bool) {
	for _, child := range r.children {
		if strings.EqualFold(child.name, name) {
			return child, true
		}
	}
	return nil, false
}

// AddChild appends child unless it is nil or the same instance is already
// registered. Rejected additions are logged and otherwise ignored.
func (r *Router) AddChild(child *Router) {
	if child == nil || r.hasChild(child) {
		r.logger.WithField("command", r.name).Warn("Subcommand already exists or subcommand list is null")
		return
	}
	r.children = append(r.children, child)
}

func (r *Router) hasChild(child *Router) bool {
	for _, c := range r.children {
		if c == child {
			return true
		}
	}
	return false
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch routes args to the deepest matching sub-command and runs its leaf
// execution. The first argument is matched against children by name,
// ignoring case; on a match the child is dispatched with the remainder. When
// nothing matches, this router's own leaf runs with the untruncated args.
func (r *Router) Dispatch(sender Sender, label string, args []string) bool {
	node, rest := r.Resolve(args)
	return node.executeSelf(sender, label, rest)
}

// Resolve performs the routing walk of Dispatch without executing anything.
// It returns the router whose leaf would run and the args it would receive.
func (r *Router) Resolve(args []string) (*Router, []string) {
	node := r
	for len(args) > 0 {
		child, ok := node.Child(args[0])
		if !ok {
			break
		}
		node = child
		args = args[1:]
	}
	if args == nil {
		args = []string{}
	}
	return node, args
}

func (r *Router) executeSelf(sender Sender, label string, args []string) bool {
	if r.execute == nil {
		return false
	}
	return r.execute(sender, label, args)
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete returns tab-completion candidates for args.
//
// With no args, or an empty first arg, it lists every direct child. With a
// single arg it filters direct children by prefix, falling back to the own
// completion hook when none match. With more args it hands the remainder to
// the child named by the first arg; terminal children answer from their own
// hook instead of recursing.
func (r *Router) Complete(sender Sender, label, alias string, args []string) []string {
	if len(args) == 0 {
		return r.childNames()
	}

	first := args[0]
	if first == "" {
		return r.childNames()
	}

	if len(args) == 1 {
		candidates := r.childNamesWithPrefix(first)
		if len(candidates) == 0 {
			return r.ownCompletions(sender, args)
		}
		return candidates
	}

	child, ok := r.Child(first)
	if !ok {
		return r.ownCompletions(sender, args)
	}

	rest := args[1:]
	if child.IsTerminal() && len(rest) > 0 {
		return child.ownCompletions(sender, rest)
	}
	return child.Complete(sender, label, alias, rest)
}

func (r *Router) ownCompletions(sender Sender, args []string) []string {
	if r.completions == nil {
		return []string{}
	}
	out := r.completions(sender, args)
	if out == nil {
		return []string{}
	}
	return out
}

func (r *Router) childNames() []string {
	names := make([]string, 0, len(r.children))
	for _, child := range r.children {
		names = append(names, child.name)
	}
	return names
}

func (r *Router) childNamesWithPrefix(prefix string) []string {
	prefix = strings.ToLower(prefix)
	names := make([]string, 0, len(r.children))
	for _, child := range r.children {
		if strings.HasPrefix(strings.ToLower(child.name), prefix) {
			names = append(names, child.name)
		}
	}
	return names
}

// =============================================================================
// TRAVERSAL
// =============================================================================

// Walk visits the tree depth-first in pre-order. path holds the names from
// the root down to r inclusive. Returning false from fn skips the node's
// children.
func (r *Router) Walk(fn func(path []string, r *Router) bool) {
	r.walk(nil, fn)
}

func (r *Router) walk(parent []string, fn func(path []string, r *Router) bool) {
	path := make([]string, len(parent)+1)
	copy(path, parent)
	path[len(parent)] = r.name
	if !fn(path, r) {
		return
	}
	for _, child := range r.children {
		child.walk(path, fn)
	}
}
