// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps top-level labels to root routers. It is the boundary between
// raw command lines and the router tree: it parses, normalizes and looks up
// the label, and only ever hands the router non-nil argument slices.
type Registry struct {
	mu sync.RWMutex

	roots   []*Router
	labels  map[string]*Router // lower-case label -> root
	ordered []string           // labels in registration order, as given

	logger      logrus.FieldLogger
	prefix      string
	suggest     bool
	normalize   bool
	middlewares []Middleware
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registry diagnostics.
func WithRegistryLogger(logger logrus.FieldLogger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPrefix sets an optional leading token stripped from command lines.
func WithPrefix(prefix string) RegistryOption {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithSuggestions toggles "did you mean" suggestions for unknown labels.
func WithSuggestions(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.suggest = enabled
	}
}

// WithNormalization toggles NFKC folding of command lines.
func WithNormalization(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.normalize = enabled
	}
}

// WithMiddleware appends middlewares; the first runs outermost.
func WithMiddleware(mws ...Middleware) RegistryOption {
	return func(r *Registry) {
		r.middlewares = append(r.middlewares, mws...)
	}
}

// NewRegistry creates an empty registry. Suggestions and normalization are
// on by default.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		labels:    make(map[string]*Router),
		logger:    discardLogger(),
		suggest:   true,
		normalize: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register makes root reachable by its name and each alias. Nothing is
// registered if any label is empty or already taken.
func (r *Registry) Register(root *Router, aliases ...string) error {
	if root == nil || root.Name() == "" {
		return ErrEmptyLabel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	labels := append([]string{root.Name()}, aliases...)
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		key := strings.ToLower(label)
		if key == "" {
			return ErrEmptyLabel
		}
		if owner, ok := r.labels[key]; ok {
			return &DuplicateLabelError{Label: label, Owner: owner.Name()}
		}
		if seen[key] {
			return &DuplicateLabelError{Label: label, Owner: root.Name()}
		}
		seen[key] = true
	}

	for _, label := range labels {
		r.labels[strings.ToLower(label)] = root
		r.ordered = append(r.ordered, label)
	}
	r.roots = append(r.roots, root)

	r.logger.WithFields(logrus.Fields{
		"command": root.Name(),
		"aliases": aliases,
	}).Debug("registered command")
	return nil
}

// Unregister removes the root named name along with its aliases.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	root, ok := r.labels[strings.ToLower(name)]
	if !ok || !strings.EqualFold(root.Name(), name) {
		return false
	}

	for key, owner := range r.labels {
		if owner == root {
			delete(r.labels, key)
		}
	}
	ordered := r.ordered[:0]
	for _, label := range r.ordered {
		if _, still := r.labels[strings.ToLower(label)]; still {
			ordered = append(ordered, label)
		}
	}
	r.ordered = ordered

	for i, candidate := range r.roots {
		if candidate == root {
			r.roots = append(r.roots[:i], r.roots[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the root registered under label, ignoring case.
func (r *Registry) Lookup(label string) (*Router, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	root, ok := r.labels[strings.ToLower(label)]
	return root, ok
}

// Roots returns the registered roots in registration order.
func (r *Registry) Roots() []*Router {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Router, len(r.roots))
	copy(out, r.roots)
	return out
}

// Labels returns every name and alias in registration order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Prefix returns the configured command prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute parses line and dispatches it to the matching root. The boolean is
// the router's result; the error describes why nothing could be dispatched.
func (r *Registry) Execute(sender Sender, line string) (bool, error) {
	parsed := r.parse(line)
	if parsed.Label == "" {
		return false, ErrEmptyInput
	}

	root, ok := r.Lookup(parsed.Label)
	if !ok {
		return false, r.unknown(parsed.Label)
	}

	r.mu.RLock()
	mws := r.middlewares
	r.mu.RUnlock()

	inv := &Invocation{
		ID:     uuid.New(),
		Sender: sender,
		Label:  parsed.Label,
		Args:   parsed.Args,
		Root:   root,
	}
	handler := chain(func(inv *Invocation) (bool, error) {
		return inv.Root.Dispatch(inv.Sender, inv.Label, inv.Args), nil
	}, mws)
	return handler(inv)
}

// Resolve reports which router a line would reach and with which args,
// without running it.
func (r *Registry) Resolve(line string) (*Router, []string, error) {
	parsed := r.parse(line)
	if parsed.Label == "" {
		return nil, nil, ErrEmptyInput
	}
	root, ok := r.Lookup(parsed.Label)
	if !ok {
		return nil, nil, r.unknown(parsed.Label)
	}
	node, rest := root.Resolve(parsed.Args)
	return node, rest, nil
}

// UsageFor returns the usage line of the router line resolves to, spelled
// with canonical names (e.g. "pl ENABLE x" gives "plugin enable <name>").
func (r *Registry) UsageFor(line string) (string, error) {
	parsed := r.parse(line)
	if parsed.Label == "" {
		return "", ErrEmptyInput
	}
	root, ok := r.Lookup(parsed.Label)
	if !ok {
		return "", r.unknown(parsed.Label)
	}

	node, rest := root.Resolve(parsed.Args)
	path := []string{root.Name()}
	step := root
	for _, arg := range parsed.Args[:len(parsed.Args)-len(rest)] {
		step, _ = step.Child(arg)
		path = append(path, step.Name())
	}
	return UsageLine(path, node), nil
}

func (r *Registry) unknown(label string) error {
	err := &UnknownCommandError{Label: label}
	if r.suggest {
		err.Suggestion = SuggestName(label, r.Labels())
	}
	return err
}

func (r *Registry) parse(line string) ParsedLine {
	if r.normalize {
		line = Normalize(line)
	}
	return ParseLine(line, r.prefix)
}

// =============================================================================
// COMPLETION
// =============================================================================

// CompleteLine returns candidates for the token being typed at the end of
// line. While the label itself is being typed, registered labels are
// offered; afterwards the root router completes its arguments.
func (r *Registry) CompleteLine(sender Sender, line string) []string {
	parsed := r.parse(line)

	if parsed.Label == "" || (len(parsed.Args) == 0 && !parsed.TrailingSpace) {
		return r.completeLabels(parsed.Label)
	}

	root, ok := r.Lookup(parsed.Label)
	if !ok {
		return []string{}
	}

	args := parsed.Args
	if parsed.TrailingSpace {
		args = append(args, "")
	}
	return root.Complete(sender, root.Name(), parsed.Label, args)
}

func (r *Registry) completeLabels(partial string) []string {
	partial = strings.ToLower(partial)
	out := []string{}
	for _, label := range r.Labels() {
		if strings.HasPrefix(strings.ToLower(label), partial) {
			out = append(out, label)
		}
	}
	return out
}
