// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Invocation is one command line on its way to a root router.
type Invocation struct {
	ID     uuid.UUID
	Sender Sender
	Label  string
	Args   []string
	Root   *Router
}

// Handler runs an invocation. The terminal handler is Root.Dispatch.
type Handler func(inv *Invocation) (bool, error)

// Middleware wraps a handler.
type Middleware func(next Handler) Handler

// chain applies middlewares so the first one given runs outermost.
func chain(h Handler, mws []Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithInvocationLogging logs every invocation at debug level.
func WithInvocationLogging(logger logrus.FieldLogger) Middleware {
	return func(next Handler) Handler {
		return func(inv *Invocation) (bool, error) {
			start := time.Now()
			handled, err := next(inv)

			entry := logger.WithFields(logrus.Fields{
				"invocation": inv.ID.String(),
				"sender":     senderName(inv.Sender),
				"label":      inv.Label,
				"args":       inv.Args,
				"handled":    handled,
				"elapsed":    time.Since(start),
			})
			if err != nil {
				entry.WithError(err).Debug("command failed")
			} else {
				entry.Debug("command dispatched")
			}
			return handled, err
		}
	}
}

// WithRecover converts a panic in a leaf hook into a PanicError.
func WithRecover(logger logrus.FieldLogger) Middleware {
	return func(next Handler) Handler {
		return func(inv *Invocation) (handled bool, err error) {
			defer func() {
				if v := recover(); v != nil {
					logger.WithFields(logrus.Fields{
						"invocation": inv.ID.String(),
						"label":      inv.Label,
					}).Errorf("recovered panic: %v", v)
					handled = false
					err = &PanicError{Label: inv.Label, Value: v}
				}
			}()
			return next(inv)
		}
	}
}

// WithCooldown limits each sender to limit invocations per second with the
// given burst. Senders are told apart by Name(). A zero or negative limit
// disables the middleware.
func WithCooldown(limit rate.Limit, burst int) Middleware {
	if limit <= 0 {
		return func(next Handler) Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(next Handler) Handler {
		return func(inv *Invocation) (bool, error) {
			name := senderName(inv.Sender)

			mu.Lock()
			lim, ok := limiters[name]
			if !ok {
				lim = rate.NewLimiter(limit, burst)
				limiters[name] = lim
			}
			mu.Unlock()

			res := lim.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				return false, &CooldownError{Sender: name, RetryAfter: delay}
			}
			return next(inv)
		}
	}
}

func senderName(s Sender) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
