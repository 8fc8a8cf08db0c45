// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/util"
)

const (
	// pruneEvery is how many records pass between retention sweeps.
	pruneEvery = 100

	// maxErrRunes caps the stored error message.
	maxErrRunes = 500
)

// Middleware records every invocation in l after it has run. keep bounds
// how many entries are retained (0 = unlimited). Write failures are logged
// and never change the command's result.
func Middleware(l *Log, keep int, logger logrus.FieldLogger) commands.Middleware {
	var recorded atomic.Int64

	return func(next commands.Handler) commands.Handler {
		return func(inv *commands.Invocation) (bool, error) {
			start := time.Now()
			handled, err := next(inv)

			e := Entry{
				ID:      inv.ID.String(),
				Label:   inv.Label,
				Args:    inv.Args,
				Handled: handled,
				Elapsed: time.Since(start),
				At:      start,
			}
			if inv.Sender != nil {
				e.Sender = inv.Sender.Name()
			}
			if err != nil {
				e.Err = util.TruncateRunes(err.Error(), maxErrRunes)
			}

			ctx := context.Background()
			if recErr := l.Record(ctx, e); recErr != nil {
				logger.WithError(recErr).WithField("invocation", e.ID).Warn("failed to record invocation")
			} else if keep > 0 && recorded.Add(1)%pruneEvery == 0 {
				if _, pruneErr := l.Prune(ctx, keep); pruneErr != nil {
					logger.WithError(pruneErr).Warn("failed to prune audit log")
				}
			}
			return handled, err
		}
	}
}
