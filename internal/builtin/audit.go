// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/karasu256/kcapi/internal/audit"
	"github.com/karasu256/kcapi/internal/commands"
	"github.com/karasu256/kcapi/internal/util"
)

const defaultAuditLimit = 10

func (b *builtins) auditCommand() *commands.Router {
	log := b.deps.Audit

	recent := b.node("recent",
		commands.Terminal(),
		commands.WithDescription("Show the latest invocations"),
		commands.WithUsage("[count]"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			limit, ok := parseLimit(args)
			if !ok {
				return false
			}
			entries, err := log.Recent(context.Background(), limit)
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			b.deps.Out.Print(formatEntries(entries))
			return true
		}),
	)

	bySender := b.node("sender",
		commands.Terminal(),
		commands.WithDescription("Show the latest invocations of one sender"),
		commands.WithUsage("<name> [count]"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) == 0 {
				return false
			}
			limit, ok := parseLimit(args[1:])
			if !ok {
				return false
			}
			entries, err := log.BySender(context.Background(), args[0], limit)
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			b.deps.Out.Print(formatEntries(entries))
			return true
		}),
	)

	count := b.node("count",
		commands.WithDescription("Count recorded invocations"),
		commands.WithExecutor(func(_ commands.Sender, _ string, args []string) bool {
			if len(args) != 0 {
				return false
			}
			n, err := log.Count(context.Background())
			if err != nil {
				b.deps.Out.Error(err)
				return true
			}
			b.printf("%d invocations recorded", n)
			return true
		}),
	)

	return b.node("audit",
		commands.WithDescription("Browse the invocation log"),
		commands.WithChildren(recent, bySender, count),
	)
}

func parseLimit(args []string) (int, bool) {
	switch len(args) {
	case 0:
		return defaultAuditLimit, true
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func formatEntries(entries []audit.Entry) string {
	if len(entries) == 0 {
		return "no invocations recorded"
	}

	senderWidth := 0
	for _, e := range entries {
		senderWidth = max(senderWidth, util.StringWidth(e.Sender))
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		status := "ok"
		switch {
		case e.Failed():
			status = "error: " + util.TruncateWidth(e.Err, 40)
		case !e.Handled:
			status = "usage"
		}
		line := strings.TrimSpace(e.Label + " " + strings.Join(e.Args, " "))
		lines[i] = fmt.Sprintf("%s  %s  %s  %s",
			e.At.Format(time.DateTime),
			util.PadRight(e.Sender, senderWidth),
			util.PadRight(util.TruncateWidth(line, 40), 40),
			status,
		)
	}
	return strings.Join(lines, "\n")
}
