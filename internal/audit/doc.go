// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit keeps a SQLite log of dispatched command lines.
//
// The log sits outside the router: Middleware wraps the registry's handler
// chain and records who ran what, whether a leaf handled it, and how long it
// took. Router state itself is never persisted.
//
// Usage:
//
//	log, err := audit.Open(cfg.Audit.Path)
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//
//	reg := commands.NewRegistry(
//	    commands.WithMiddleware(audit.Middleware(log, cfg.Audit.Keep, logger)),
//	)
package audit
