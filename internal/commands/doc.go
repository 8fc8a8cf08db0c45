// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command tree router and its host-side
// registry.
//
// A Router is a named node owning an ordered list of sub-commands. It routes
// a flat argument list to the deepest matching child and produces tab
// completion candidates along the same path. The Registry sits in front of
// the routers: it parses raw command lines, maps top-level labels and
// aliases to roots, and runs invocations through middleware.
//
// # Key Types
//
//   - Router: Command tree node with Dispatch, Resolve and Complete
//   - Registry: Label table, line parsing, middleware chain
//   - Middleware: Invocation logging, cooldowns, panic recovery
//   - Kind: Recursive or terminal completion behavior
//
// # Usage
//
// Build a tree and dispatch a line:
//
//	plugin := commands.New("plugin", commands.WithChildren(
//	    commands.New("list", commands.WithExecutor(listPlugins)),
//	))
//	reg := commands.NewRegistry(commands.WithPrefix("/"))
//	_ = reg.Register(plugin, "pl")
//	handled, err := reg.Execute(sender, "/pl list")
//
// Get completions:
//
//	reg.CompleteLine(sender, "/plugin l")
//	// Returns ["list"]
package commands
