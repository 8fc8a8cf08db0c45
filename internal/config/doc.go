// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// kcapi command host.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ShellConfig: Console prompt, history and color settings
//   - DispatchConfig: Command prefix, suggestions, normalization, cooldowns
//   - LogConfig: Log level, format and destination
//   - AuditConfig: Invocation log location and retention
//   - Store: Thread-safe holder for the active configuration
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (KCAPI_*)
//   - ~/.kcapi/config.toml
//   - ~/.kcapi/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, path, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Reload when the file changes:
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
