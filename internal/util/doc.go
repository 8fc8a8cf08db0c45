// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers shared by the shell
// and the help renderer.
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - StringWidth, PadRight, TruncateWidth: column-aware layout for CJK text
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
package util
