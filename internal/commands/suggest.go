// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Command name suggestion for typo correction.
package commands

import (
	"strings"
)

// SuggestName returns the candidate closest to input, or "" when nothing is
// close enough. Comparison ignores case. The accepted edit distance grows
// with the input length: 1 for up to 3 characters, 2 up to 8, 3 beyond.
func SuggestName(input string, candidates []string) string {
	input = strings.ToLower(input)

	// Don't suggest for very short inputs (likely intentional)
	if len(input) < 2 {
		return ""
	}

	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	bestMatch := ""
	bestDistance := -1

	for _, candidate := range candidates {
		distance := levenshteinDistance(input, strings.ToLower(candidate))

		if distance == 0 {
			return ""
		}

		if distance <= maxDistance && (bestDistance == -1 || distance < bestDistance) {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	return bestMatch
}

// levenshteinDistance calculates the edit distance between two strings.
// This is the minimum number of single-character edits (insertions, deletions,
// or substitutions) required to change one string into the other.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	cols := len(s2) + 1

	// Two rows instead of the full matrix
	prev := make([]int, cols)
	curr := make([]int, cols)

	for j := 0; j < cols; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i

		for j := 1; j < cols; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[cols-1]
}
