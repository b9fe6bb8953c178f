// ABOUTME: Parsing and formatting helpers shared by CLI commands.
// ABOUTME: Set notation, short ids and column padding.
package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSet parses "REPSxKG" set notation, e.g. "5x102.5". A bare rep count
// means bodyweight (0 kg).
func parseSet(s string) (int, float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	repsPart, weightPart, hasWeight := strings.Cut(s, "x")

	reps, err := strconv.Atoi(repsPart)
	if err != nil || reps < 0 {
		return 0, 0, fmt.Errorf("invalid set %q (use REPSxKG, e.g. 5x100)", s)
	}
	if !hasWeight {
		return reps, 0, nil
	}

	weight, err := strconv.ParseFloat(weightPart, 64)
	if err != nil || weight < 0 {
		return 0, 0, fmt.Errorf("invalid set %q (use REPSxKG, e.g. 5x100)", s)
	}
	return reps, weight, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
