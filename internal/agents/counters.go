package agents

import "strings"

// CountTools estimates how many tools a scout report mentions.
func CountTools(output string) int {
	if output == "" {
		return 0
	}
	lower := strings.ToLower(output)
	n := strings.Count(lower, "tool name") + strings.Count(lower, "## tool")
	if !strings.Contains(lower, "tool") {
		return 0
	}
	if n < 1 {
		return 1
	}
	return n
}

// CountReleases estimates how many releases a tracker report covers,
// capped at 50.
func CountReleases(output string) int {
	if output == "" {
		return 0
	}
	lower := strings.ToLower(output)
	n := strings.Count(lower, "feature") + strings.Count(lower, "release")
	if n == 0 {
		return 0
	}
	if n/2 > 50 {
		return 50
	}
	return n / 2
}

// CountPatterns estimates how many trends a sage analysis identifies,
// capped at 10.
func CountPatterns(output string) int {
	if output == "" {
		return 0
	}
	lower := strings.ToLower(output)
	n := strings.Count(lower, "trend") + strings.Count(lower, "pattern")
	if n == 0 {
		return 0
	}
	if n/2 > 10 {
		return 10
	}
	return n / 2
}

// Counter returns the count function for agents that derive a stored
// counter from their output, or nil.
func Counter(name string) func(string) int {
	switch name {
	case Scout:
		return CountTools
	case Tracker:
		return CountReleases
	case Sage:
		return CountPatterns
	}
	return nil
}
