package agents

import (
	"strings"
	"testing"
)

func TestCountTools(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   int
	}{
		{"empty", "", 0},
		{"no mention", "nothing relevant here", 0},
		{"bare mention floors at one", "this tool looks promising", 1},
		{"directory entries", "Tool Name: Clay\nTool Name: Apollo\n## Tool Breakdown", 3},
		{"case insensitive", "TOOL NAME: Clay", 1},
	}
	for _, c := range cases {
		if got := CountTools(c.output); got != c.want {
			t.Errorf("%s: CountTools = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCountReleases(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   int
	}{
		{"empty", "", 0},
		{"no mention", "quiet week", 0},
		{"single halves to zero", "one feature shipped", 0},
		{"pairs", "feature one, feature two, release notes, released today", 2},
		{"capped at fifty", strings.Repeat("release ", 200), 50},
	}
	for _, c := range cases {
		if got := CountReleases(c.output); got != c.want {
			t.Errorf("%s: CountReleases = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCountPatterns(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   int
	}{
		{"empty", "", 0},
		{"no mention", "quiet week", 0},
		{"pairs", "trend one, pattern one, trend two, pattern two", 2},
		{"capped at ten", strings.Repeat("trend pattern ", 30), 10},
	}
	for _, c := range cases {
		if got := CountPatterns(c.output); got != c.want {
			t.Errorf("%s: CountPatterns = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestCounterSelection(t *testing.T) {
	if Counter(Scout) == nil || Counter(Tracker) == nil || Counter(Sage) == nil {
		t.Error("scout, tracker and sage should have counters")
	}
	for _, agent := range []string{Nexus, Language, HTML} {
		if Counter(agent) != nil {
			t.Errorf("%s should have no counter", agent)
		}
	}
}
