package agents

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildRouting(t *testing.T) {
	in := Input{DateRange: "Last 7 days", MonitoredTools: "Clay,Apollo"}
	cases := []struct {
		agent    string
		provider string
		model    string
	}{
		{Scout, "openai", "gpt-5.2"},
		{Tracker, "openai", "gpt-5.2"},
		{Sage, "anthropic", "claude-sonnet-4-6"},
		{Nexus, "anthropic", "claude-sonnet-4-6"},
		{Language, "openai", "gpt-5.2"},
		{HTML, "openai", "gpt-5.2"},
	}
	for _, c := range cases {
		inv, err := Build(c.agent, in)
		if err != nil {
			t.Fatalf("Build(%s): %v", c.agent, err)
		}
		if inv.Provider != c.provider || inv.Model != c.model {
			t.Errorf("%s routed to %s/%s, want %s/%s", c.agent, inv.Provider, inv.Model, c.provider, c.model)
		}
		if inv.SystemPrompt == "" {
			t.Errorf("%s produced empty prompt", c.agent)
		}
	}
}

func TestBuildUnknownAgent(t *testing.T) {
	if _, err := Build("oracle", Input{}); err == nil {
		t.Fatal("expected error for unknown agent")
	}
}

func TestScoutReferenceTruncation(t *testing.T) {
	ref := strings.Repeat("x", 9000)
	inv, err := Build(Scout, Input{DateRange: "Last 7 days", ReferenceContent: ref})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(inv.SystemPrompt, strings.Repeat("x", 5001)) {
		t.Error("reference content not truncated to 5000")
	}
	if !strings.Contains(inv.SystemPrompt, strings.Repeat("x", 5000)) {
		t.Error("truncated reference content missing from prompt")
	}
}

func TestTruncationCountsRunesNotBytes(t *testing.T) {
	// "é" is two bytes; cutting by bytes would both halve the kept
	// content and split the final rune
	scout := "x" + strings.Repeat("é", 18000)
	inv, err := Build(Sage, Input{DateRange: "Last 7 days", Outputs: map[string]string{Scout: scout}})
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(inv.SystemPrompt) {
		t.Fatal("sage prompt contains invalid UTF-8")
	}
	if !strings.Contains(inv.SystemPrompt, "x"+strings.Repeat("é", 14999)) {
		t.Error("truncation kept fewer than 15000 characters")
	}
	if strings.Contains(inv.SystemPrompt, strings.Repeat("é", 15000)) {
		t.Error("truncation kept more than 15000 characters")
	}
}

func TestScoutOmitsReferenceSectionWhenEmpty(t *testing.T) {
	inv, err := Build(Scout, Input{DateRange: "Last 7 days"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(inv.SystemPrompt, "already covered in a previous newsletter") {
		t.Error("reference section present without reference content")
	}
}

func TestSageUsesUpstreamOutputs(t *testing.T) {
	in := Input{Outputs: map[string]string{
		Scout:   "scout findings",
		Tracker: "tracker findings",
	}}
	inv, err := Build(Sage, in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(inv.SystemPrompt, "scout findings") {
		t.Error("scout output missing")
	}
	if !strings.Contains(inv.SystemPrompt, "tracker findings") {
		t.Error("tracker output missing")
	}
}

func TestSageDefaultsMissingInputs(t *testing.T) {
	inv, err := Build(Sage, Input{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(inv.SystemPrompt, "No tool search data available") {
		t.Error("missing scout placeholder")
	}
	if !strings.Contains(inv.SystemPrompt, "No release data available") {
		t.Error("missing tracker placeholder")
	}
}

func TestNexusTruncationLimits(t *testing.T) {
	in := Input{Outputs: map[string]string{
		Sage:    strings.Repeat("s", 20000),
		Tracker: strings.Repeat("t", 20000),
		Scout:   strings.Repeat("c", 20000),
	}}
	inv, err := Build(Nexus, in)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(inv.SystemPrompt, strings.Repeat("s", 15001)) {
		t.Error("sage output not truncated to 15000")
	}
	if strings.Contains(inv.SystemPrompt, strings.Repeat("t", 10001)) {
		t.Error("tracker output not truncated to 10000")
	}
	if strings.Contains(inv.SystemPrompt, strings.Repeat("c", 10001)) {
		t.Error("scout output not truncated to 10000")
	}
}

func TestHTMLFallsBackToNexus(t *testing.T) {
	inv, err := Build(HTML, Input{Outputs: map[string]string{Nexus: "assembled body"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(inv.SystemPrompt, "assembled body") {
		t.Error("html prompt should fall back to nexus output when language output is absent")
	}

	inv, err = Build(HTML, Input{Outputs: map[string]string{Nexus: "assembled body", Language: "refined body"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(inv.SystemPrompt, "refined body") {
		t.Error("html prompt should prefer language output")
	}
	if strings.Contains(inv.SystemPrompt, "assembled body") {
		t.Error("html prompt should not include nexus output when language output exists")
	}
}

func TestCustomInstructionsAppended(t *testing.T) {
	in := Input{DateRange: "Last 7 days", CustomInstructions: "Focus on EMEA launches only."}
	for _, agent := range []string{Scout, Tracker, Sage, Nexus} {
		inv, err := Build(agent, in)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(inv.SystemPrompt, "Focus on EMEA launches only.") {
			t.Errorf("%s prompt missing custom instructions", agent)
		}
	}
}

func TestUserPrompt(t *testing.T) {
	got := UserPrompt("Jan 1 - Jan 7")
	want := "Execute your task for the monitoring period: Jan 1 - Jan 7"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIndexOf(t *testing.T) {
	if IndexOf(Scout) != 0 {
		t.Error("scout should be first")
	}
	if IndexOf(HTML) != 5 {
		t.Error("html should be last")
	}
	if IndexOf("oracle") != -1 {
		t.Error("unknown agent should be -1")
	}
}
