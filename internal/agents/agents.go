// Package agents defines the fixed newsletter generation pipeline: six
// specialized agents, each a pure prompt builder bound to an LLM provider
// and model. Agents hold no state and perform no I/O.
package agents

import "fmt"

const (
	Scout    = "scout"
	Tracker  = "tracker"
	Sage     = "sage"
	Nexus    = "nexus"
	Language = "language"
	HTML     = "html"
)

// Order is the canonical execution order of the pipeline.
var Order = []string{Scout, Tracker, Sage, Nexus, Language, HTML}

// Input carries everything a prompt builder may draw on. Outputs maps
// agent name to the raw output of an upstream agent.
type Input struct {
	DateRange          string
	CustomInstructions string
	MonitoredTools     string
	ReferenceContent   string
	Outputs            map[string]string
}

// Invocation is a fully built LLM call: which provider and model to hit
// and the system prompt to send.
type Invocation struct {
	SystemPrompt string
	Provider     string
	Model        string
}

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"

	modelOpenAI    = "gpt-5.2"
	modelAnthropic = "claude-sonnet-4-6"
)

// Known reports whether name is one of the six pipeline agents.
func Known(name string) bool {
	for _, a := range Order {
		if a == name {
			return true
		}
	}
	return false
}

// IndexOf returns the position of name in the pipeline order, or -1.
func IndexOf(name string) int {
	for i, a := range Order {
		if a == name {
			return i
		}
	}
	return -1
}

// Build constructs the invocation for the named agent from in.
func Build(name string, in Input) (Invocation, error) {
	switch name {
	case Scout:
		return Invocation{scoutPrompt(in), providerOpenAI, modelOpenAI}, nil
	case Tracker:
		return Invocation{trackerPrompt(in), providerOpenAI, modelOpenAI}, nil
	case Sage:
		return Invocation{sagePrompt(in), providerAnthropic, modelAnthropic}, nil
	case Nexus:
		return Invocation{nexusPrompt(in), providerAnthropic, modelAnthropic}, nil
	case Language:
		return Invocation{languagePrompt(in), providerOpenAI, modelOpenAI}, nil
	case HTML:
		return Invocation{htmlPrompt(in), providerOpenAI, modelOpenAI}, nil
	}
	return Invocation{}, fmt.Errorf("unknown agent %q", name)
}

// UserPrompt is the fixed user message sent with every invocation.
func UserPrompt(dateRange string) string {
	return fmt.Sprintf("Execute your task for the monitoring period: %s", dateRange)
}
