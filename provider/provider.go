package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/yoyo-gitroi/GTM-Newsletter/config"
	anthropic_provider "github.com/yoyo-gitroi/GTM-Newsletter/provider/anthropic"
	openai_provider "github.com/yoyo-gitroi/GTM-Newsletter/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Invoke(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.ProvidersConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key not set")
		}
		return openai_provider.NewOpenAIClient(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.OpenAI.Temperature,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Timeout,
		), nil
	case Anthropic:
		if cfg.Anthropic.APIKey == "" {
			return nil, errors.New("anthropic api key not set")
		}
		return anthropic_provider.NewAnthropicClient(
			cfg.Anthropic.APIKey,
			cfg.Anthropic.BaseURL,
			cfg.Anthropic.MaxTokens,
			cfg.Anthropic.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}

// Router dispatches invocations to the provider named by each agent.
type Router struct {
	providers map[Client]Provider
}

// NewRouter builds a router holding one client per configured provider.
func NewRouter(cfg config.ProvidersConfig) (*Router, error) {
	r := &Router{providers: make(map[Client]Provider)}
	for _, c := range []Client{OpenAI, Anthropic} {
		p, err := NewProvider(c, cfg)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", c, err)
		}
		r.providers[c] = p
	}
	return r, nil
}

// Invoke routes the call to the named provider.
func (r *Router) Invoke(ctx context.Context, providerName, model, systemPrompt, userPrompt string) (string, error) {
	p, ok := r.providers[Client(providerName)]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", providerName)
	}
	return p.Invoke(ctx, model, systemPrompt, userPrompt)
}
