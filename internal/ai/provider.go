package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/rs/zerolog"
)

// ErrAllProvidersFailed is returned when every configured provider errored.
var ErrAllProvidersFailed = errors.New("all AI providers failed")

// ErrNoProviderConfigured is returned when no provider has an API key.
var ErrNoProviderConfigured = errors.New("no AI provider configured")

// Provider is a single text-generation backend. Implementations are thin
// HTTP clients; prompt content and response policy live in the callers.
type Provider interface {
	Name() string
	Configured() bool
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Generator fans a request across an ordered provider list:
// first success wins, unconfigured providers are skipped, and the caller
// sees a single aggregated error only when every provider has failed.
type Generator struct {
	providers []Provider
	log       zerolog.Logger
}

// NewGenerator builds the default provider chain (OpenAI, then Groq, then
// Gemini) from configuration.
func NewGenerator(cfg *config.Config, log zerolog.Logger) *Generator {
	return NewGeneratorWithProviders(log,
		newOpenAIProvider(cfg.OpenAIAPIKey),
		newGroqProvider(cfg.GroqAPIKey),
		newGeminiProvider(cfg.GeminiAPIKey),
	)
}

// NewGeneratorWithProviders builds a Generator over an explicit chain.
// Priority is the argument order.
func NewGeneratorWithProviders(log zerolog.Logger, providers ...Provider) *Generator {
	return &Generator{
		providers: providers,
		log:       log.With().Str("component", "ai_generator").Logger(),
	}
}

// Generate runs the fallback chain for a prompt.
func (g *Generator) Generate(ctx context.Context, prompt, system string) (string, error) {
	var errs []error
	configured := 0

	for _, p := range g.providers {
		if !p.Configured() {
			g.log.Debug().Str("provider", p.Name()).Msg("Skipping provider, API key not configured")
			continue
		}
		configured++

		text, err := p.Generate(ctx, prompt, system)
		if err != nil {
			g.log.Warn().Err(err).Str("provider", p.Name()).Msg("Provider failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		g.log.Debug().Str("provider", p.Name()).Msg("Generated response")
		return text, nil
	}

	if configured == 0 {
		return "", ErrNoProviderConfigured
	}
	return "", fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}
