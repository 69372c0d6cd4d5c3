package client

import (
	"context"

	"termagent/internal/config"
	"termagent/internal/logging"
	"termagent/internal/ratelimit"
	"termagent/internal/robustness"
)

// Tiered exposes the heavyweight and lightweight model chains. Each chain
// degrades on failure: heavy falls back to the light model, and both fall
// back to the optional local and secondary backends.
type Tiered struct {
	Heavy Client
	Light Client
}

// NewTiered builds the model chains from configuration. It returns
// ErrNoBackend when nothing is configured.
func NewTiered(ctx context.Context, cfg *config.Config) (*Tiered, error) {
	var hosted Client
	if cfg.OpenAI.APIKey != "" {
		oc, err := NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.OpenAI.APIKey,
			BaseURL:      cfg.OpenAI.BaseURL,
			DefaultModel: cfg.OpenAI.LightModel,
			Temperature:  cfg.OpenAI.Temperature,
			MaxTokens:    cfg.OpenAI.MaxTokens,
			Timeout:      cfg.OpenAI.Timeout,
		})
		if err != nil {
			return nil, err
		}
		hosted = harden(oc, cfg)
	}

	var extras []Client
	if cfg.Ollama.Enabled {
		oc, err := NewOllamaClient(OllamaConfig{
			BaseURL:     cfg.Ollama.Host,
			Model:       cfg.Ollama.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
		if err != nil {
			logging.Warn("ollama backend disabled", "error", err)
		} else {
			extras = append(extras, NewGuardedClient(oc, breaker(oc.Name(), cfg)))
		}
	}
	if cfg.Gemini.Enabled && cfg.Gemini.APIKey != "" {
		gc, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
		if err != nil {
			logging.Warn("gemini backend disabled", "error", err)
		} else {
			extras = append(extras, harden(gc, cfg))
		}
	}

	var heavy, light []Client
	if hosted != nil {
		heavy = append(heavy, WithModel(hosted, cfg.OpenAI.HeavyModel), WithModel(hosted, cfg.OpenAI.LightModel))
		light = append(light, WithModel(hosted, cfg.OpenAI.LightModel))
	}
	heavy = append(heavy, extras...)
	light = append(light, extras...)

	if len(light) == 0 {
		return nil, ErrNoBackend
	}

	heavyChain, err := NewFallbackClient(heavy...)
	if err != nil {
		return nil, err
	}
	lightChain, err := NewFallbackClient(light...)
	if err != nil {
		return nil, err
	}

	logging.Debug("model chains ready", "heavy", heavyChain.Name(), "light", lightChain.Name())
	return &Tiered{Heavy: heavyChain, Light: lightChain}, nil
}

// harden applies retry, circuit breaking and rate limiting to a hosted backend.
func harden(c Client, cfg *config.Config) Client {
	var out Client = NewRetryClient(c, RetryConfig{
		MaxRetries: cfg.Retry.MaxRetries,
		RetryDelay: cfg.Retry.RetryDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
	})
	out = NewGuardedClient(out, breaker(c.Name(), cfg))
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute > 0 {
		out = NewLimitedClient(out, ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))
	}
	return out
}

func breaker(name string, cfg *config.Config) *robustness.Breaker {
	return robustness.NewBreaker(name, cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeout).
		CountIf(func(err error) bool { return !IsRequestError(err) })
}
