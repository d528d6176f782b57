package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/sidegrid/gatekeep/internal/config"
)

type providerName string

const (
	providerOpenRouter providerName = "openrouter"
	providerClaude     providerName = "claude"
	providerOpenAI     providerName = "openai"
	providerDeepSeek   providerName = "deepseek"
	providerOllama     providerName = "ollama"
)

// All hosted providers speak an OpenAI-compatible API; only the base
// URL differs.
var providerBaseURLs = map[providerName]string{
	providerOpenRouter: "https://openrouter.ai/api/v1",
	providerClaude:     "https://api.anthropic.com/v1",
	providerDeepSeek:   "https://api.deepseek.com/v1",
}

// NewChatModel creates a ChatModel based on configuration.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	name, pcfg, err := resolveProvider(cfg)
	if err != nil {
		return nil, err
	}

	mcfg := &openai.ChatModelConfig{
		Model:       modelID(name, cfg.Review.Model),
		APIKey:      pcfg.APIKey,
		Temperature: toFloat32Ptr(cfg.Review.Temperature),
		MaxTokens:   toIntPtr(cfg.Review.MaxTokens),
	}

	switch {
	case name == providerOllama:
		baseURL := strings.TrimSuffix(pcfg.BaseURL, "/")
		mcfg.BaseURL = baseURL + "/v1"
	case pcfg.BaseURL != "":
		mcfg.BaseURL = pcfg.BaseURL
	default:
		mcfg.BaseURL = providerBaseURLs[name]
	}

	return openai.NewChatModel(ctx, mcfg)
}

// resolveProvider picks the provider mapped from the model prefix when
// it is configured, then falls back through the configured providers in
// a fixed order.
func resolveProvider(cfg *config.Config) (providerName, config.ProviderConfig, error) {
	p := cfg.Providers

	if name := providerFromModel(cfg.Review.Model); name != "" {
		if pcfg, ok := providerConfig(p, name); ok {
			return name, pcfg, nil
		}
	}

	for _, name := range []providerName{providerOpenRouter, providerClaude, providerOpenAI, providerDeepSeek, providerOllama} {
		if pcfg, ok := providerConfig(p, name); ok {
			return name, pcfg, nil
		}
	}

	return "", config.ProviderConfig{}, fmt.Errorf("no provider configured: set api_key for at least one provider (or base_url for ollama)")
}

// providerFromModel maps a model prefix like "openai/gpt-4o" to the
// provider that serves it.
func providerFromModel(modelName string) providerName {
	prefix, _, found := strings.Cut(modelName, "/")
	if !found {
		return ""
	}
	switch strings.ToLower(prefix) {
	case "openai":
		return providerOpenAI
	case "anthropic", "claude":
		return providerClaude
	case "deepseek":
		return providerDeepSeek
	case "ollama":
		return providerOllama
	case "openrouter":
		return providerOpenRouter
	default:
		return ""
	}
}

func providerConfig(p config.ProvidersConfig, name providerName) (config.ProviderConfig, bool) {
	switch name {
	case providerOpenRouter:
		return p.OpenRouter, p.OpenRouter.APIKey != ""
	case providerClaude:
		return p.Claude, p.Claude.APIKey != ""
	case providerOpenAI:
		return p.OpenAI, p.OpenAI.APIKey != ""
	case providerDeepSeek:
		return p.DeepSeek, p.DeepSeek.APIKey != ""
	case providerOllama:
		// Ollama is keyless; a base URL is what marks it configured.
		return p.Ollama, p.Ollama.BaseURL != ""
	default:
		return config.ProviderConfig{}, false
	}
}

// modelID strips the provider prefix for providers that expect a bare
// model name. OpenRouter routes on the full prefixed id.
func modelID(name providerName, modelName string) string {
	if name == providerOpenRouter {
		return modelName
	}
	_, rest, found := strings.Cut(modelName, "/")
	if found && providerFromModel(modelName) == name {
		return rest
	}
	return modelName
}

func toFloat32Ptr(f float64) *float32 {
	v := float32(f)
	return &v
}

func toIntPtr(i int) *int {
	return &i
}
