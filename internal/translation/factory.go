package translation

import (
	"context"
	"fmt"

	"github.com/yegors/livescribe/internal/config"
	"github.com/yegors/livescribe/pkg/logger"
)

// NewProvider builds the provider selected by cfg.Provider
func NewProvider(ctx context.Context, cfg config.TranslationConfig, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "azure":
		return NewAzureProvider(AzureConfig{
			Endpoint:        cfg.Endpoint,
			SubscriptionKey: cfg.SubscriptionKey,
			Region:          cfg.Region,
			TimeoutSeconds:  cfg.TimeoutSeconds,
		}, log), nil
	case "gemini":
		p, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", cfg.Provider)
	}
}
