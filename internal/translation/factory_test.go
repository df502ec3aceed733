package translation

import (
	"context"
	"testing"

	"github.com/yegors/livescribe/internal/config"
	"github.com/yegors/livescribe/pkg/logger"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, config.TranslationConfig{Provider: "azure", Endpoint: "https://example.test/"}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	azure, ok := p.(*AzureProvider)
	if !ok {
		t.Fatalf("provider = %T, want *AzureProvider", p)
	}
	if azure.config.Endpoint != "https://example.test" {
		t.Errorf("endpoint = %q", azure.config.Endpoint)
	}

	if _, err := NewProvider(ctx, config.TranslationConfig{Provider: "gemini"}, logger.NewNop()); err == nil {
		t.Error("gemini without an API key should fail")
	}
	if _, err := NewProvider(ctx, config.TranslationConfig{Provider: "deepl"}, logger.NewNop()); err == nil {
		t.Error("unknown provider should fail")
	}
}
