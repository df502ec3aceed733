package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yegors/livescribe/pkg/logger"
)

// ClientConfig is what a front-end needs to set up speech recognition and translation
type ClientConfig struct {
	SpeechKey             string `json:"speechKey"`
	SpeechRegion          string `json:"speechRegion"`
	Language              string `json:"language"`
	DefaultTargetLanguage string `json:"defaultTargetLanguage"`
}

// DefaultClientConfig returns the static fallbacks used when nothing else supplies a value
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		SpeechKey:             "",
		SpeechRegion:          DefaultSpeechRegion,
		Language:              DefaultSpeechLanguage,
		DefaultTargetLanguage: DefaultTargetLanguage,
	}
}

// ClientConfig returns the values served to front-ends through /api/config
func (c *Config) ClientConfig() ClientConfig {
	return ClientConfig{
		SpeechKey:             c.Speech.SubscriptionKey,
		SpeechRegion:          c.Speech.Region,
		Language:              c.Speech.Language,
		DefaultTargetLanguage: c.Translation.DefaultTargetLanguage,
	}
}

// ConfigFetchError reports a failed /api/config fetch. It is logged, never returned to callers of Resolve.
type ConfigFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ConfigFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config fetch from %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("config fetch from %s failed: HTTP %d", e.URL, e.StatusCode)
}

func (e *ConfigFetchError) Unwrap() error {
	return e.Err
}

// Provider resolves a ClientConfig from an override map, the server's /api/config and static defaults
type Provider struct {
	serverURL  string
	overrides  map[string]string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewProvider creates a provider. serverURL may be empty, in which case no fetch happens.
// overrides uses the environment variable names as keys (AZURE_SPEECH_SUBSCRIPTION_KEY etc).
func NewProvider(serverURL string, overrides map[string]string, log *logger.Logger) *Provider {
	return &Provider{
		serverURL: strings.TrimRight(serverURL, "/"),
		overrides: overrides,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.Named("config-provider"),
	}
}

// WithHTTPClient replaces the HTTP client used for the config fetch
func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.httpClient = client
	return p
}

// Resolve returns the client configuration. Each key comes from the override map first,
// then from a non-empty fetched value, then from the static default. It never fails.
func (p *Provider) Resolve(ctx context.Context) ClientConfig {
	resolved := DefaultClientConfig()

	if p.serverURL != "" {
		fetched, err := p.fetch(ctx)
		if err != nil {
			p.logger.Warn("Failed to load config from server, using defaults",
				logger.String("url", p.serverURL),
				logger.Error(err))
		} else {
			mergeNonEmpty(&resolved, fetched)
		}
	}

	p.applyOverrides(&resolved)

	p.logger.Debug("Resolved client config",
		logger.Bool("has_speech_key", resolved.SpeechKey != ""),
		logger.String("region", resolved.SpeechRegion),
		logger.String("language", resolved.Language),
		logger.String("default_target_language", resolved.DefaultTargetLanguage))

	return resolved
}

func (p *Provider) fetch(ctx context.Context) (ClientConfig, error) {
	url := p.serverURL + "/api/config"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ClientConfig{}, &ConfigFetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ClientConfig{}, &ConfigFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ClientConfig{}, &ConfigFetchError{URL: url, StatusCode: resp.StatusCode}
	}

	var cfg ClientConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return ClientConfig{}, &ConfigFetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return cfg, nil
}

func (p *Provider) applyOverrides(cfg *ClientConfig) {
	override := func(target *string, key string) {
		if v, ok := p.overrides[key]; ok && v != "" {
			*target = v
		}
	}
	override(&cfg.SpeechKey, EnvSpeechKey)
	override(&cfg.SpeechRegion, EnvSpeechRegion)
	override(&cfg.Language, EnvSpeechLanguage)
	override(&cfg.DefaultTargetLanguage, EnvDefaultTargetLanguage)
}

func mergeNonEmpty(dst *ClientConfig, src ClientConfig) {
	if src.SpeechKey != "" {
		dst.SpeechKey = src.SpeechKey
	}
	if src.SpeechRegion != "" {
		dst.SpeechRegion = src.SpeechRegion
	}
	if src.Language != "" {
		dst.Language = src.Language
	}
	if src.DefaultTargetLanguage != "" {
		dst.DefaultTargetLanguage = src.DefaultTargetLanguage
	}
}
