package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/livescribe/pkg/logger"
)

// AzureConfig holds the Azure Translator connection settings
type AzureConfig struct {
	Endpoint        string
	SubscriptionKey string
	Region          string
	TimeoutSeconds  int
}

// AzureProvider calls the Azure Translator v3 REST API
type AzureProvider struct {
	config     AzureConfig
	httpClient *http.Client
	logger     *logger.Logger
	newTraceID func() string
}

type azureRequestItem struct {
	Text string `json:"text"`
}

type azureResponseItem struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// NewAzureProvider creates a new Azure Translator client
func NewAzureProvider(config AzureConfig, log *logger.Logger) *AzureProvider {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	return &AzureProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     log.Named("azure-translator"),
		newTraceID: func() string { return uuid.New().String() },
	}
}

// Translate sends texts in a single request and returns the first translation of each item
func (p *AzureProvider) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	items := make([]azureRequestItem, len(texts))
	for i, text := range texts {
		items[i] = azureRequestItem{Text: text}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translation request: %w", err)
	}

	query := url.Values{}
	query.Set("api-version", "3.0")
	query.Set("from", from)
	query.Set("to", to)
	endpoint := fmt.Sprintf("%s/translate?%s", p.config.Endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create translation request: %w", err)
	}
	traceID := p.newTraceID()
	req.Header.Set("Ocp-Apim-Subscription-Key", p.config.SubscriptionKey)
	req.Header.Set("Ocp-Apim-Subscription-Region", p.config.Region)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ClientTraceId", traceID)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to translation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.Warn("Translation API returned non-OK status",
			logger.Int("status_code", resp.StatusCode),
			logger.String("trace_id", traceID),
			logger.String("body", string(detail)))
		return nil, &TranslationError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading translation response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("error decoding translation response: invalid JSON")
	}

	var parsed []azureResponseItem
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Valid JSON but not the documented array shape
		p.logger.Warn("Unexpected translation response shape",
			logger.String("trace_id", traceID),
			logger.Error(err))
		return []string{}, nil
	}

	results := make([]string, len(parsed))
	for i, item := range parsed {
		if len(item.Translations) > 0 {
			results[i] = item.Translations[0].Text
		}
	}

	p.logger.Debug("Translated",
		logger.Int("items", len(texts)),
		logger.String("from", from),
		logger.String("to", to),
		logger.Duration("took", time.Since(start)))

	return results, nil
}
