package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yegors/livescribe/pkg/logger"
)

// GeminiConfig holds the settings for LLM-backed translation
type GeminiConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
	BaseURL        string // Optional API base URL override
}

// GeminiProvider translates through a Gemini model, asking for a JSON array reply
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// NewGeminiProvider creates a Gemini translation provider
func NewGeminiProvider(ctx context.Context, config GeminiConfig, log *logger.Logger) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GeminiProvider{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  log.Named("gemini-translator"),
	}, nil
}

// Translate asks the model for one translated string per input, in order
func (p *GeminiProvider) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	input, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode texts: %w", err)
	}

	prompt := fmt.Sprintf(
		"Translate each string in the following JSON array from language %q to language %q. "+
			"Reply with a JSON array of the translated strings, same length and order, nothing else.\n%s",
		from, to, input)

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	response, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		p.logger.Warn("No content generated for translation")
		return []string{}, nil
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return parseTranslationArray(sb.String()), nil
}

// parseTranslationArray decodes a JSON array of strings. Anything else yields no results.
func parseTranslationArray(reply string) []string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	var out []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &out); err != nil {
		return []string{}
	}
	return out
}
