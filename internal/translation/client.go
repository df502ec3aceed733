package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yegors/livescribe/pkg/logger"
)

// DefaultDebounce is the quiet period before an interim translation is sent
const DefaultDebounce = 300 * time.Millisecond

var (
	String = logger.String
	Int    = logger.Int
	Error  = logger.Error
)

// Provider performs one translation request for an ordered batch of texts.
// The result may be shorter than texts when the response is missing items;
// a missing or empty item means "no translation".
type Provider interface {
	Translate(ctx context.Context, texts []string, from, to string) ([]string, error)
}

// Client holds the translation on/off state and the target language,
// and turns single, batch and interim requests into provider calls.
type Client struct {
	provider Provider
	clock    clock.Clock
	debounce time.Duration
	logger   *logger.Logger

	mu             sync.RWMutex
	enabled        bool
	targetLanguage string

	pendingMu sync.Mutex
	pending   *pendingTask
}

// Option configures a Client
type Option func(*Client)

// WithClock sets the clock used for debouncing
func WithClock(c clock.Clock) Option {
	return func(cl *Client) {
		cl.clock = c
	}
}

// WithDebounce sets the interim quiet period
func WithDebounce(d time.Duration) Option {
	return func(cl *Client) {
		if d >= 0 {
			cl.debounce = d
		}
	}
}

// NewClient creates a translation client. Translation starts disabled.
func NewClient(provider Provider, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		clock:    clock.New(),
		debounce: DefaultDebounce,
		logger:   log.Named("translation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTargetLanguage sets the target language; a non-empty code enables translation
func (c *Client) SetTargetLanguage(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetLanguage = code
	c.enabled = code != ""
}

// Disable turns translation off and clears the target language
func (c *Client) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
	c.targetLanguage = ""
}

// Enabled reports whether translation is on
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// TargetLanguage returns the current target language ("" when none)
func (c *Client) TargetLanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.targetLanguage
}

// SupportedLanguages returns the fixed language table
func (c *Client) SupportedLanguages() map[string]string {
	return SupportedLanguages()
}

func (c *Client) state() (bool, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled, c.targetLanguage
}

// TranslateText translates a single text from sourceLocale to the target language.
// ok is false when translation is disabled or text is blank. When the source
// language already is the target, text is returned without a provider call.
func (c *Client) TranslateText(ctx context.Context, text, sourceLocale string) (string, bool, error) {
	_, target := c.state()
	return c.TranslateTo(ctx, text, sourceLocale, target)
}

// TranslateTo is TranslateText with the target fixed by the caller, so a
// request keeps the language chosen when it was queued. ok is false when
// translation has been switched off since.
func (c *Client) TranslateTo(ctx context.Context, text, sourceLocale, target string) (string, bool, error) {
	enabled, _ := c.state()
	if !enabled || target == "" || strings.TrimSpace(text) == "" {
		return "", false, nil
	}

	from := ExtractLanguageCode(sourceLocale)
	if from == target {
		return text, true, nil
	}

	results, err := c.provider.Translate(ctx, []string{text}, from, target)
	if err != nil {
		return "", false, fmt.Errorf("translate %s->%s: %w", from, target, err)
	}
	if len(results) == 0 || results[0] == "" {
		c.logger.Debug("Translation response had no result, keeping original text",
			String("from", from),
			String("to", target))
		return text, true, nil
	}
	return results[0], true, nil
}

// BatchTranslate translates texts in one provider call. The result has the same
// length and order as texts, with "" for items the response did not cover.
// It returns an empty slice when translation is disabled or texts is empty.
func (c *Client) BatchTranslate(ctx context.Context, texts []string, sourceLocale string) ([]string, error) {
	enabled, target := c.state()
	if !enabled || target == "" || len(texts) == 0 {
		return []string{}, nil
	}

	from := ExtractLanguageCode(sourceLocale)
	if from == target {
		out := make([]string, len(texts))
		copy(out, texts)
		return out, nil
	}

	results, err := c.provider.Translate(ctx, texts, from, target)
	if err != nil {
		return nil, fmt.Errorf("batch translate %d texts %s->%s: %w", len(texts), from, target, err)
	}

	out := make([]string, len(texts))
	for i := range out {
		if i < len(results) {
			out[i] = results[i]
		}
	}
	return out, nil
}
