package translation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yegors/livescribe/pkg/logger"
)

type providerCall struct {
	texts    []string
	from, to string
}

// fakeProvider returns "<to>:<text>" for each input unless results or err are set
type fakeProvider struct {
	mu      sync.Mutex
	calls   []providerCall
	results []string
	err     error
	called  chan providerCall
}

func (f *fakeProvider) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	call := providerCall{texts: append([]string(nil), texts...), from: from, to: to}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.called != nil {
		f.called <- call
	}

	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = to + ":" + t
	}
	return out, nil
}

func (f *fakeProvider) Calls() []providerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providerCall(nil), f.calls...)
}

func TestExtractLanguageCode(t *testing.T) {
	tests := map[string]string{
		"en-US":      "en",
		"EN-gb":      "en",
		"zh-Hans-CN": "zh",
		"fr":         "fr",
		"":           "",
	}
	for in, want := range tests {
		if got := ExtractLanguageCode(in); got != want {
			t.Errorf("ExtractLanguageCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageTable(t *testing.T) {
	if n := len(SupportedLanguages()); n != 29 {
		t.Errorf("got %d languages, want 29", n)
	}
	if got := LanguageDisplayName("es"); got != "Español" {
		t.Errorf("display name = %q", got)
	}
	if got := LanguageDisplayName("xx"); got != "xx" {
		t.Errorf("unknown code should fall back to itself, got %q", got)
	}
}

func TestSetTargetLanguageAndDisable(t *testing.T) {
	c := NewClient(&fakeProvider{}, logger.NewNop())
	if c.Enabled() {
		t.Fatal("client should start disabled")
	}

	c.SetTargetLanguage("es")
	if !c.Enabled() || c.TargetLanguage() != "es" {
		t.Fatalf("enabled=%v target=%q", c.Enabled(), c.TargetLanguage())
	}

	c.SetTargetLanguage("")
	if c.Enabled() {
		t.Error("empty target should disable translation")
	}

	c.SetTargetLanguage("fr")
	c.Disable()
	if c.Enabled() || c.TargetLanguage() != "" {
		t.Errorf("after Disable: enabled=%v target=%q", c.Enabled(), c.TargetLanguage())
	}
}

func TestTranslateTextCallsProviderOnce(t *testing.T) {
	fp := &fakeProvider{}
	c := NewClient(fp, logger.NewNop())
	c.SetTargetLanguage("es")

	got, ok, err := c.TranslateText(context.Background(), "hello world", "en-US")
	if err != nil || !ok {
		t.Fatalf("TranslateText: ok=%v err=%v", ok, err)
	}
	if got != "es:hello world" {
		t.Errorf("got %q", got)
	}

	calls := fp.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d provider calls, want 1", len(calls))
	}
	if calls[0].from != "en" || calls[0].to != "es" || calls[0].texts[0] != "hello world" {
		t.Errorf("unexpected call %+v", calls[0])
	}
}

func TestTranslateTextIdentityShortCircuit(t *testing.T) {
	fp := &fakeProvider{}
	c := NewClient(fp, logger.NewNop())
	c.SetTargetLanguage("en")

	got, ok, err := c.TranslateText(context.Background(), "hi", "en-US")
	if err != nil || !ok || got != "hi" {
		t.Fatalf("got %q ok=%v err=%v", got, ok, err)
	}
	if n := len(fp.Calls()); n != 0 {
		t.Errorf("identity translation made %d provider calls", n)
	}
}

func TestTranslateTextDisabledOrBlank(t *testing.T) {
	fp := &fakeProvider{}
	c := NewClient(fp, logger.NewNop())

	if _, ok, _ := c.TranslateText(context.Background(), "hello", "en-US"); ok {
		t.Error("disabled client should not translate")
	}

	c.SetTargetLanguage("es")
	if _, ok, _ := c.TranslateText(context.Background(), "   \t", "en-US"); ok {
		t.Error("blank text should not translate")
	}
	if n := len(fp.Calls()); n != 0 {
		t.Errorf("got %d provider calls, want 0", n)
	}
}

func TestTranslateTextFallsBackToOriginal(t *testing.T) {
	c := NewClient(&fakeProvider{results: []string{}}, logger.NewNop())
	c.SetTargetLanguage("es")

	got, ok, err := c.TranslateText(context.Background(), "hello", "en-US")
	if err != nil || !ok || got != "hello" {
		t.Errorf("got %q ok=%v err=%v, want original text", got, ok, err)
	}
}

func TestTranslateTextPropagatesTranslationError(t *testing.T) {
	c := NewClient(&fakeProvider{err: &TranslationError{StatusCode: 401, Status: "401 Unauthorized"}}, logger.NewNop())
	c.SetTargetLanguage("es")

	_, ok, err := c.TranslateText(context.Background(), "hello", "en-US")
	if ok {
		t.Error("failed translation should not be ok")
	}
	var te *TranslationError
	if !errors.As(err, &te) || te.StatusCode != 401 {
		t.Errorf("expected TranslationError 401, got %v", err)
	}
}

func TestBatchTranslatePreservesLengthAndOrder(t *testing.T) {
	fp := &fakeProvider{results: []string{"uno", ""}}
	c := NewClient(fp, logger.NewNop())
	c.SetTargetLanguage("es")

	got, err := c.BatchTranslate(context.Background(), []string{"one", "two", "three"}, "en-US")
	if err != nil {
		t.Fatalf("BatchTranslate: %v", err)
	}
	want := []string{"uno", "", ""}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if n := len(fp.Calls()); n != 1 {
		t.Errorf("got %d provider calls, want 1", n)
	}
}

func TestBatchTranslateShortCircuits(t *testing.T) {
	fp := &fakeProvider{}
	c := NewClient(fp, logger.NewNop())

	got, err := c.BatchTranslate(context.Background(), []string{"a"}, "en-US")
	if err != nil || len(got) != 0 {
		t.Errorf("disabled: got %v err=%v", got, err)
	}

	c.SetTargetLanguage("en")
	in := []string{"a", "b"}
	got, err = c.BatchTranslate(context.Background(), in, "en-GB")
	if err != nil || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("identity: got %v err=%v", got, err)
	}
	got[0] = "changed"
	if in[0] != "a" {
		t.Error("identity batch should return a copy")
	}

	c.SetTargetLanguage("es")
	got, err = c.BatchTranslate(context.Background(), nil, "en-US")
	if err != nil || len(got) != 0 {
		t.Errorf("empty input: got %v err=%v", got, err)
	}
	if n := len(fp.Calls()); n != 0 {
		t.Errorf("got %d provider calls, want 0", n)
	}
}

func TestTranslateToKeepsQueuedTarget(t *testing.T) {
	p := &fakeProvider{}
	c := NewClient(p, logger.NewNop())
	c.SetTargetLanguage("es")
	c.SetTargetLanguage("fr")

	got, ok, err := c.TranslateTo(context.Background(), "hello", "en-US", "es")
	if err != nil || !ok || got != "es:hello" {
		t.Fatalf("TranslateTo = %q, %v, %v", got, ok, err)
	}
	if calls := p.Calls(); len(calls) != 1 || calls[0].to != "es" {
		t.Errorf("calls = %+v", calls)
	}

	c.Disable()
	if _, ok, _ := c.TranslateTo(context.Background(), "hello", "en-US", "es"); ok {
		t.Error("TranslateTo should do nothing once translation is off")
	}
	if len(p.Calls()) != 1 {
		t.Error("disabled TranslateTo reached the provider")
	}
}
