package translation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yegors/livescribe/pkg/logger"
)

func newTestAzure(t *testing.T, handler http.HandlerFunc) *AzureProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewAzureProvider(AzureConfig{
		Endpoint:        srv.URL + "/",
		SubscriptionKey: "test-key",
		Region:          "eastus",
	}, logger.NewNop())
	p.newTraceID = func() string { return "trace-1" }
	return p
}

func TestAzureTranslateRequest(t *testing.T) {
	var calls int
	p := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/translate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api-version") != "3.0" || q.Get("from") != "en" || q.Get("to") != "es" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "test-key" {
			t.Error("missing subscription key header")
		}
		if r.Header.Get("Ocp-Apim-Subscription-Region") != "eastus" {
			t.Error("missing subscription region header")
		}
		if r.Header.Get("X-ClientTraceId") != "trace-1" {
			t.Error("missing trace id header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("missing content type")
		}

		body, _ := io.ReadAll(r.Body)
		if string(body) != `[{"text":"hello world"}]` {
			t.Errorf("body = %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"translations":[{"text":"hola mundo","to":"es"}]}]`))
	})

	c := NewClient(p, logger.NewNop())
	c.SetTargetLanguage("es")

	got, ok, err := c.TranslateText(context.Background(), "hello world", "en-US")
	if err != nil || !ok || got != "hola mundo" {
		t.Fatalf("got %q ok=%v err=%v", got, ok, err)
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

func TestAzureBatchMissingItems(t *testing.T) {
	p := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		var items []map[string]string
		if err := json.NewDecoder(r.Body).Decode(&items); err != nil || len(items) != 3 {
			t.Errorf("decoded %v err=%v", items, err)
		}
		w.Write([]byte(`[{"translations":[{"text":"uno"}]},{"translations":[]}]`))
	})

	c := NewClient(p, logger.NewNop())
	c.SetTargetLanguage("es")

	got, err := c.BatchTranslate(context.Background(), []string{"one", "two", "three"}, "en-US")
	if err != nil {
		t.Fatalf("BatchTranslate: %v", err)
	}
	if len(got) != 3 || got[0] != "uno" || got[1] != "" || got[2] != "" {
		t.Errorf("got %q", got)
	}
}

func TestAzureNonSuccessStatus(t *testing.T) {
	p := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401000}}`, http.StatusUnauthorized)
	})

	_, err := p.Translate(context.Background(), []string{"hello"}, "en", "es")
	var te *TranslationError
	if !errors.As(err, &te) {
		t.Fatalf("expected TranslationError, got %v", err)
	}
	if te.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", te.StatusCode)
	}
}

func TestAzureUnexpectedShapeFallsBack(t *testing.T) {
	p := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	})

	c := NewClient(p, logger.NewNop())
	c.SetTargetLanguage("es")

	got, ok, err := c.TranslateText(context.Background(), "hello", "en-US")
	if err != nil || !ok || got != "hello" {
		t.Errorf("got %q ok=%v err=%v, want original text", got, ok, err)
	}
}

func TestAzureInvalidJSON(t *testing.T) {
	p := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})

	if _, err := p.Translate(context.Background(), []string{"hello"}, "en", "es"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
