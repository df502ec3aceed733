package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"text", FormatText, false},
		{"TXT", FormatText, false},
		{" json ", FormatJSON, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildExportChecksFormatBeforeEntries(t *testing.T) {
	_, err := buildExport("xml", exportInput{})
	if err == nil || errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("err = %v, want unsupported format", err)
	}

	_, err = buildExport("json", exportInput{})
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("err = %v, want ErrEmptyTranscript", err)
	}
}

func TestRenderTextHidesTranslationsWhenDisabled(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 5, 7, 0, time.UTC)
	in := exportInput{
		entries: []Entry{
			{ID: 1, Text: "good morning", Timestamp: ts, Translation: "bonjour"},
		},
		translation: TranslationState{Enabled: false, TargetLanguage: "fr"},
		location:    time.UTC,
		now:         ts,
	}

	exp, err := buildExport("text", in)
	if err != nil {
		t.Fatal(err)
	}
	if exp.Content != "[09:05:07] good morning" {
		t.Errorf("content = %q", exp.Content)
	}

	in.translation.Enabled = true
	exp, _ = buildExport("text", in)
	if exp.Content != "[09:05:07] good morning\n    [Français] bonjour" {
		t.Errorf("content = %q", exp.Content)
	}
}

func TestRenderJSONNullTargetWhenDisabled(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 5, 7, 0, time.UTC)
	exp, err := buildExport("json", exportInput{
		entries:     []Entry{{ID: 7, Text: "hi", Timestamp: ts}},
		state:       State{WordCount: 1},
		translation: TranslationState{TargetLanguage: "de"},
		language:    "en-GB",
		duration:    3725 * time.Second,
		now:         ts,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`"targetLanguage": null`,
		`"translationEnabled": false`,
		`"sessionDuration": "01:02:05"`,
		`"sourceLanguage": "en-GB"`,
		`"confidence": null`,
		`"exportTime": "2024-01-02T09:05:07.000Z"`,
	} {
		if !strings.Contains(exp.Content, want) {
			t.Errorf("JSON missing %s:\n%s", want, exp.Content)
		}
	}
	if strings.Contains(exp.Content, `"translation"`) {
		t.Error("entry without translation should omit the field")
	}
}

func TestCountWords(t *testing.T) {
	tests := map[string]int{
		"":                   0,
		"   ":                0,
		"one":                1,
		"  two   words ":     2,
		"tabs\tand\nnewline": 3,
	}
	for in, want := range tests {
		if got := CountWords(in); got != want {
			t.Errorf("CountWords(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{59*time.Second + 900*time.Millisecond, "00:00:59"},
		{time.Hour + 61*time.Second, "01:01:01"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
