package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yegors/livescribe/internal/translation"
)

// Export formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// Export is a serialized transcript ready to be saved
type Export struct {
	Format   string
	Filename string
	MimeType string
	Content  string
}

type exportInput struct {
	entries     []Entry
	state       State
	translation TranslationState
	language    string
	duration    time.Duration
	now         time.Time
	location    *time.Location
}

type jsonExport struct {
	ExportTime         string      `json:"exportTime"`
	SessionDuration    string      `json:"sessionDuration"`
	TotalWords         int         `json:"totalWords"`
	TranslatedWords    int         `json:"translatedWords"`
	SourceLanguage     string      `json:"sourceLanguage"`
	TargetLanguage     *string     `json:"targetLanguage"`
	TranslationEnabled bool        `json:"translationEnabled"`
	Entries            []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          int64    `json:"id"`
	Text        string   `json:"text"`
	Timestamp   string   `json:"timestamp"`
	Confidence  *float64 `json:"confidence"`
	Translation string   `json:"translation,omitempty"`
}

// NormalizeFormat maps accepted format names to FormatText or FormatJSON
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", format)
	}
}

func buildExport(format string, in exportInput) (Export, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return Export{}, err
	}
	if len(in.entries) == 0 {
		return Export{}, ErrEmptyTranscript
	}
	if in.location == nil {
		in.location = time.Local
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(in.now.UTC().Format(isoMillis))

	switch format {
	case FormatJSON:
		content, err := renderJSON(in)
		if err != nil {
			return Export{}, err
		}
		return Export{
			Format:   FormatJSON,
			Filename: "transcript_" + stamp + ".json",
			MimeType: "application/json",
			Content:  content,
		}, nil
	default:
		return Export{
			Format:   FormatText,
			Filename: "transcript_" + stamp + ".txt",
			MimeType: "text/plain",
			Content:  renderText(in),
		}, nil
	}
}

func renderText(in exportInput) string {
	blocks := make([]string, 0, len(in.entries))
	for _, e := range in.entries {
		line := fmt.Sprintf("[%s] %s", e.Timestamp.In(in.location).Format("15:04:05"), e.Text)
		if e.Translation != "" && in.translation.Enabled {
			language := e.translationLanguage
			if language == "" {
				language = in.translation.TargetLanguage
			}
			line += fmt.Sprintf("\n    [%s] %s", translation.LanguageDisplayName(language), e.Translation)
		}
		blocks = append(blocks, line)
	}
	return strings.Join(blocks, "\n\n")
}

func renderJSON(in exportInput) (string, error) {
	doc := jsonExport{
		ExportTime:         in.now.UTC().Format(isoMillis),
		SessionDuration:    FormatDuration(in.duration),
		TotalWords:         in.state.WordCount,
		TranslatedWords:    in.state.TranslatedWordCount,
		SourceLanguage:     in.language,
		TranslationEnabled: in.translation.Enabled,
		Entries:            make([]jsonEntry, 0, len(in.entries)),
	}
	if in.translation.Enabled {
		target := in.translation.TargetLanguage
		doc.TargetLanguage = &target
	}

	for _, e := range in.entries {
		doc.Entries = append(doc.Entries, jsonEntry{
			ID:          e.ID,
			Text:        e.Text,
			Timestamp:   e.Timestamp.UTC().Format(isoMillis),
			Confidence:  e.Confidence,
			Translation: e.Translation,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	return string(data), nil
}
