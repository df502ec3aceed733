package translation

import "fmt"

// TranslationError is returned when the translation endpoint answers with a non-success status
type TranslationError struct {
	StatusCode int
	Status     string
}

func (e *TranslationError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("translation API error: %s", e.Status)
	}
	return fmt.Sprintf("translation API error: %d", e.StatusCode)
}
