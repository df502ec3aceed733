package websocket

// Client to server message types
const (
	MessageTypeStart             = "start"
	MessageTypeStop              = "stop"
	MessageTypePause             = "pause"
	MessageTypeClear             = "clear"               // data: confirm
	MessageTypeExport            = "export"              // data: format; also the server reply
	MessageTypeSetTargetLanguage = "set_target_language" // data: language ("" disables)
	MessageTypeToggleTranslation = "toggle_translation"  // data: language (optional)
	MessageTypeMicrophone        = "microphone"          // data: granted, error, message
	MessageTypeAudioLevel        = "audio_level"         // data: level; also the server notification
	MessageTypeRecognizing       = "recognizing"         // data: text
	MessageTypeRecognized        = "recognized"          // data: text, json
	MessageTypeCanceled          = "canceled"            // data: reason, error_details
	MessageTypeSessionStopped    = "session_stopped"
)

// Server to client message types
const (
	MessageTypeState              = "state"
	MessageTypeTranslation        = "translation"
	MessageTypeEntryAdded         = "entry_added"
	MessageTypeEntryTranslated    = "entry_translated"
	MessageTypeTranslationFailed  = "translation_failed"
	MessageTypeInterim            = "interim"
	MessageTypeInterimTranslation = "interim_translation"
	MessageTypeDuration           = "duration"
	MessageTypeStatus             = "status"
	MessageTypeCleared            = "cleared"
	MessageTypeRequestMicrophone  = "request_microphone"
	MessageTypeReleaseMicrophone  = "release_microphone"
	MessageTypeRecognizer         = "recognizer" // data: action, language
	MessageTypeHello              = "hello"      // data: session_id, language, languages, translation
)

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func boolField(data map[string]any, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}

func floatField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
