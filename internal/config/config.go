package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variable names shared by the server and the browser/TUI clients
const (
	EnvSpeechKey             = "AZURE_SPEECH_SUBSCRIPTION_KEY"
	EnvSpeechRegion          = "AZURE_SPEECH_SERVICE_REGION"
	EnvSpeechLanguage        = "AZURE_SPEECH_LANGUAGE"
	EnvDefaultTargetLanguage = "DEFAULT_TARGET_LANGUAGE"
	EnvTranslatorKey         = "AZURE_TRANSLATOR_KEY"
	EnvTranslatorRegion      = "AZURE_TRANSLATOR_REGION"
	EnvGeminiAPIKey          = "GEMINI_API_KEY"
	EnvPort                  = "PORT"
	EnvNodeEnv               = "NODE_ENV"
	EnvEnvironment           = "LIVESCRIBE_ENV"
	EnvLogLevel              = "LOG_LEVEL"
	EnvGoogleCredentials     = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Fallback values used when neither the config file nor the environment sets a key
const (
	DefaultPort                  = 3000
	DefaultSpeechLanguage        = "en-US"
	DefaultSpeechRegion          = "eastus"
	DefaultTargetLanguage        = "es"
	DefaultTranslatorEndpoint    = "https://api.cognitive.microsofttranslator.com"
	DefaultGeminiModel           = "gemini-2.0-flash"
	DefaultInterimDebounceMs     = 300
	DefaultDurationTickMs        = 1000
	DefaultAudioLevelTickMs      = 100
	DefaultRecognitionSampleRate = 16000
)

// Config represents the main application configuration structure
type Config struct {
	Server      ServerConfig      `toml:"server"`      // HTTP server settings
	Logging     LoggingConfig     `toml:"logging"`     // Application logging settings
	Speech      SpeechConfig      `toml:"speech"`      // Speech service credentials handed to the page
	Translation TranslationConfig `toml:"translation"` // Translation provider settings
	Session     SessionConfig     `toml:"session"`     // Session controller timing
	Recognition RecognitionConfig `toml:"recognition"` // Server-side/TUI speech recognition engine
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (empty = all interfaces)
	Environment      string `toml:"environment"`           // "development" or "production"
	ForceHTTPS       bool   `toml:"force_https"`           // Redirect non-https requests in production (uses X-Forwarded-Proto)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory to serve the page from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// SpeechConfig contains the speech service settings exposed through /api/config
type SpeechConfig struct {
	SubscriptionKey string `toml:"subscription_key"` // Speech service subscription key
	Region          string `toml:"region"`           // Speech service region (e.g., "eastus")
	Language        string `toml:"language"`         // Recognition language (e.g., "en-US")
}

// TranslationConfig contains settings for the translation providers
type TranslationConfig struct {
	Provider              string `toml:"provider"`                // "azure" (default) or "gemini"
	Endpoint              string `toml:"endpoint"`                // Azure Translator endpoint
	SubscriptionKey       string `toml:"subscription_key"`        // Azure Translator key (defaults to the speech key)
	Region                string `toml:"region"`                  // Azure Translator region (defaults to the speech region)
	GeminiAPIKey          string `toml:"gemini_api_key"`          // API key for the Gemini provider
	GeminiModel           string `toml:"gemini_model"`            // Gemini model used for translation
	DefaultTargetLanguage string `toml:"default_target_language"` // Target language used when translation is toggled on without a choice
	InterimDebounceMs     int    `toml:"interim_debounce_ms"`     // Quiet period before translating interim text
	TimeoutSeconds        int    `toml:"timeout_seconds"`         // HTTP timeout for translation requests
}

// SessionConfig contains session controller timing settings
type SessionConfig struct {
	DurationTickMs           int `toml:"duration_tick_ms"`           // Session duration display refresh
	AudioLevelTickMs         int `toml:"audio_level_tick_ms"`        // Audio level sampling interval
	MicrophoneTimeoutSeconds int `toml:"microphone_timeout_seconds"` // How long to wait for a remote microphone grant
}

// RecognitionConfig contains settings for the streaming recognition engine used by the TUI client
type RecognitionConfig struct {
	Engine          string `toml:"engine"`           // "google"
	SampleRate      int    `toml:"sample_rate"`      // Capture sample rate in Hz
	CredentialsFile string `toml:"credentials_file"` // Google service account file (empty = application default credentials)
}

// Default returns a configuration with every fallback applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference.
// A missing file is not an error: every key has a documented fallback. Values from a .env file
// and the process environment override file values.
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	cfg := &Config{}
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err != nil {
			if preferredPath != "" && path == preferredPath {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			continue
		}
		loaded, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		cfg = loaded
		break
	}

	// .env is optional, like dotenv in local development
	_ = godotenv.Load()

	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()

	return cfg, nil
}

// ApplyEnv overrides configuration values with environment variables.
// lookup has the signature of os.LookupEnv so tests can inject their own environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(target *string, names ...string) {
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				*target = v
				return
			}
		}
	}

	if v, ok := lookup(EnvPort); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	set(&c.Server.Environment, EnvEnvironment, EnvNodeEnv)
	set(&c.Logging.Level, EnvLogLevel)
	set(&c.Speech.SubscriptionKey, EnvSpeechKey)
	set(&c.Speech.Region, EnvSpeechRegion)
	set(&c.Speech.Language, EnvSpeechLanguage)
	set(&c.Translation.DefaultTargetLanguage, EnvDefaultTargetLanguage)
	set(&c.Translation.SubscriptionKey, EnvTranslatorKey)
	set(&c.Translation.Region, EnvTranslatorRegion)
	set(&c.Translation.GeminiAPIKey, EnvGeminiAPIKey)
	set(&c.Recognition.CredentialsFile, EnvGoogleCredentials)
}

// applyDefaults fills every unset key with its fallback
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Server.ReadTimeoutSecs == 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.IdleTimeoutSecs == 0 {
		c.Server.IdleTimeoutSecs = 60
	}
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Speech.Language == "" {
		c.Speech.Language = DefaultSpeechLanguage
	}

	if c.Translation.Provider == "" {
		c.Translation.Provider = "azure"
	}
	if c.Translation.Endpoint == "" {
		c.Translation.Endpoint = DefaultTranslatorEndpoint
	}
	c.Translation.Endpoint = strings.TrimRight(c.Translation.Endpoint, "/")
	// The speech subscription key works for the translator too
	if c.Translation.SubscriptionKey == "" {
		c.Translation.SubscriptionKey = c.Speech.SubscriptionKey
	}
	if c.Translation.Region == "" {
		c.Translation.Region = c.Speech.Region
	}
	if c.Translation.Region == "" {
		c.Translation.Region = DefaultSpeechRegion
	}
	if c.Translation.GeminiModel == "" {
		c.Translation.GeminiModel = DefaultGeminiModel
	}
	if c.Translation.DefaultTargetLanguage == "" {
		c.Translation.DefaultTargetLanguage = DefaultTargetLanguage
	}
	if c.Translation.InterimDebounceMs == 0 {
		c.Translation.InterimDebounceMs = DefaultInterimDebounceMs
	}
	if c.Translation.TimeoutSeconds == 0 {
		c.Translation.TimeoutSeconds = 10
	}

	if c.Session.DurationTickMs == 0 {
		c.Session.DurationTickMs = DefaultDurationTickMs
	}
	if c.Session.AudioLevelTickMs == 0 {
		c.Session.AudioLevelTickMs = DefaultAudioLevelTickMs
	}
	if c.Session.MicrophoneTimeoutSeconds == 0 {
		c.Session.MicrophoneTimeoutSeconds = 30
	}

	if c.Recognition.Engine == "" {
		c.Recognition.Engine = "google"
	}
	if c.Recognition.SampleRate == 0 {
		c.Recognition.SampleRate = DefaultRecognitionSampleRate
	}
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	c.applyDefaults()

	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate translation config
	switch c.Translation.Provider {
	case "azure", "gemini":
	default:
		return fmt.Errorf("invalid translation provider: %s (must be 'azure' or 'gemini')", c.Translation.Provider)
	}
	if c.Translation.InterimDebounceMs < 0 {
		return fmt.Errorf("invalid interim_debounce_ms: %d (must be >= 0)", c.Translation.InterimDebounceMs)
	}
	if c.Translation.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid translation timeout_seconds: %d (must be >= 0)", c.Translation.TimeoutSeconds)
	}

	// Validate session config
	if c.Session.DurationTickMs < 0 || c.Session.AudioLevelTickMs < 0 {
		return fmt.Errorf("session tick intervals must be >= 0")
	}

	// Validate recognition config
	if c.Recognition.Engine != "google" {
		return fmt.Errorf("invalid recognition engine: %s (only 'google' is supported)", c.Recognition.Engine)
	}
	if c.Recognition.SampleRate <= 0 {
		return fmt.Errorf("invalid recognition sample_rate: %d", c.Recognition.SampleRate)
	}

	return c.ValidateKeys()
}

// ValidateKeys warns about missing credentials. Missing keys never stop the server:
// the page shows a status message when a service cannot be reached.
func (c *Config) ValidateKeys() error {
	if c.Speech.SubscriptionKey == "" {
		fmt.Printf("WARN: %s is not set - the page will not be able to start recognition\n", EnvSpeechKey)
	}
	if c.Translation.Provider == "azure" && c.Translation.SubscriptionKey == "" {
		fmt.Printf("WARN: No translator key configured - translation requests will fail\n")
	}
	if c.Translation.Provider == "gemini" && c.Translation.GeminiAPIKey == "" {
		fmt.Printf("WARN: Gemini translation selected but %s is not set\n", EnvGeminiAPIKey)
	}
	return nil
}
