package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Secrets holds values that must never live in a settings file: bot tokens,
// mail passwords, fallback API keys. Sourced entirely from the environment.
type Secrets struct {
	TelegramBotToken  string
	TelegramChatID    string
	MailPassword      string
	FallbackAPIKey    string
	PrimaryBaseURLEnv string // optional override for the primary model base URL
}

// LoadSecrets reads the documented environment variables. Missing Telegram
// credentials are not an error here — the Notifier treats that as a no-op.
func LoadSecrets() Secrets {
	return Secrets{
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
		MailPassword:      getEnv("MAIL_PASSWORD", ""),
		FallbackAPIKey:    getEnv("FALLBACK_MODEL_API_KEY", ""),
		PrimaryBaseURLEnv: getEnv("PRIMARY_MODEL_BASE_URL", ""),
	}
}

// ProviderConfig describes one entry in the Model Client's fallback chain.
type ProviderConfig struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key,omitempty"`
}

// ScoringWeights is passed opaquely into the Scorer's prompt; the core never
// interprets its fields beyond formatting them into text.
type ScoringWeights map[string]float64

// Thresholds holds the Scorer/Notifier routing cutoffs, all configurable.
type Thresholds struct {
	ScoreThreshold   int `json:"score_threshold"`   // triggers tailoring
	InstantThreshold int `json:"instant_threshold"` // instant message + buttons
	DigestThreshold  int `json:"digest_threshold"`  // digest mail only
	LogThreshold     int `json:"log_threshold"`     // logged only, below this discarded
}

// KeywordConfig holds the three ordered keyword sequences.
type KeywordConfig struct {
	MustHaveAny      []string `json:"must_have_any"`
	MustNotHave      []string `json:"must_not_have"`
	TitleMustHaveAny []string `json:"title_must_have_any"`
}

// Settings is the root of settings.json.
type Settings struct {
	Weights             ScoringWeights `json:"scoring_weights"`
	Thresholds          Thresholds     `json:"thresholds"`
	GlobalKeywords      KeywordConfig  `json:"global_keywords"`
	PrimaryProvider     ProviderConfig `json:"primary_provider"`
	FallbackProvider    ProviderConfig `json:"fallback_provider"`
	ModelTimeout        time.Duration  `json:"-"`
	ModelTimeoutRaw     string         `json:"model_timeout"`
	MaxJSONRetries      int            `json:"max_json_retries"`
	DescriptionCharCap  int            `json:"description_char_cap"`
	WorkerCount         int            `json:"scrape_worker_count"`
	DataDir             string         `json:"data_dir"`
	OutputDir           string         `json:"output_dir"`
	LogDir              string         `json:"log_dir"`
	RendererURL         string         `json:"renderer_url"`
	MailSMTPHost        string         `json:"mail_smtp_host"`
	MailSMTPPort        int            `json:"mail_smtp_port"`
	MailFrom            string         `json:"mail_from"`
	MailTo              string         `json:"mail_to"`
	BrowserRenderURL    string         `json:"browser_render_url"`
}

// LoadSettings reads and validates settings.json.
func LoadSettings(path string) (*Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", "read settings file", err)
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse settings file", err)
	}

	if s.ModelTimeoutRaw == "" {
		s.ModelTimeout = 60 * time.Second
	} else {
		d, err := time.ParseDuration(s.ModelTimeoutRaw)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("invalid model_timeout %q", s.ModelTimeoutRaw), err)
		}
		s.ModelTimeout = d
	}
	if s.MaxJSONRetries <= 0 {
		s.MaxJSONRetries = 1
	}
	if s.DescriptionCharCap <= 0 {
		s.DescriptionCharCap = 8000
	}
	if s.WorkerCount <= 0 {
		s.WorkerCount = 5
	}
	if s.DataDir == "" {
		s.DataDir = "data"
	}
	if s.OutputDir == "" {
		s.OutputDir = "output"
	}
	if s.LogDir == "" {
		s.LogDir = "logs"
	}
	if s.Thresholds.InstantThreshold == 0 {
		s.Thresholds.InstantThreshold = 80
	}
	if s.Thresholds.DigestThreshold == 0 {
		s.Thresholds.DigestThreshold = 60
	}
	if s.Thresholds.LogThreshold == 0 {
		s.Thresholds.LogThreshold = 40
	}
	if s.Thresholds.ScoreThreshold == 0 {
		s.Thresholds.ScoreThreshold = s.Thresholds.DigestThreshold
	}
	if s.PrimaryProvider.BaseURL == "" {
		return nil, NewAppError("CONFIG_ERROR", "primary_provider.base_url is required", ErrInvalidInput)
	}
	return &s, nil
}

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
