package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Provider credentials. Empty values are legal; the credential store
	// falls through to the secrets file, and each component decides whether
	// absence is fatal.
	OpenAIAPIKey     string
	PexelsAPIKey     string
	ElevenLabsAPIKey string
	SecretsFile      string

	OpenAIModel   string
	OpenAIBaseURL string

	PexelsBaseURL  string
	MaxSearchPages int

	ElevenLabsVoiceID string
	ElevenLabsBaseURL string
	TranslateTTSURL   string

	// Script sizing knobs. The truncation ratio is observed behavior, not a
	// tuned value; keep it configurable rather than hard-coded.
	WordsPerSecond float64
	TruncateRatio  float64

	TargetWidth   int
	TargetHeight  int
	CrossfadeSec  float64
	FrameRate     int
	VideoBitrate  string
	AudioBitrate  string
	FetchTimeout  time.Duration
	FetchParallel int

	WorkDir   string
	OutputDir string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		PexelsAPIKey:     os.Getenv("PEXELS_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		SecretsFile:      os.Getenv("SECRETS_FILE"),

		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		PexelsBaseURL:  getEnv("PEXELS_BASE_URL", "https://api.pexels.com/v1"),
		MaxSearchPages: getEnvInt("PEXELS_MAX_PAGES", 5),

		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
		TranslateTTSURL:   getEnv("TRANSLATE_TTS_URL", "https://translate.google.com/translate_tts"),

		WordsPerSecond: getEnvFloat("SCRIPT_WORDS_PER_SECOND", 2.5),
		TruncateRatio:  getEnvFloat("SCRIPT_TRUNCATE_RATIO", 1.2),

		TargetWidth:   getEnvInt("VIDEO_WIDTH", 1080),
		TargetHeight:  getEnvInt("VIDEO_HEIGHT", 1920),
		CrossfadeSec:  getEnvFloat("VIDEO_CROSSFADE_SECONDS", 0.4),
		FrameRate:     getEnvInt("VIDEO_FPS", 30),
		VideoBitrate:  getEnv("VIDEO_BITRATE", "2000k"),
		AudioBitrate:  getEnv("AUDIO_BITRATE", "192k"),
		FetchTimeout:  time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 60)),
		FetchParallel: getEnvInt("FETCH_PARALLELISM", 4),

		WorkDir:   getEnv("WORK_DIR", os.TempDir()),
		OutputDir: os.Getenv("OUTPUT_DIR"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
