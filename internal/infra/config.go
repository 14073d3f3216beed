package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	AudioStrategySearch   = "search"
	AudioStrategyGenerate = "generate"
	AudioStrategyNone     = "none"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	FrontendOrigins []string

	VideosDir    string
	VideoBaseURL string
	TempDir      string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	ImageAPIKey  string
	ImageBaseURL string
	ImageEngine  string
	ImageTimeout time.Duration
	FrameDelay   time.Duration

	AudioStrategy    string
	FreesoundAPIKey  string
	FreesoundBaseURL string
	SearchTimeout    time.Duration
	MusicGenURL      string
	MusicGenTimeout  time.Duration

	FFmpegPath    string
	FFprobePath   string
	EncodeTimeout time.Duration

	ProgressTTL time.Duration

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	TrustProxy       bool
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		FrontendOrigins:  splitList(getEnv("FRONTEND_ORIGIN", "http://localhost:3000")),
		VideosDir:        getEnv("VIDEOS_DIR", "videos"),
		VideoBaseURL:     strings.TrimRight(getEnv("VIDEO_BASE_URL", "/videos"), "/"),
		TempDir:          getEnv("TEMP_DIR", os.TempDir()),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "videogen"),
		ImageAPIKey:      os.Getenv("IMAGE_API_KEY"),
		ImageBaseURL:     getEnv("IMAGE_BASE_URL", "https://api.stability.ai"),
		ImageEngine:      getEnv("IMAGE_ENGINE", "stable-diffusion-xl-1024-v1-0"),
		ImageTimeout:     getEnvSeconds("IMAGE_TIMEOUT_SECONDS", 60),
		FrameDelay:       time.Millisecond * time.Duration(getEnvInt("FRAME_DELAY_MS", 1000)),
		AudioStrategy:    strings.ToLower(getEnv("AUDIO_STRATEGY", AudioStrategySearch)),
		FreesoundAPIKey:  os.Getenv("FREESOUND_API_KEY"),
		FreesoundBaseURL: getEnv("FREESOUND_BASE_URL", "https://freesound.org"),
		SearchTimeout:    getEnvSeconds("SEARCH_TIMEOUT_SECONDS", 20),
		MusicGenURL:      os.Getenv("MUSICGEN_URL"),
		MusicGenTimeout:  getEnvSeconds("MUSICGEN_TIMEOUT_SECONDS", 300),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
		EncodeTimeout:    getEnvSeconds("ENCODE_TIMEOUT_SECONDS", 180),
		ProgressTTL:      time.Minute * time.Duration(getEnvInt("PROGRESS_TTL_MINUTES", 30)),
		LogFile:          os.Getenv("LOG_FILE"),
		LogMaxSizeMB:     getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:    getEnvInt("LOG_MAX_BACKUPS", 7),
		HTTPReadTimeout:  getEnvSeconds("HTTP_READ_TIMEOUT_SECONDS", 15),
		HTTPWriteTimeout: getEnvSeconds("HTTP_WRITE_TIMEOUT_SECONDS", 600),
		HTTPIdleTimeout:  getEnvSeconds("HTTP_IDLE_TIMEOUT_SECONDS", 60),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		TrustProxy:       getEnvBool("TRUST_PROXY", false),
	}

	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.AudioStrategy {
	case AudioStrategySearch, AudioStrategyNone:
	case AudioStrategyGenerate:
		if cfg.MusicGenURL == "" {
			return nil, fmt.Errorf("MUSICGEN_URL is required when AUDIO_STRATEGY=generate")
		}
	default:
		return nil, fmt.Errorf("unsupported AUDIO_STRATEGY %q", cfg.AudioStrategy)
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

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Second * time.Duration(getEnvInt(key, fallback))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
