package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	APIBaseURL         string
	LogLevel           string
	LogFormat          string
	DataDir            string
	ProgressFile       string
	TokenFile          string
	BlobDir            string
	FFMPEGPath         string
	FFProbePath        string
	ProbeTimeout       time.Duration
	TranscodeTimeout   time.Duration
	NarrowViewportPx   int
	CORSAllowedOrigins []string
}

func LoadConfig() Config {
	dataDir := getEnv("CINEMA_DATA_DIR", "data")
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		APIBaseURL:         getEnv("CINEMA_API_URL", "http://localhost:8000"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DataDir:            dataDir,
		ProgressFile:       getEnv("CINEMA_PROGRESS_FILE", filepath.Join(dataDir, "watch-progress.json")),
		TokenFile:          getEnv("CINEMA_TOKEN_FILE", filepath.Join(dataDir, "token")),
		BlobDir:            getEnv("CINEMA_BLOB_DIR", filepath.Join(dataDir, "blobs")),
		FFMPEGPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		FFProbePath:        getEnv("FFPROBE_PATH", "ffprobe"),
		ProbeTimeout:       getEnvDuration("CINEMA_PROBE_TIMEOUT", 10*time.Second),
		TranscodeTimeout:   getEnvDuration("CINEMA_TRANSCODE_TIMEOUT", 20*time.Minute),
		NarrowViewportPx:   int(getEnvInt64("CINEMA_NARROW_VIEWPORT_PX", 768)),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
