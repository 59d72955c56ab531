package main

import (
	"log"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PostKey       string
	ServerAddress string
	S3AccessKey   string
	S3SecretKey   string
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	CDNURL        string
	RootDir       string

	RenderSize          int
	RenderScale         int
	TextureMaxDimension int
	TextureFileRoot     string
	SessionTTL          time.Duration
}

// loadConfig reads $RENDERER_ROOT_DIR/.env if present, then the process
// environment.
func loadConfig() *Config {
	rootDir := getEnv("RENDERER_ROOT_DIR", "/var/www/renderer")
	_ = godotenv.Load(path.Join(rootDir, ".env"))

	return &Config{
		PostKey:       os.Getenv("POST_KEY"),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      os.Getenv("S3_REGION"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		CDNURL:        os.Getenv("CDN_URL"),
		RootDir:       rootDir,

		RenderSize:          getEnvInt("RENDER_SIZE", Dimensions),
		RenderScale:         getEnvInt("RENDER_SCALE", Scale),
		TextureMaxDimension: getEnvInt("TEXTURE_MAX_DIMENSION", 1024),
		TextureFileRoot:     os.Getenv("TEXTURE_FILE_ROOT"),
		SessionTTL:          getEnvDuration("SESSION_TTL", 15*time.Minute),
	}
}

// Helper to get environment variables with a default value.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: %s=%q is not a positive integer, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: %s=%q is not a valid duration, using %v", key, value, fallback)
		return fallback
	}
	return d
}
