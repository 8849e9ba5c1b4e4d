/*
Package configs loads the application's settings from environment variables.

An optional .env file in the working directory is loaded first; variables already set
in the environment take precedence over it. Development gets working defaults, other
environments must provide secrets and backend credentials explicitly.
*/
package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	MediaCloudinary = "cloudinary"
	MediaS3         = "s3"
)

// AppConfig contains every setting the service needs.
type AppConfig struct {
	// General server settings
	Environment string
	Port        int

	// Security settings
	AllowedOrigins  []string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool

	// Store settings
	StoreDriver   string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	// Media host settings
	MediaProvider       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	S3BucketName        string
	S3Endpoint          string
	S3AccessKeyID       string
	S3SecretAccessKey   string
	S3PublicBaseURL     string

	// Web push settings
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushWorkers     int

	// Redis fan-out settings; empty RedisAddr keeps rooms local to this process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// PushEnabled reports whether VAPID keys are configured.
func (c *AppConfig) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// LoadConfig reads .env (if present) and the process environment into an AppConfig.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv builds an AppConfig from the current environment only.
func FromEnv() (*AppConfig, error) {
	var err error
	cfg := &AppConfig{}

	// --- General ---
	cfg.Environment = getEnv("ENVIRONMENT", EnvDevelopment)
	dev := cfg.IsDevelopment()

	if cfg.Port, err = getEnvInt("PORT", 5000); err != nil {
		return nil, err
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (1024-65535)", cfg.Port)
	}

	// --- Security ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if !dev {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment", cfg.Environment)
		}
		cfg.JWTSecret = "dev_insecure_secret_change_me"
	}

	if cfg.AccessTokenTTL, err = getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL < cfg.AccessTokenTTL {
		return nil, fmt.Errorf("REFRESH_TOKEN_TTL (%s) must not be shorter than ACCESS_TOKEN_TTL (%s)", cfg.RefreshTokenTTL, cfg.AccessTokenTTL)
	}
	if cfg.CookieSecure, err = getEnvBool("COOKIE_SECURE", !dev); err != nil {
		return nil, err
	}

	// --- Store ---
	defaultDriver := ""
	if dev {
		defaultDriver = StoreMemory
	}
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", defaultDriver))
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	cfg.MongoURI = os.Getenv("MONGO_URI")
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", "lostfound")

	switch cfg.StoreDriver {
	case StoreMemory:
		if !dev {
			return nil, fmt.Errorf("STORE_DRIVER=%s is only allowed in development", StoreMemory)
		}
	case StorePostgres:
		if cfg.DatabaseDSN == "" {
			return nil, errors.New("DATABASE_URL environment variable is required for STORE_DRIVER=postgres")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI environment variable is required for STORE_DRIVER=mongo")
		}
	case "":
		return nil, fmt.Errorf("STORE_DRIVER environment variable is required in %s environment", cfg.Environment)
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	// --- Media ---
	cfg.MediaProvider = strings.ToLower(getEnv("MEDIA_PROVIDER", MediaCloudinary))
	cfg.CloudinaryCloudName = os.Getenv("CLOUDINARY_CLOUD_NAME")
	cfg.CloudinaryAPIKey = os.Getenv("CLOUDINARY_API_KEY")
	cfg.CloudinaryAPISecret = os.Getenv("CLOUDINARY_API_SECRET")
	cfg.CloudinaryFolder = getEnv("CLOUDINARY_FOLDER", "lost_items")
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.S3PublicBaseURL = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")

	switch cfg.MediaProvider {
	case MediaCloudinary:
		if err := requireAll(map[string]string{
			"CLOUDINARY_CLOUD_NAME": cfg.CloudinaryCloudName,
			"CLOUDINARY_API_KEY":    cfg.CloudinaryAPIKey,
			"CLOUDINARY_API_SECRET": cfg.CloudinaryAPISecret,
		}, dev); err != nil {
			return nil, err
		}
	case MediaS3:
		if err := requireAll(map[string]string{
			"S3_BUCKET_NAME":       cfg.S3BucketName,
			"S3_ENDPOINT":          cfg.S3Endpoint,
			"S3_ACCESS_KEY_ID":     cfg.S3AccessKeyID,
			"S3_SECRET_ACCESS_KEY": cfg.S3SecretAccessKey,
		}, dev); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported MEDIA_PROVIDER %q", cfg.MediaProvider)
	}

	// --- Web push ---
	cfg.VAPIDPublicKey = os.Getenv("VAPID_PUBLIC_KEY")
	// keys pasted from a single-line .env value may carry literal "\n"
	cfg.VAPIDPrivateKey = strings.ReplaceAll(os.Getenv("VAPID_PRIVATE_KEY"), `\n`, "\n")
	cfg.VAPIDSubject = getEnv("VAPID_SUBJECT", os.Getenv("VAPID_CLAIMS_EMAIL"))
	if cfg.PushWorkers, err = getEnvInt("PUSH_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.PushWorkers < 1 {
		return nil, fmt.Errorf("PUSH_WORKERS must be at least 1, got %d", cfg.PushWorkers)
	}

	// --- Redis ---
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// requireAll fails on the first empty value outside development. In development
// missing media credentials are tolerated; uploads fail at request time instead.
func requireAll(values map[string]string, dev bool) error {
	if dev {
		return nil
	}
	for name, v := range values {
		if v == "" {
			return fmt.Errorf("%s environment variable is required", name)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return v, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
