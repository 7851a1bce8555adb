package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API server and supporting services.
type Config struct {
	ListenAddr     string
	LogLevel       string
	MySQLDSN       string
	FrontendURL    string
	AllowedOrigins []string
	CookieSecure   bool

	RequestTimeout time.Duration
	ProxyURL       string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	OTPTTL         time.Duration
	OTPMaxAttempts int

	BKashBaseURL     string
	BKashUsername    string
	BKashPassword    string
	BKashAppKey      string
	BKashAppSecret   string
	BKashCallbackURL string

	RunwareAPIKey  string
	RunwareBaseURL string
	RunwareModel   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	AppName      string
	SupportEmail string

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	const defaultBKashBaseURL = "https://tokenized.pay.bka.sh/v1.2.0-beta/tokenized/checkout"

	cfg := Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":"+getEnv("PORT", "4000")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		FrontendURL:        strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		CookieSecure:       getBool("COOKIE_SECURE", strings.EqualFold(os.Getenv("APP_ENV"), "production")),
		RequestTimeout:     getDuration("HTTP_TIMEOUT", 15*time.Second),
		ProxyURL:           os.Getenv("PROXY_URL"),
		AccessTokenTTL:     getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		OTPTTL:             getDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:     getInt("OTP_MAX_ATTEMPTS", 5),
		BKashBaseURL:       normalizeBaseURL(getEnv("BKASH_BASE_URL", defaultBKashBaseURL), defaultBKashBaseURL),
		BKashCallbackURL:   os.Getenv("BKASH_CALLBACK_URL"),
		RunwareBaseURL:     normalizeBaseURL(getEnv("RUNWARE_BASE_URL", "https://api.runware.ai/v1"), "https://api.runware.ai/v1"),
		RunwareModel:       getEnv("RUNWARE_MODEL", "runware:101@1"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		SMTPHost:           os.Getenv("EMAIL_HOST"),
		SMTPPort:           getInt("EMAIL_PORT", 587),
		SMTPUsername:       os.Getenv("EMAIL_USER"),
		SMTPPassword:       os.Getenv("EMAIL_PASS"),
		AppName:            getEnv("APP_NAME", "Tivoa Art"),
		SupportEmail:       getEnv("SUPPORT_EMAIL", "support@tivoaart.com"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Region:           os.Getenv("S3_REGION"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:     getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:           getEnv("S3_PREFIX", "generations"),
	}
	cfg.SMTPFrom = getEnv("EMAIL_FROM", cfg.SMTPUsername)
	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", cfg.FrontendURL))

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.JWTAccessSecret = os.Getenv("JWT_ACCESS_SECRET")
	cfg.JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	cfg.BKashUsername = os.Getenv("BKASH_USERNAME")
	cfg.BKashPassword = os.Getenv("BKASH_PASSWORD")
	cfg.BKashAppKey = os.Getenv("APP_KEY")
	cfg.BKashAppSecret = os.Getenv("APP_SECRET")
	cfg.RunwareAPIKey = os.Getenv("RUNWARE_API_KEY")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	required := []struct {
		key   string
		value string
	}{
		{"MYSQL_DSN", c.MySQLDSN},
		{"JWT_ACCESS_SECRET", c.JWTAccessSecret},
		{"JWT_REFRESH_SECRET", c.JWTRefreshSecret},
		{"BKASH_USERNAME", c.BKashUsername},
		{"BKASH_PASSWORD", c.BKashPassword},
		{"APP_KEY", c.BKashAppKey},
		{"APP_SECRET", c.BKashAppSecret},
		{"BKASH_CALLBACK_URL", c.BKashCallbackURL},
		{"RUNWARE_API_KEY", c.RunwareAPIKey},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	// S3 mirroring is optional, but a half-configured bucket is a mistake.
	if c.S3Bucket != "" {
		if c.S3Region == "" {
			missing = append(missing, "S3_REGION")
		}
		if c.S3AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
		if c.S3SecretKey == "" {
			missing = append(missing, "S3_SECRET_KEY")
		}
		if c.S3PublicBaseURL == "" {
			missing = append(missing, "S3_PUBLIC_BASE_URL")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleCallbackURL != ""
}

// MirrorEnabled reports whether generated images are copied to S3.
func (c Config) MirrorEnabled() bool {
	return c.S3Bucket != ""
}

// normalizeBaseURL defaults the scheme to https and drops a trailing slash.
func normalizeBaseURL(raw string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fallback
	}

	if parsed.Scheme == "" {
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return fallback
		}
	}
	if parsed.Host == "" {
		return fallback
	}

	return strings.TrimRight(parsed.String(), "/")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
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

func loadEnvFile() error {
	custom, explicit := os.LookupEnv("CONFIG_ENV_PATH")
	candidates := []string{}
	if explicit && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if explicit && custom != "" {
		return fmt.Errorf("env file not found; tried %v", candidates)
	}
	// Plain environment variables are enough in containers.
	return nil
}
