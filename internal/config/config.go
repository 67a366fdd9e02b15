package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	StorageDriver string // local | s3
	UploadDir     string
	PublicBaseURL string
	MaxUploadMB   int64
	S3            S3Config

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	GeminiAPIKey string
	LLMModel     string

	LoginRatePerMin int
	StatsInterval   time.Duration
	RecommendConfig string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	// A missing .env is fine: containers get their values from the environment.
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		Env:           str("APP_ENV", "development"),
		Port:          str("PORT", "8080"),
		DBDriver:      str("DB_DRIVER", "postgres"),
		DatabaseURL:   str("DATABASE_URL", ""),
		JWTSecret:     str("JWT_SECRET", ""),
		CORSOrigins:   list("CORS_ORIGINS", "*"),
		StorageDriver: str("STORAGE_DRIVER", "local"),
		UploadDir:     str("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: strings.TrimRight(str("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		S3: S3Config{
			Bucket:          str("S3_BUCKET", ""),
			Region:          str("S3_REGION", "ap-northeast-1"),
			Endpoint:        str("S3_ENDPOINT", ""),
			PublicURL:       strings.TrimRight(str("S3_PUBLIC_URL", ""), "/"),
			AccessKeyID:     str("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: str("S3_SECRET_ACCESS_KEY", ""),
		},
		RedisAddr:       str("REDIS_ADDR", ""),
		RedisPassword:   str("REDIS_PASSWORD", ""),
		RedisChannel:    str("REDIS_CHANNEL", "jobportal:chat"),
		GeminiAPIKey:    str("GEMINI_API_KEY", ""),
		LLMModel:        str("LLM_MODEL", "gemini-2.5-flash"),
		RecommendConfig: str("RECOMMEND_CONFIG", ""),
	}

	var err error
	if cfg.JWTTTL, err = duration("JWT_TTL", 72*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.StatsInterval, err = duration("STATS_INTERVAL", time.Hour); err != nil {
		errs = append(errs, err)
	}
	var mb int
	if mb, err = integer("MAX_UPLOAD_MB", 10); err != nil {
		errs = append(errs, err)
	}
	cfg.MaxUploadMB = int64(mb)
	if cfg.LoginRatePerMin, err = integer("LOGIN_RATE_PER_MIN", 10); err != nil {
		errs = append(errs, err)
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == "sqlite" {
		cfg.DatabaseURL = "file:jobportal.db?_pragma=foreign_keys(1)"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			str("DB_HOST", "localhost"),
			str("DB_USER", "postgres"),
			str("DB_PASSWORD", "password"),
			str("DB_NAME", "jobportal"),
			str("DB_PORT", "5432"),
			str("DB_SSLMODE", "disable"),
		)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsDevelopment() {
			cfg.JWTSecret = "dev-secret-change-me"
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		}
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver))
	}
	switch cfg.StorageDriver {
	case "local":
	case "s3":
		if cfg.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver))
	}

	return cfg, errors.Join(errs...)
}

func str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func list(key, def string) []string {
	var out []string
	for _, p := range strings.Split(str(key, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func integer(key string, def int) (int, error) {
	v := str(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	return n, nil
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := str(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("%s: expected a positive duration, got %q", key, v)
	}
	return d, nil
}
