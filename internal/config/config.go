package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port             string
	FrontendURL      string
	JWTSecret        string
	TokenTTL         time.Duration
	MongoURI         string
	MongoDB          string
	UserStore        string
	PostgresDSN      string
	RedisAddr        string
	RedisPassword    string
	LoginMaxAttempts int
	LoginLockout     time.Duration
	PostRoles        []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getenv("PORT", "5000"),
		FrontendURL:      getenv("FRONTEND_URL", "http://localhost:3000"),
		JWTSecret:        getenv("JWT_SECRET", ""),
		TokenTTL:         getduration("TOKEN_TTL", 7*24*time.Hour),
		MongoURI:         getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getenv("MONGO_DB", "campus_feed"),
		UserStore:        strings.ToLower(getenv("USER_STORE", "mongo")),
		PostgresDSN:      getenv("POSTGRES_DSN", ""),
		RedisAddr:        getenv("REDIS_ADDR", ""),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		LoginMaxAttempts: getint("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockout:     getduration("LOGIN_LOCKOUT", 15*time.Minute),
		PostRoles:        splitList(getenv("POST_ROLES", "")),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	switch c.UserStore {
	case "mongo":
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("config: POSTGRES_DSN is required when USER_STORE=postgres")
		}
	default:
		return errors.New("config: USER_STORE must be mongo or postgres")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
