package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default YAML config location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML with environment
// overrides. A .env file in the working directory is honored when present.
type FileConfig struct {
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	PetAPIBaseURL string `yaml:"petApiBaseUrl"`
	AllowedOrigin string `yaml:"allowedOrigin"`
	MapAPIKey     string `yaml:"mapApiKey"`

	CookieDomain        string `yaml:"cookieDomain"`
	CookieSecure        bool   `yaml:"cookieSecure"`
	CookieMaxAgeSeconds int    `yaml:"cookieMaxAgeSeconds"`

	ServiceTokenSecret   string `yaml:"serviceTokenSecret"`
	ServiceTokenIssuer   string `yaml:"serviceTokenIssuer"`
	ServiceTokenAudience string `yaml:"serviceTokenAudience"`
	ServiceTokenTTL      string `yaml:"serviceTokenTTL"`

	RedisAddr         string   `yaml:"redisAddr"`
	RedisPassword     string   `yaml:"redisPassword"`
	TrustedProxyCIDRs []string `yaml:"trustedProxyCidrs"`

	RegisterRateLimitPerMinute int `yaml:"registerRateLimitPerMinute"`
	LoginRateLimitPerMinute    int `yaml:"loginRateLimitPerMinute"`
	ReviewRateLimitPerMinute   int `yaml:"reviewRateLimitPerMinute"`
	FavoriteRateLimitPerMinute int `yaml:"favoriteRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	_ = godotenv.Load()

	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("WANPARADISE_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_PET_API_BASE_URL"); v != "" {
		cfg.PetAPIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_ALLOWED_ORIGIN"); v != "" {
		cfg.AllowedOrigin = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_MAP_API_KEY"); v != "" {
		cfg.MapAPIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_COOKIE_DOMAIN"); v != "" {
		cfg.CookieDomain = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.CookieSecure = b
		}
	}
	if v := os.Getenv("WANPARADISE_COOKIE_MAX_AGE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.CookieMaxAgeSeconds = n
		}
	}
	if v := os.Getenv("WANPARADISE_SERVICE_TOKEN_SECRET"); v != "" {
		cfg.ServiceTokenSecret = v
	}
	if v := os.Getenv("WANPARADISE_SERVICE_TOKEN_ISSUER"); v != "" {
		cfg.ServiceTokenIssuer = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_SERVICE_TOKEN_AUDIENCE"); v != "" {
		cfg.ServiceTokenAudience = strings.TrimSpace(v)
	}
	if v := os.Getenv("WANPARADISE_SERVICE_TOKEN_TTL"); v != "" {
		cfg.ServiceTokenTTL = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("WANPARADISE_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("WANPARADISE_REGISTER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegisterRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("WANPARADISE_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("WANPARADISE_REVIEW_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReviewRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("WANPARADISE_FAVORITE_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FavoriteRateLimitPerMinute = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.PetAPIBaseURL) == "" {
		return errors.New("config: petApiBaseUrl is required (set in config.yaml or WANPARADISE_PET_API_BASE_URL)")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for distributed rate limiting")
	}
	if cfg.RegisterRateLimitPerMinute < 0 || cfg.LoginRateLimitPerMinute < 0 || cfg.ReviewRateLimitPerMinute < 0 || cfg.FavoriteRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if cfg.ServiceTokenSecret != "" && strings.TrimSpace(cfg.ServiceTokenIssuer) == "" {
		return errors.New("config: serviceTokenIssuer is required when serviceTokenSecret is set")
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseServiceTokenTTL parses the optional service token lifetime.
func ParseServiceTokenTTL(ttl string) (time.Duration, error) {
	if ttl == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttl)
	if err != nil {
		return 0, fmt.Errorf("invalid serviceTokenTTL duration: %w", err)
	}
	return dur, nil
}
