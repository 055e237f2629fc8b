package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	JWTSecret               string
	JWTAccessTTL            time.Duration
	BcryptCost              int
	UniqueUsernames         bool
	ProductsFile            string
	ProductsSeedURL         string
	SeedTimeout             time.Duration
	AuditLogFile            string
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	TLSCertFile             string
	TLSKeyFile              string
	LogFormat               string
	LogLevel                string
}

// TLSEnabled reports whether both halves of the certificate pair are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE. Environment
// variables win over values from the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	src, err := newSource(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return nil, err
	}

	cfg := src.build()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.ProductsFile) == "" {
		return fmt.Errorf("PRODUCTS_FILE cannot be empty")
	}

	if strings.TrimSpace(c.AuditLogFile) == "" {
		return fmt.Errorf("AUDIT_LOG_FILE cannot be empty")
	}

	if c.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.SeedTimeout <= 0 {
		return fmt.Errorf("SEED_TIMEOUT must be positive")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// source resolves a key from the environment first and the YAML file second.
type source struct {
	file map[string]string
}

func newSource(path string) (*source, error) {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	for key, value := range values {
		switch v := value.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			s.file[strings.ToUpper(key)] = strings.Join(parts, ",")
		default:
			s.file[strings.ToUpper(key)] = fmt.Sprint(v)
		}
	}

	return s, nil
}

func (s *source) build() *Config {
	return &Config{
		ServerPort:              s.getString("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: s.getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      s.getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       s.getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          s.getDuration("REQUEST_TIMEOUT", 30*time.Second),
		JWTSecret:               s.getString("JWT_SECRET", ""),
		JWTAccessTTL:            s.getDuration("JWT_ACCESS_TTL", time.Hour),
		BcryptCost:              s.getInt("BCRYPT_COST", 10),
		UniqueUsernames:         s.getBool("AUTH_UNIQUE_USERNAMES", true),
		ProductsFile:            s.getString("PRODUCTS_FILE", "./data/products.json"),
		ProductsSeedURL:         s.getString("PRODUCTS_SEED_URL", ""),
		SeedTimeout:             s.getDuration("SEED_TIMEOUT", 10*time.Second),
		AuditLogFile:            s.getString("AUDIT_LOG_FILE", "./state/audit.log"),
		CORSOrigins:             splitCSV(s.getString("CORS_ORIGINS", "*")),
		RateLimitRPM:            s.getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        s.getInt("AUTH_RATE_LIMIT_RPM", 10),
		TLSCertFile:             s.getString("TLS_CERT_FILE", ""),
		TLSKeyFile:              s.getString("TLS_KEY_FILE", ""),
		LogFormat:               strings.ToLower(s.getString("LOG_FORMAT", "pretty")),
		LogLevel:                strings.ToLower(s.getString("LOG_LEVEL", "info")),
	}
}

func (s *source) lookup(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[key])
}

func (s *source) getString(key string, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}

	return v
}

func (s *source) getInt(key string, fallback int) int {
	raw := s.lookup(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func (s *source) getBool(key string, fallback bool) bool {
	raw := s.lookup(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func (s *source) getDuration(key string, fallback time.Duration) time.Duration {
	raw := s.lookup(key)
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
