package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"modelarena/internal/admission"
	"modelarena/internal/catalog"
	"modelarena/internal/compare"
	"modelarena/internal/provider"
)

// Version is stamped at build time with -ldflags "-X modelarena/internal/gateway/config.Version=...".
var Version = "dev"

type Config struct {
	Addr           string
	Env            string
	Version        string
	Log            LogConfig
	CatalogPath    string
	S3             catalog.S3Config
	Upstream       UpstreamConfig
	RateLimit      RateLimitConfig
	CompareTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type UpstreamConfig struct {
	HuggingFaceToken   string
	HuggingFaceBaseURL string
	GroqAPIKey         string
	GroqBaseURL        string
	GeminiAPIKey       string
	Timeout            time.Duration
	ColdStartDelay     time.Duration
	Temperature        float64
	Throttle           map[catalog.Backend]ThrottleConfig
}

// ThrottleConfig caps outbound calls to one backend. RPS <= 0 disables it.
type ThrottleConfig struct {
	RPS   float64
	Burst int
}

type RateLimitConfig struct {
	Max       int
	Window    time.Duration
	Sweep     time.Duration
	TableSize int
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	env := strings.ToLower(r.str("APP_ENV", "production"))
	cfg := &Config{
		Addr:        normalizeAddr(r.first("ADDR", "PORT"), ":8080"),
		Env:         env,
		Version:     r.str("APP_VERSION", Version),
		CatalogPath: r.str("CATALOG_PATH", ""),
		Log: LogConfig{
			Level:  strings.ToLower(r.str("LOG_LEVEL", "info")),
			Format: strings.ToLower(r.str("LOG_FORMAT", "text")),
		},
		S3: catalog.S3Config{
			Endpoint:  r.str("S3_ENDPOINT", ""),
			Region:    r.str("S3_REGION", "us-east-1"),
			AccessKey: r.str("S3_ACCESS_KEY", ""),
			SecretKey: r.str("S3_SECRET_KEY", ""),
			UseSSL:    r.boolean("S3_USE_SSL", true),
		},
		Upstream: UpstreamConfig{
			HuggingFaceToken:   r.first("HF_API_TOKEN", "HUGGINGFACE_API_KEY"),
			HuggingFaceBaseURL: r.str("HF_BASE_URL", ""),
			GroqAPIKey:         r.str("GROQ_API_KEY", ""),
			GroqBaseURL:        r.str("GROQ_BASE_URL", ""),
			GeminiAPIKey:       r.first("GEMINI_API_KEY", "GOOGLE_API_KEY"),
			Timeout:            r.duration("UPSTREAM_TIMEOUT", 2*time.Minute),
			ColdStartDelay:     r.duration("COLD_START_DELAY", provider.DefaultColdStartDelay),
			Temperature:        r.float("DEFAULT_TEMPERATURE", compare.DefaultTemperature),
			Throttle:           map[catalog.Backend]ThrottleConfig{},
		},
		RateLimit: RateLimitConfig{
			Max:       r.integer("RATE_LIMIT_MAX", admission.DefaultLimit),
			Window:    r.duration("RATE_LIMIT_WINDOW", admission.DefaultWindow),
			Sweep:     r.duration("RATE_LIMIT_SWEEP", admission.DefaultSweepInterval),
			TableSize: r.integer("RATE_LIMIT_TABLE_SIZE", admission.DefaultTableSize),
		},
		CompareTimeout: r.duration("COMPARE_TIMEOUT", 0),
	}
	for _, b := range catalog.Backends() {
		prefix := strings.ToUpper(string(b))
		if rps := r.float(prefix+"_RPS", 0); rps > 0 {
			cfg.Upstream.Throttle[b] = ThrottleConfig{RPS: rps, Burst: r.integer(prefix+"_BURST", 1)}
		}
	}
	if env == "local" {
		applyLocalDefaults(cfg, &r)
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(r.errs, "; "))
	}
	if cfg.RateLimit.Max <= 0 {
		return nil, fmt.Errorf("config: RATE_LIMIT_MAX must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("config: RATE_LIMIT_WINDOW must be positive")
	}
	return cfg, nil
}

func normalizeAddr(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

type reader struct {
	getenv func(string) string
	errs   []string
}

func (r *reader) raw(key string) string { return strings.TrimSpace(r.getenv(key)) }

func (r *reader) str(key, fallback string) string {
	if v := r.raw(key); v != "" {
		return v
	}
	return fallback
}

func (r *reader) first(keys ...string) string {
	for _, k := range keys {
		if v := r.raw(k); v != "" {
			return v
		}
	}
	return ""
}

func (r *reader) integer(key string, fallback int) int {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return n
}

func (r *reader) float(key string, fallback float64) float64 {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return f
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return d
}

func (r *reader) boolean(key string, fallback bool) bool {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
