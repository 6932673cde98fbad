package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Port string
	Env  string // development, staging, production

	Redis     RedisConfig
	CBOE      CBOEConfig
	Analytics AnalyticsConfig

	LogLevel  string
	LogFormat string // json | console
	LogFile   string // 비어 있으면 stderr만
}

// RedisConfig is the optional snapshot cache / shared rate limit backend
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// CBOEConfig holds CBOE delayed-quote endpoints
type CBOEConfig struct {
	CDNURL       string // delayed_quotes, us_indices
	SiteURL      string // symbol-info, symbol directory
	Timeout      time.Duration
	RatePerSec   int    // 로컬 토큰 버킷 + Redis 공유 리밋
	DirectoryCSV string // 로컬 심볼 디렉토리 CSV (비어 있으면 사이트에서)
}

// AnalyticsConfig holds pipeline and cache settings
type AnalyticsConfig struct {
	ConfigPath       string   // analytics YAML (비어 있으면 기본값)
	TickerExceptions []string // "_" 접두 URL 심볼 (NDX, RUT)
	SnapshotTTL      time.Duration
	Watchlist        []string // 스케줄러 캐시 워밍 대상
	WarmSchedule     string   // cron (초 단위 포함)
}

var environments = []string{"development", "staging", "production"}

// Load reads the environment (after an optional .env) and validates it.
// Every malformed or out-of-range value is reported, not just the first.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	var env envReader
	cfg := &Config{
		Port: env.str("PORT", "8089"),
		Env:  env.str("ENV", "development"),

		Redis: RedisConfig{
			Host:     env.str("REDIS_HOST", "localhost"),
			Port:     env.str("REDIS_PORT", "6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.integer("REDIS_DB", 0),
			Enabled:  env.boolean("REDIS_ENABLED", false),
		},

		CBOE: CBOEConfig{
			CDNURL:       env.str("CBOE_CDN_URL", "https://cdn.cboe.com"),
			SiteURL:      env.str("CBOE_SITE_URL", "https://www.cboe.com"),
			Timeout:      env.duration("CBOE_TIMEOUT", 30*time.Second),
			RatePerSec:   env.integer("CBOE_RATE_PER_SEC", 5),
			DirectoryCSV: env.str("CBOE_DIRECTORY_CSV", ""),
		},

		Analytics: AnalyticsConfig{
			ConfigPath:       env.str("ANALYTICS_CONFIG", ""),
			TickerExceptions: env.symbols("TICKER_EXCEPTIONS", "NDX,RUT"),
			SnapshotTTL:      env.duration("SNAPSHOT_TTL", 15*time.Minute),
			Watchlist:        env.symbols("WATCHLIST", "SPX,NDX,SPY,QQQ"),
			WarmSchedule:     env.str("WARM_SCHEDULE", "0 */15 9-16 * * MON-FRI"),
		},

		LogLevel:  env.str("LOG_LEVEL", "info"),
		LogFormat: env.str("LOG_FORMAT", "json"),
		LogFile:   env.str("LOG_FILE", ""),
	}

	if err := errors.Join(append(env.errs, cfg.validate()...)...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if !slices.Contains(environments, c.Env) {
		errs = append(errs, fmt.Errorf("ENV must be one of %s", strings.Join(environments, ", ")))
	}
	if c.CBOE.RatePerSec <= 0 {
		errs = append(errs, errors.New("CBOE_RATE_PER_SEC must be > 0"))
	}
	if c.CBOE.Timeout <= 0 {
		errs = append(errs, errors.New("CBOE_TIMEOUT must be > 0"))
	}
	if c.Analytics.SnapshotTTL <= 0 {
		errs = append(errs, errors.New("SNAPSHOT_TTL must be > 0"))
	}
	return errs
}

// RedisAddr returns host:port
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

// loadEnvFile loads the first .env found in the working directory or next to the binary
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(dir, ".env"), filepath.Join(dir, "..", ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// envReader reads typed variables; unset means default, malformed is recorded in errs
type envReader struct {
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseEnv[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
		return def
	}
	return v
}

func (e *envReader) integer(key string, def int) int {
	return parseEnv(e, key, def, strconv.Atoi)
}

func (e *envReader) boolean(key string, def bool) bool {
	return parseEnv(e, key, def, strconv.ParseBool)
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	return parseEnv(e, key, def, time.ParseDuration)
}

// symbols splits a comma list, uppercasing and dropping blanks
func (e *envReader) symbols(key, def string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(e.str(key, def), ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}
	return items
}
