package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"testdesk/internal/db"
	"testdesk/internal/ingest"
	"testdesk/internal/questiondoc"
	"testdesk/internal/testapi"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	HTTPAddr string

	DBDriver          string
	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifeMins int

	TestAPIBaseURL     string
	TestAPITimeoutSecs int
	TestAPIRatePerSec  float64

	SampleQuota     int
	SampleSeed      int64
	StrictRoundTrip bool
	Categories      []string

	CORSAllowedOrigins    []string
	UploadMaxBytes        int64
	ImportRateLimitPerMin int
}

func LoadConfig() Config {
	return Config{
		AppEnv:                envOrDefault("APP_ENV", "development"),
		HTTPAddr:              envOrDefault("HTTP_ADDR", ":8080"),
		DBDriver:              envOrDefault("DB_DRIVER", string(db.DriverPostgres)),
		DBDSN:                 os.Getenv("DB_DSN"),
		DBMaxOpenConns:        intOrDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:        intOrDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMins:     intOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		TestAPIBaseURL:        envOrDefault("TEST_API_BASE_URL", testapi.DefaultBaseURL),
		TestAPITimeoutSecs:    intOrDefault("TEST_API_TIMEOUT_SECONDS", 15),
		TestAPIRatePerSec:     floatOrDefault("TEST_API_RATE_PER_SECOND", 5),
		SampleQuota:           intAllowZero("SAMPLE_QUOTA", questiondoc.DefaultQuota),
		SampleSeed:            int64(stringsToInt(os.Getenv("SAMPLE_SEED"))),
		StrictRoundTrip:       boolOrDefault("STRICT_ROUND_TRIP", false),
		Categories:            csvOrDefault("TEST_CATEGORIES", ingest.DefaultCategories),
		CORSAllowedOrigins:    csvOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		UploadMaxBytes:        int64(intOrDefault("UPLOAD_MAX_BYTES", 8<<20)),
		ImportRateLimitPerMin: intOrDefault("IMPORT_RATE_LIMIT_PER_MINUTE", 30),
	}
}

func (c Config) DBConfig() db.Config {
	return db.Config{
		Driver:          db.Driver(c.DBDriver),
		DSN:             c.DBDSN,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(c.DBConnMaxLifeMins) * time.Minute,
	}
}

func (c Config) TestAPIConfig() testapi.Config {
	return testapi.Config{
		BaseURL:       c.TestAPIBaseURL,
		Timeout:       time.Duration(c.TestAPITimeoutSecs) * time.Second,
		RatePerSecond: c.TestAPIRatePerSec,
	}
}

// ParserConfig builds the parser settings. A zero seed means a time-based
// random source.
func (c Config) ParserConfig() questiondoc.Config {
	cfg := questiondoc.Config{
		Quota:  c.SampleQuota,
		Strict: c.StrictRoundTrip,
	}
	if c.SampleSeed != 0 {
		cfg.Rand = questiondoc.NewRand(c.SampleSeed)
	}
	return cfg
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsToInt(v string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

func intOrDefault(key string, fallback int) int {
	v := stringsToInt(os.Getenv(key))
	if v <= 0 {
		return fallback
	}
	return v
}

// intAllowZero is intOrDefault for settings where 0 is meaningful.
func intAllowZero(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func floatOrDefault(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func boolOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func csvOrDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
