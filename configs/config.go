package configs

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultAPIURL         = "http://localhost:8080/api/v1"
	DefaultSessionDB      = "library-dashboard.db"
	DefaultLookupBatch    = 5
	DefaultLookupPause    = 100 * time.Millisecond
	DefaultFinePerDay     = 5.0
	DefaultRequestTimeout = time.Duration(0)
)

type Config struct {
	APIURL           string
	SessionDB        string
	LookupBatchSize  int
	LookupBatchPause time.Duration
	FinePerDay       float64
	RequestTimeout   time.Duration
	LogLevel         slog.Level
}

// LoadConfig reads a .env file from the working directory when there is
// one and then the LIBRARY_* environment variables.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Unset variables take their
// defaults; malformed ones are an error.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIURL:           DefaultAPIURL,
		SessionDB:        DefaultSessionDB,
		LookupBatchSize:  DefaultLookupBatch,
		LookupBatchPause: DefaultLookupPause,
		FinePerDay:       DefaultFinePerDay,
		RequestTimeout:   DefaultRequestTimeout,
		LogLevel:         slog.LevelInfo,
	}

	if v := getenv("LIBRARY_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := getenv("LIBRARY_SESSION_DB"); v != "" {
		cfg.SessionDB = v
	}
	if v := getenv("LIBRARY_LOOKUP_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, errors.Errorf("invalid LIBRARY_LOOKUP_BATCH_SIZE %q", v)
		}
		cfg.LookupBatchSize = n
	}
	if v := getenv("LIBRARY_LOOKUP_BATCH_PAUSE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, errors.Errorf("invalid LIBRARY_LOOKUP_BATCH_PAUSE %q", v)
		}
		cfg.LookupBatchPause = d
	}
	if v := getenv("LIBRARY_FINE_PER_DAY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return Config{}, errors.Errorf("invalid LIBRARY_FINE_PER_DAY %q", v)
		}
		cfg.FinePerDay = f
	}
	if v := getenv("LIBRARY_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, errors.Errorf("invalid LIBRARY_REQUEST_TIMEOUT %q", v)
		}
		cfg.RequestTimeout = d
	}
	if v := getenv("LIBRARY_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return Config{}, errors.Errorf("invalid LIBRARY_LOG_LEVEL %q", v)
		}
	}
	return cfg, nil
}
