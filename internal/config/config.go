package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	APIBaseURL          string
	GitHubToken         string
	StorageDSN          string
	RequestTimeout      time.Duration
	SearchDebounce      time.Duration
	ImageCacheEntries   int
	ImageCacheBytes     int64
	ImageCacheDir       string
	APIRateLimit        int
	WaitForConnectivity bool
	ShutdownTimeout     time.Duration
	LogLevel            string
}

const (
	defaultRunAddress        = ":8080"
	defaultAPIBaseURL        = "https://api.github.com"
	defaultStorageDSN        = "usersearch.db"
	defaultRequestTimeout    = 30 * time.Second
	defaultSearchDebounce    = 500 * time.Millisecond
	defaultImageCacheEntries = 100
	defaultImageCacheBytes   = 50 * 1024 * 1024
	defaultShutdownTimeout   = 10 * time.Second
	defaultLogLevel          = "info"
	defaultEnvFile           = ".env"
)

// Load parses configuration from flags, environment variables and an
// optional .env file. Real environment variables win over the file.
func Load() (*Config, error) {
	path := defaultEnvFile
	if v, ok := os.LookupEnv("ENV_FILE"); ok && v != "" {
		path = v
	}
	lookup, err := withDotEnv(path, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	return load(os.Args[1:], lookup)
}

type envLookup func(string) (string, bool)

func withDotEnv(path string, lookup envLookup) (envLookup, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		APIBaseURL:          getString(lookup, "GITHUB_API_URL", defaultAPIBaseURL),
		GitHubToken:         getString(lookup, "GITHUB_TOKEN", ""),
		StorageDSN:          getString(lookup, "STORAGE_DSN", defaultStorageDSN),
		RequestTimeout:      getDuration(lookup, "REQUEST_TIMEOUT", defaultRequestTimeout),
		SearchDebounce:      getDuration(lookup, "SEARCH_DEBOUNCE", defaultSearchDebounce),
		ImageCacheEntries:   getInt(lookup, "IMAGE_CACHE_ENTRIES", defaultImageCacheEntries),
		ImageCacheBytes:     int64(getInt(lookup, "IMAGE_CACHE_BYTES", defaultImageCacheBytes)),
		ImageCacheDir:       getString(lookup, "IMAGE_CACHE_DIR", ""),
		APIRateLimit:        getInt(lookup, "API_RATE_LIMIT", 0),
		WaitForConnectivity: getBool(lookup, "WAIT_FOR_CONNECTIVITY", true),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:            getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("usersearch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		requestTimeoutStr  = cfg.RequestTimeout.String()
		debounceStr        = cfg.SearchDebounce.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.APIBaseURL, "u", cfg.APIBaseURL, "GitHub API base URL")
	fs.StringVar(&cfg.GitHubToken, "token", cfg.GitHubToken, "GitHub API token")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "Storage DSN: memory, SQLite path or PostgreSQL URL")
	fs.StringVar(&requestTimeoutStr, "request-timeout", requestTimeoutStr, "Upper bound for a single API request")
	fs.StringVar(&debounceStr, "debounce", debounceStr, "Quiet period before a search is sent")
	fs.IntVar(&cfg.ImageCacheEntries, "image-cache-entries", cfg.ImageCacheEntries, "Maximum cached avatars")
	fs.Int64Var(&cfg.ImageCacheBytes, "image-cache-bytes", cfg.ImageCacheBytes, "Maximum cached avatar bytes")
	fs.StringVar(&cfg.ImageCacheDir, "image-cache-dir", cfg.ImageCacheDir, "Directory for the on-disk avatar cache")
	fs.IntVar(&cfg.APIRateLimit, "rate-limit", cfg.APIRateLimit, "API requests per minute, 0 for unlimited")
	fs.BoolVar(&cfg.WaitForConnectivity, "wait-for-connectivity", cfg.WaitForConnectivity, "Retry dial failures until the request deadline")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.RequestTimeout, err = time.ParseDuration(requestTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid request timeout: %w", err)
	}

	if cfg.SearchDebounce, err = time.ParseDuration(debounceStr); err != nil {
		return nil, fmt.Errorf("invalid search debounce: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if tokenFile, ok := lookup("GITHUB_TOKEN_FILE"); ok && tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read github token file: %w", err)
		}
		cfg.GitHubToken = strings.TrimSpace(string(content))
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = defaultSearchDebounce
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.ImageCacheEntries <= 0 {
		cfg.ImageCacheEntries = defaultImageCacheEntries
	}

	if cfg.ImageCacheBytes <= 0 {
		cfg.ImageCacheBytes = defaultImageCacheBytes
	}

	if cfg.APIRateLimit < 0 {
		cfg.APIRateLimit = 0
	}

	parsed, err := url.Parse(cfg.APIBaseURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("github api url must be an absolute URL, got %q", cfg.APIBaseURL)
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
