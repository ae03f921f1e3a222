package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Site names accepted by the scraper.
const (
	SiteSunat  = "sunat"
	SiteRedjum = "redjum"
	SiteReinfo = "reinfo"
)

// Config holds all configuration for the application
type Config struct {
	Log       LogConfig       `json:"log"`
	Browser   BrowserConfig   `json:"browser"`
	Redis     RedisConfig     `json:"redis"`
	ScrapeOps ScrapeOpsConfig `json:"scrapeops"`
	Output    OutputConfig    `json:"output"`
	Scraper   ScraperConfig   `json:"scraper"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Dir    string `json:"dir"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Headless       bool          `json:"headless"`
	PageTimeout    time.Duration `json:"page_timeout"`
	ElementTimeout time.Duration `json:"element_timeout"`
	// FieldProbeTimeout bounds the optional-field probes that walk selector
	// fallback chains; deliberately short because a miss is expected there.
	FieldProbeTimeout time.Duration `json:"field_probe_timeout"`
	WindowWidth       int           `json:"window_width"`
	WindowHeight      int           `json:"window_height"`
	UserAgent         string        `json:"user_agent"`
}

// RedisConfig holds Redis configuration for the optional result cache
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	CacheTTL     time.Duration `json:"cache_ttl"`
}

// ScrapeOpsConfig holds the header-randomization service configuration
type ScrapeOpsConfig struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// OutputConfig holds result persistence configuration
type OutputConfig struct {
	Dir string `json:"dir"`
}

// ScraperConfig holds extraction engine configuration
type ScraperConfig struct {
	// SubmitSettle is the fixed delay applied after a search is submitted
	// and PageSettle the delay after a pagination click. The target sites
	// expose no completion event for either, only a heuristic wait works.
	SubmitSettle    time.Duration `json:"submit_settle"`
	PageSettle      time.Duration `json:"page_settle"`
	CaptureTimeout  time.Duration `json:"capture_timeout"`
	KeysPerMinute   int           `json:"keys_per_minute"`
	SunatURL        string        `json:"sunat_url"`
	RedjumURL       string        `json:"redjum_url"`
	ReinfoURL       string        `json:"reinfo_url"`
	RedjumURLFilter string        `json:"redjum_url_filter"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			Dir:    getEnv("LOG_DIR", "logs"),
		},
		Browser: BrowserConfig{
			Headless:          getEnvAsBool("BROWSER_HEADLESS", false),
			PageTimeout:       getEnvAsDuration("PAGE_TIMEOUT", 45*time.Second),
			ElementTimeout:    getEnvAsDuration("ELEMENT_TIMEOUT", 10*time.Second),
			FieldProbeTimeout: getEnvAsDuration("FIELD_PROBE_TIMEOUT", 2*time.Second),
			WindowWidth:       getEnvAsInt("BROWSER_WIDTH", 1920),
			WindowHeight:      getEnvAsInt("BROWSER_HEIGHT", 1080),
			UserAgent:         getEnv("BROWSER_USER_AGENT", ""),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvAsDuration("RESULT_CACHE_TTL", time.Hour),
		},
		ScrapeOps: ScrapeOpsConfig{
			APIKey:  getEnv("SCRAPEOPS_API_KEY", ""),
			BaseURL: getEnv("SCRAPEOPS_BASE_URL", "https://headers.scrapeops.io/v1/browser-headers"),
			Timeout: getEnvAsDuration("SCRAPEOPS_TIMEOUT", 10*time.Second),
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "data"),
		},
		Scraper: ScraperConfig{
			SubmitSettle:    getEnvAsDuration("SUBMIT_SETTLE", 3*time.Second),
			PageSettle:      getEnvAsDuration("PAGE_SETTLE", 2*time.Second),
			CaptureTimeout:  getEnvAsDuration("CAPTURE_TIMEOUT", 15*time.Second),
			KeysPerMinute:   getEnvAsInt("KEYS_PER_MINUTE", 20),
			SunatURL:        getEnv("SUNAT_URL", "https://e-consultaruc.sunat.gob.pe"),
			RedjumURL:       getEnv("REDJUM_URL", "https://redjum.pj.gob.pe/redjum/#/"),
			ReinfoURL:       getEnv("REINFO_URL", "https://pad.minem.gob.pe/REINFO_WEB/Index.aspx"),
			RedjumURLFilter: getEnv("REDJUM_URL_FILTER", "deudoresPorDocumento"),
		},
	}

	return cfg, nil
}

// KeyColumn returns the CSV column that holds lookup keys for a site.
// The registry-dump site has no key column.
func KeyColumn(site string) (string, error) {
	switch site {
	case SiteSunat:
		return "ruc", nil
	case SiteRedjum:
		return "dni", nil
	case SiteReinfo:
		return "", nil
	default:
		return "", fmt.Errorf("unknown site %q", site)
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
