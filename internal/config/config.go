// Package config loads pipeline settings from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// WestSeattleZips is the zip code whitelist every source fetcher filters to.
var WestSeattleZips = []string{"98106", "98116", "98126", "98136", "98146"}

// SODA dataset IDs on data.seattle.gov.
const (
	DatasetCodeViolations = "ez4a-iug7"
	DatasetPermits        = "76t5-zqzr"
	DatasetFire911        = "kzjm-xkqj"
	DatasetURM            = "54qs-2h7f"
)

// Fire-call geo-circle filter and King County enrichment endpoints.
const (
	FireCenterLat    = 47.5615
	FireCenterLng    = -122.3706
	FireRadiusMeters = 5000

	KCForeclosureDataset = "nx4x-8fdn"
	KCGISParcelsURL      = "https://gismaps.kingcounty.gov/arcgis/rest/services/Property/PropertyInformation/MapServer/0/query"
	KCSodaBase           = "https://data.kingcounty.gov/resource"
	KCRPAcctURL          = "https://aqua.kingcounty.gov/extranet/assessor/Real%20Property%20Account.zip"
	KCRPSaleURL          = "https://aqua.kingcounty.gov/extranet/assessor/Real%20Property%20Sales.zip"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	// SODA pagination.
	SodaBaseURL        string
	SodaAppToken       string
	SodaPageSize       int
	SodaRateLimitDelay time.Duration

	// King County parcel enrichment.
	KCGISPageSize        int
	KCGISRequestDelay    time.Duration
	KCDownloadCacheAge   time.Duration
	ForeclosureListLimit int

	// Best-effort CSV export (recent sales).
	CSVExportRequestDelay time.Duration

	// Storage.
	DBPath        string
	DownloadsDir  string
	ScoringConfig string

	// Proximity matching, in degrees (§4.2 default ~10m at Seattle's latitude).
	ProximityDegrees float64

	LogLevel  string
	LogFormat string

	HTTPTimeoutSmall time.Duration
	HTTPTimeoutGIS   time.Duration
	HTTPTimeoutBulk  time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	rateLimitDelay, err := durationOrDefault("SODA_RATE_LIMIT_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	gisDelay, err := durationOrDefault("KC_GIS_REQUEST_DELAY", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cacheAge, err := durationOrDefault("KC_DOWNLOAD_CACHE_AGE", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	csvDelay, err := durationOrDefault("CSV_EXPORT_REQUEST_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}

	sodaPageSize, err := positiveIntOrDefault("SODA_PAGE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	kcGISPageSize, err := positiveIntOrDefault("KC_GIS_PAGE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	foreclosureLimit, err := positiveIntOrDefault("KC_FORECLOSURE_LIMIT", 5000)
	if err != nil {
		return nil, err
	}

	proximity := 0.0001
	if s := os.Getenv("PROXIMITY_DEGREES"); s != "" {
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil || v <= 0 {
			return nil, errors.New("invalid PROXIMITY_DEGREES")
		}
		proximity = v
	}

	cfg := &Config{
		SodaBaseURL:        envOrDefault("SODA_BASE_URL", "https://data.seattle.gov/resource"),
		SodaAppToken:       os.Getenv("SODA_APP_TOKEN"),
		SodaPageSize:       sodaPageSize,
		SodaRateLimitDelay: rateLimitDelay,

		KCGISPageSize:        kcGISPageSize,
		KCGISRequestDelay:    gisDelay,
		KCDownloadCacheAge:   cacheAge,
		ForeclosureListLimit: foreclosureLimit,

		CSVExportRequestDelay: csvDelay,

		DBPath:        envOrDefault("DB_PATH", "data/distressed.db"),
		DownloadsDir:  envOrDefault("DOWNLOADS_DIR", "data/downloads"),
		ScoringConfig: envOrDefault("SCORING_CONFIG_PATH", "scoring_config.yaml"),

		ProximityDegrees: proximity,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		HTTPTimeoutSmall: 30 * time.Second,
		HTTPTimeoutGIS:   60 * time.Second,
		HTTPTimeoutBulk:  300 * time.Second,
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.ScoringConfig == "" {
		return nil, errors.New("SCORING_CONFIG_PATH is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func positiveIntOrDefault(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
