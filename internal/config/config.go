package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Sink targets for cleaned records.
const (
	SinkKafka    = "kafka"
	SinkPostgres = "postgres"
)

// Columns names the occurrence fields the pipeline stages bind to. Empty
// optional names disable the stage that needs them.
type Columns struct {
	Latitude    string
	Longitude   string
	Species     string
	SpatialUnit string
	Year        string
	Month       string
	Day         string
	Date        string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	Sink        string
	DatabaseURL string

	Columns Columns
	// DMSMode is "none" to skip normalization or "symbolic" to parse
	// degree-minute-second strings in the coordinate columns.
	DMSMode string
	MinYear int
	// MaxYear of 0 means the current year at processing time.
	MaxYear     int
	CoordDigits int

	BoundaryFile string
	BoundaryCRS  string
	PointsCRS    string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	minYear, err := envInt("MIN_YEAR", 1900)
	if err != nil {
		return nil, err
	}
	maxYear, err := envInt("MAX_YEAR", 0)
	if err != nil {
		return nil, err
	}
	digits, err := envInt("COORD_DIGITS", 4)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-occurrences"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "clean-occurrences"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "occurrence-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Sink:        sharedcfg.EnvOrDefault("SINK", SinkKafka),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		Columns: Columns{
			Latitude:    sharedcfg.EnvOrDefault("LAT_COLUMN", "decimalLatitude"),
			Longitude:   sharedcfg.EnvOrDefault("LON_COLUMN", "decimalLongitude"),
			Species:     sharedcfg.EnvOrDefault("SPECIES_COLUMN", "species"),
			SpatialUnit: os.Getenv("SPATIAL_UNIT_COLUMN"),
			Year:        sharedcfg.EnvOrDefault("YEAR_COLUMN", "year"),
			Month:       os.Getenv("MONTH_COLUMN"),
			Day:         os.Getenv("DAY_COLUMN"),
			Date:        os.Getenv("DATE_COLUMN"),
		},
		DMSMode:     sharedcfg.EnvOrDefault("DMS_MODE", "none"),
		MinYear:     minYear,
		MaxYear:     maxYear,
		CoordDigits: digits,

		BoundaryFile: os.Getenv("BOUNDARY_FILE"),
		BoundaryCRS:  os.Getenv("BOUNDARY_CRS"),
		PointsCRS:    sharedcfg.EnvOrDefault("POINTS_CRS", "EPSG:4326"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	switch c.Sink {
	case SinkKafka:
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required")
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return errors.New("SINK is postgres but DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("invalid SINK %q: want kafka or postgres", c.Sink)
	}
	if c.DMSMode != "none" && c.DMSMode != "symbolic" {
		return fmt.Errorf("invalid DMS_MODE %q: want none or symbolic", c.DMSMode)
	}
	if c.Columns.Date != "" && (c.Columns.Month != "" || c.Columns.Day != "") {
		return errors.New("DATE_COLUMN cannot be combined with MONTH_COLUMN or DAY_COLUMN")
	}
	if (c.Columns.Month == "") != (c.Columns.Day == "") {
		return errors.New("MONTH_COLUMN and DAY_COLUMN must be set together")
	}
	if c.MaxYear != 0 && c.MinYear > c.MaxYear {
		return fmt.Errorf("MIN_YEAR %d is after MAX_YEAR %d", c.MinYear, c.MaxYear)
	}
	if c.CoordDigits < -1 {
		return errors.New("invalid COORD_DIGITS: must be -1 (no rounding) or greater")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
