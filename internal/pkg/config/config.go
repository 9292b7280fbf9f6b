package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/giovanto/overhead/internal/core/classify"
	"github.com/giovanto/overhead/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	NATS       NATSConfig        `mapstructure:"nats"`
	Valkey     ValkeyConfig      `mapstructure:"valkey"`
	Telemetry  TelemetryConfig   `mapstructure:"telemetry"`
	Temporal   TemporalConfig    `mapstructure:"temporal"`
	OpenSky    OpenSkyConfig     `mapstructure:"opensky"`
	Collector  CollectorConfig   `mapstructure:"collector"`
	References []ReferenceConfig `mapstructure:"references"`
	Classifier classify.Config   `mapstructure:"classifier"`
	Retention  RetentionConfig   `mapstructure:"retention"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// OpenSkyConfig configures the OpenSky Network client. Anonymous access
// works without credentials at a reduced rate limit.
type OpenSkyConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	AuthURL        string `mapstructure:"auth_url"`
	ClientID       string `mapstructure:"client_id"`
	ClientSecret   string `mapstructure:"client_secret"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AreaConfig is one named collection area with its bounding box.
type AreaConfig struct {
	Name   string  `mapstructure:"name"`
	MinLat float64 `mapstructure:"min_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLat float64 `mapstructure:"max_lat"`
	MaxLon float64 `mapstructure:"max_lon"`
}

func (a AreaConfig) Bounds() domain.Bounds {
	return domain.Bounds{MinLat: a.MinLat, MinLon: a.MinLon, MaxLat: a.MaxLat, MaxLon: a.MaxLon}
}

// CollectorConfig drives the polling loop. Peak hours poll more often
// than night hours; hours are in local time, 24h clock.
type CollectorConfig struct {
	Areas                []AreaConfig `mapstructure:"areas"`
	PeakIntervalMinutes  int          `mapstructure:"peak_interval_minutes"`
	NightIntervalMinutes int          `mapstructure:"night_interval_minutes"`
	NightStartHour       int          `mapstructure:"night_start_hour"`
	NightEndHour         int          `mapstructure:"night_end_hour"`
	SnapshotDir          string       `mapstructure:"snapshot_dir"`
	SnapshotMaxAgeHours  int          `mapstructure:"snapshot_max_age_hours"`
}

type ReferenceConfig struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
}

// ReferencePoints converts the configured references into domain values.
func (c *Config) ReferencePoints() []domain.ReferencePoint {
	refs := make([]domain.ReferencePoint, 0, len(c.References))
	for _, r := range c.References {
		refs = append(refs, domain.ReferencePoint{Name: r.Name, Lat: r.Lat, Lon: r.Lon})
	}
	return refs
}

type RetentionConfig struct {
	ObservationDays   int `mapstructure:"observation_days"`
	CollectionLogDays int `mapstructure:"collection_log_days"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "overhead")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "overhead")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "overhead-maintenance")
	v.SetDefault("opensky.base_url", "https://opensky-network.org/api")
	v.SetDefault("opensky.auth_url", "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token")
	v.SetDefault("opensky.timeout_seconds", 30)
	v.SetDefault("collector.peak_interval_minutes", 3)
	v.SetDefault("collector.night_interval_minutes", 10)
	v.SetDefault("collector.night_start_hour", 23)
	v.SetDefault("collector.night_end_hour", 6)
	v.SetDefault("collector.snapshot_dir", "data/snapshots")
	v.SetDefault("collector.snapshot_max_age_hours", 48)
	v.SetDefault("collector.areas", []map[string]any{
		{"name": "schiphol", "min_lat": 52.0, "min_lon": 4.4, "max_lat": 52.6, "max_lon": 5.2},
		{"name": "bos_en_lommer", "min_lat": 52.36, "min_lon": 4.82, "max_lat": 52.40, "max_lon": 4.88},
	})
	v.SetDefault("references", []map[string]any{
		{"name": "airport", "lat": 52.3105, "lon": 4.7683},
		{"name": "residence", "lat": 52.3792, "lon": 4.8561},
	})
	v.SetDefault("classifier", map[string]any{
		"base_noise_db":              80.0,
		"alt_attenuation_per_1000ft": 5.0,
		"alt_attenuation_cap_db":     40.0,
		"dist_attenuation_per_km":    2.0,
		"dist_attenuation_cap_db":    20.0,
		"floor_noise_db":             30.0,
		"close_range_km":             5.0,
		"approach_range_km":          15.0,
		"extended_range_km":          30.0,
		"close_alt_ft":               1000.0,
		"approach_alt_ft":            5000.0,
		"extended_alt_ft":            10000.0,
		"high_tier_db":               65.0,
		"moderate_tier_db":           55.0,
		"low_tier_db":                45.0,
	})
	v.SetDefault("retention.observation_days", 90)
	v.SetDefault("retention.collection_log_days", 30)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: OVERHEAD_DATABASE_HOST → database.host
	v.SetEnvPrefix("OVERHEAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.OpenSky.BaseURL == "" {
		errs = append(errs, "opensky.base_url is required")
	}
	if (c.OpenSky.ClientID == "") != (c.OpenSky.ClientSecret == "") {
		errs = append(errs, "opensky.client_id and opensky.client_secret must be set together")
	}
	if len(c.References) == 0 {
		errs = append(errs, "at least one reference point is required")
	}
	for _, r := range c.References {
		if r.Name == "" {
			errs = append(errs, "reference name is required")
		}
		p := domain.GeoPoint{Lat: r.Lat, Lon: r.Lon}
		if !p.Valid() {
			errs = append(errs, fmt.Sprintf("reference %q has invalid coordinates", r.Name))
		}
	}
	if len(c.Collector.Areas) == 0 {
		errs = append(errs, "at least one collection area is required")
	}
	for _, a := range c.Collector.Areas {
		if a.Name == "" {
			errs = append(errs, "collection area name is required")
		}
		if a.MinLat >= a.MaxLat || a.MinLon >= a.MaxLon {
			errs = append(errs, fmt.Sprintf("collection area %q has an empty bounding box", a.Name))
		}
	}
	if c.Collector.PeakIntervalMinutes <= 0 || c.Collector.NightIntervalMinutes <= 0 {
		errs = append(errs, "collector intervals must be positive")
	}
	if c.Collector.NightStartHour < 0 || c.Collector.NightStartHour > 23 ||
		c.Collector.NightEndHour < 0 || c.Collector.NightEndHour > 23 {
		errs = append(errs, "collector night hours must be 0-23")
	}
	if c.Retention.ObservationDays <= 0 || c.Retention.CollectionLogDays <= 0 {
		errs = append(errs, "retention windows must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
