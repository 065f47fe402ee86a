package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/samirrijal/aptscout/internal/core/domain"
	"github.com/samirrijal/aptscout/internal/core/poi"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	POIs      POIConfig       `mapstructure:"poi"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Airtable  AirtableConfig  `mapstructure:"airtable"`
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

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// ScrapeConfig describes what to search for and how often.
type ScrapeConfig struct {
	Site           string   `mapstructure:"site"`
	Areas          []string `mapstructure:"areas"`
	Category       string   `mapstructure:"category"`
	MinPrice       int      `mapstructure:"min_price"`
	MaxPrice       int      `mapstructure:"max_price"`
	ZipCode        string   `mapstructure:"zip_code"`
	SearchDistance int      `mapstructure:"search_distance"`
	LimitPerArea   int      `mapstructure:"limit_per_area"`
	Timezone       string   `mapstructure:"timezone"`
	UserAgent      string   `mapstructure:"user_agent"`
	// Sleep between scrape cycles, seconds.
	MinSleep int `mapstructure:"min_sleep"`
	MaxSleep int `mapstructure:"max_sleep"`
	// Delay between listing page requests, seconds.
	MinRequestDelay int `mapstructure:"min_request_delay"`
	MaxRequestDelay int `mapstructure:"max_request_delay"`
	MetricsPort     int `mapstructure:"metrics_port"`
}

// Location resolves the configured timezone.
func (s ScrapeConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

type RegionConfig struct {
	Name    string      `mapstructure:"name"`
	Corners [][]float64 `mapstructure:"corners"`
}

type StopConfig struct {
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
}

// POIConfig is the neighborhood and transit configuration.
type POIConfig struct {
	Regions           []RegionConfig `mapstructure:"regions"`
	Neighborhoods     []string       `mapstructure:"neighborhoods"`
	TransitStops      []StopConfig   `mapstructure:"transit_stops"`
	MaxWalkingMinutes float64        `mapstructure:"max_walking_minutes"`
	MaxTransitKm      float64        `mapstructure:"max_transit_km"`
}

type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
	Zoom   int    `mapstructure:"zoom"`
	Size   string `mapstructure:"size"`
}

type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
	BaseURL string `mapstructure:"base_url"`
}

type AirtableConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseID  string `mapstructure:"base_id"`
	Table   string `mapstructure:"table"`
	BaseURL string `mapstructure:"base_url"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: APTSCOUT_DATABASE_HOST → database.host
	v.SetEnvPrefix("APTSCOUT")
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

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "aptscout")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "aptscout")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "forward-listings")

	v.SetDefault("scrape.site", "sfbay")
	v.SetDefault("scrape.areas", []string{"eby", "sfc", "sby", "nby"})
	v.SetDefault("scrape.category", "apa")
	v.SetDefault("scrape.min_price", 1500)
	v.SetDefault("scrape.max_price", 2300)
	v.SetDefault("scrape.zip_code", "94609")
	v.SetDefault("scrape.search_distance", 7)
	v.SetDefault("scrape.limit_per_area", 20)
	v.SetDefault("scrape.timezone", "America/Los_Angeles")
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	v.SetDefault("scrape.min_sleep", 900)
	v.SetDefault("scrape.max_sleep", 1500)
	v.SetDefault("scrape.min_request_delay", 5)
	v.SetDefault("scrape.max_request_delay", 20)
	v.SetDefault("scrape.metrics_port", 9102)

	v.SetDefault("poi.max_walking_minutes", 15)
	v.SetDefault("poi.max_transit_km", 2)

	// Secrets need a registered key for env overrides to reach Unmarshal.
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.zoom", 14)
	v.SetDefault("maps.size", "400x400")
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.channel", "")
	v.SetDefault("slack.base_url", "https://slack.com/api")
	v.SetDefault("airtable.api_key", "")
	v.SetDefault("airtable.base_id", "")
	v.SetDefault("airtable.table", "All Results")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
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

	errs = append(errs, c.Scrape.validate()...)
	errs = append(errs, c.POIs.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s ScrapeConfig) validate() []string {
	var errs []string
	if s.Site == "" {
		errs = append(errs, "scrape.site is required")
	}
	if len(s.Areas) == 0 {
		errs = append(errs, "scrape.areas must list at least one area")
	}
	if s.Category == "" {
		errs = append(errs, "scrape.category is required")
	}
	if s.MinPrice > s.MaxPrice && s.MaxPrice > 0 {
		errs = append(errs, fmt.Sprintf("scrape.min_price (%d) exceeds scrape.max_price (%d)", s.MinPrice, s.MaxPrice))
	}
	if s.LimitPerArea <= 0 {
		errs = append(errs, "scrape.limit_per_area must be positive")
	}
	if s.MinSleep < 0 || s.MinSleep > s.MaxSleep {
		errs = append(errs, fmt.Sprintf("scrape.min_sleep/max_sleep must satisfy 0 <= min <= max, got %d/%d", s.MinSleep, s.MaxSleep))
	}
	if s.MinRequestDelay < 0 || s.MinRequestDelay > s.MaxRequestDelay {
		errs = append(errs, fmt.Sprintf("scrape.min_request_delay/max_request_delay must satisfy 0 <= min <= max, got %d/%d", s.MinRequestDelay, s.MaxRequestDelay))
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("scrape.timezone %q: %v", s.Timezone, err))
	}
	return errs
}

func (p POIConfig) validate() []string {
	var errs []string
	seen := make(map[string]bool, len(p.Regions))
	for i, r := range p.Regions {
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("poi.regions[%d].name is required", i))
		} else if seen[r.Name] {
			errs = append(errs, fmt.Sprintf("poi.regions[%d].name %q is duplicated", i, r.Name))
		}
		seen[r.Name] = true
		if len(r.Corners) != 2 || len(r.Corners[0]) != 2 || len(r.Corners[1]) != 2 {
			errs = append(errs, fmt.Sprintf("poi.regions[%d].corners must be two [lat, lon] pairs", i))
		}
	}
	for i, s := range p.TransitStops {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("poi.transit_stops[%d].name is required", i))
		}
	}
	if p.MaxWalkingMinutes < 0 {
		errs = append(errs, "poi.max_walking_minutes must not be negative")
	}
	if p.MaxTransitKm < 0 {
		errs = append(errs, "poi.max_transit_km must not be negative")
	}
	return errs
}

// POI converts the poi section into the resolver configuration.
// Call only on a validated Config.
func (c *Config) POI() poi.Config {
	out := poi.Config{
		Neighborhoods:     append([]string(nil), c.POIs.Neighborhoods...),
		MaxWalkingMinutes: c.POIs.MaxWalkingMinutes,
		MaxTransitKm:      c.POIs.MaxTransitKm,
	}
	for _, r := range c.POIs.Regions {
		out.Regions = append(out.Regions, domain.Region{
			Name: r.Name,
			Corners: [2]domain.GeoPoint{
				{Lat: r.Corners[0][0], Lon: r.Corners[0][1]},
				{Lat: r.Corners[1][0], Lon: r.Corners[1][1]},
			},
		})
	}
	for _, s := range c.POIs.TransitStops {
		out.TransitStops = append(out.TransitStops, domain.TransitStop{
			Name:     s.Name,
			Location: domain.GeoPoint{Lat: s.Lat, Lon: s.Lon},
		})
	}
	return out
}
