package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Globe     GlobeConfig     `mapstructure:"globe"`
	Media     MediaConfig     `mapstructure:"media"`
	GeoIP     GeoIPConfig     `mapstructure:"geoip"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
	AdminToken   string `mapstructure:"admin_token"` // required for POST/DELETE on the library; empty disables writes
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

// GlobeConfig describes the globe scene and its render loop.
type GlobeConfig struct {
	MarkersFile   string        `mapstructure:"markers_file"`
	Radius        float64       `mapstructure:"radius"`
	MarkerRadius  float64       `mapstructure:"marker_radius"`
	RotationSpeed float64       `mapstructure:"rotation_speed"` // rad/s
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	CameraX       float64       `mapstructure:"camera_x"`
	CameraY       float64       `mapstructure:"camera_y"`
	CameraZ       float64       `mapstructure:"camera_z"`
	MinDistance   float64       `mapstructure:"min_distance"`
	MaxDistance   float64       `mapstructure:"max_distance"`
	PolarMargin   float64       `mapstructure:"polar_margin"` // radians kept clear of each pole
}

type MediaConfig struct {
	BucketURL string `mapstructure:"bucket_url"`
}

type GeoIPConfig struct {
	DBPath string `mapstructure:"db_path"` // empty disables /v1/globe/locate
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file and
// environment variables, in increasing order of precedence.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "globefolio")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "globefolio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("globe.markers_file", "configs/markers.yaml")
	v.SetDefault("globe.radius", 2.0)
	v.SetDefault("globe.marker_radius", 2.1)
	v.SetDefault("globe.rotation_speed", 0.1)
	v.SetDefault("globe.frame_interval", "100ms")
	v.SetDefault("globe.camera_x", 0.0)
	v.SetDefault("globe.camera_y", 0.0)
	v.SetDefault("globe.camera_z", 5.0)
	v.SetDefault("globe.min_distance", 3.0)
	v.SetDefault("globe.max_distance", 10.0)
	v.SetDefault("globe.polar_margin", math.Pi/6)
	v.SetDefault("media.bucket_url", "https://media.example.com")
	v.SetDefault("geoip.db_path", "")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "library-publish")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GLOBEFOLIO_GLOBE_RADIUS → globe.radius
	v.SetEnvPrefix("GLOBEFOLIO")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
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

	g := c.Globe
	if g.Radius <= 0 {
		errs = append(errs, "globe.radius must be positive")
	}
	if g.MarkerRadius < g.Radius {
		errs = append(errs, fmt.Sprintf("globe.marker_radius (%g) must not be inside the globe (%g)", g.MarkerRadius, g.Radius))
	}
	if g.FrameInterval <= 0 {
		errs = append(errs, "globe.frame_interval must be positive")
	}
	if g.MinDistance <= g.Radius {
		errs = append(errs, "globe.min_distance must be outside the globe")
	}
	if g.MaxDistance <= g.MinDistance {
		errs = append(errs, "globe.max_distance must exceed globe.min_distance")
	}
	if g.PolarMargin < 0 || g.PolarMargin >= math.Pi/2 {
		errs = append(errs, "globe.polar_margin must be in [0, π/2)")
	}
	if g.CameraX == 0 && g.CameraY == 0 && g.CameraZ == 0 {
		errs = append(errs, "globe camera must not sit at the origin")
	}

	if c.Temporal.Enabled && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required when temporal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
