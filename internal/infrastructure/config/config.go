package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Neo4J    Neo4JConfig    `mapstructure:"neo4j"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Render   RenderConfig   `mapstructure:"render"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env             string        `mapstructure:"env"`
	LogLevel        string        `mapstructure:"log_level"`
	HTTPPort        int           `mapstructure:"http_port"`
	WorkerPoolSize  int           `mapstructure:"worker_pool_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxViews        int           `mapstructure:"max_views"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	PublishEvents      bool          `mapstructure:"publish_events"`
	Enabled            bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// RenderConfig represents frame scheduling and scene configuration
type RenderConfig struct {
	MaxFPS            float64       `mapstructure:"max_fps"`
	PulseInterval     time.Duration `mapstructure:"pulse_interval"`
	ParticleThreshold int           `mapstructure:"particle_threshold"`
	ParticleCount     int           `mapstructure:"particle_count"`
	SubscriberBuffer  int           `mapstructure:"subscriber_buffer"`
}

// LayoutConfig represents node placement configuration
type LayoutConfig struct {
	SpawnExtent       float64 `mapstructure:"spawn_extent"`
	Radius            float64 `mapstructure:"radius"`
	VerticalAmplitude float64 `mapstructure:"vertical_amplitude"`
	ConnectionRadius  float64 `mapstructure:"connection_radius"`
	ConnectionLift    float64 `mapstructure:"connection_lift"`
}

// CameraConfig represents camera and orbit control configuration
type CameraConfig struct {
	FOV             float64 `mapstructure:"fov"`
	Aspect          float64 `mapstructure:"aspect"`
	InitialDistance float64 `mapstructure:"initial_distance"`
	MinDistance     float64 `mapstructure:"min_distance"`
	MaxDistance     float64 `mapstructure:"max_distance"`
	DampingFactor   float64 `mapstructure:"damping_factor"`
}

// ResolverConfig represents wallet metadata resolution configuration
type ResolverConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	TransactionLimit int           `mapstructure:"transaction_limit"`
	ConnectionLimit  int           `mapstructure:"connection_limit"`
	ExpandLimit      int           `mapstructure:"expand_limit"`
	ExpandWorkers    int           `mapstructure:"expand_workers"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith loads configuration using the given viper instance
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/crypto-bubble-map-explorer")

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 4)
	v.SetDefault("app.shutdown_timeout", "30s")
	v.SetDefault("app.max_views", 256)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "bubblemap")
	v.SetDefault("nats.consumer_group", "bubble-map-explorer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_messages", 1000)
	v.SetDefault("nats.publish_events", true)
	v.SetDefault("nats.enabled", false)

	// Neo4J defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", "10s")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "bubble_map_explorer")
	v.SetDefault("metrics.path", "/metrics")

	// Render defaults
	v.SetDefault("render.max_fps", 60)
	v.SetDefault("render.pulse_interval", "33ms")
	v.SetDefault("render.particle_threshold", 5)
	v.SetDefault("render.particle_count", 5000)
	v.SetDefault("render.subscriber_buffer", 4)

	// Layout defaults
	v.SetDefault("layout.spawn_extent", 7.5)
	v.SetDefault("layout.radius", 10)
	v.SetDefault("layout.vertical_amplitude", 5)
	v.SetDefault("layout.connection_radius", 3)
	v.SetDefault("layout.connection_lift", 1)

	// Camera defaults
	v.SetDefault("camera.fov", 50)
	v.SetDefault("camera.aspect", 16.0/9.0)
	v.SetDefault("camera.initial_distance", 20)
	v.SetDefault("camera.min_distance", 5)
	v.SetDefault("camera.max_distance", 80)
	v.SetDefault("camera.damping_factor", 0.05)

	// Resolver defaults
	v.SetDefault("resolver.timeout", "10s")
	v.SetDefault("resolver.transaction_limit", 20)
	v.SetDefault("resolver.connection_limit", 10)
	v.SetDefault("resolver.expand_limit", 8)
	v.SetDefault("resolver.expand_workers", 4)

	// Bind env for service URLs
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("neo4j.uri", "NEO4J_URI")
}
