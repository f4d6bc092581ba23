package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HR       HRConfig       `yaml:"hr"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RabbitMQConfig holds the job-control exchange/queue configuration
type RabbitMQConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	VHost         string        `yaml:"vhost"`
	Exchange      string        `yaml:"exchange"`
	Queue         string        `yaml:"queue"`
	RoutingKey    string        `yaml:"routing_key"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// HRConfig holds the HR platform API endpoint configuration. The bearer
// token is deliberately not configurable here; it comes from the
// HR_API_TOKEN environment variable.
type HRConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// BatchConfig holds batch engine tuning
type BatchConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	MaxCallsPerMinute int           `yaml:"max_calls_per_minute"`
	TickInterval      time.Duration `yaml:"tick_interval"`
	TickBudget        time.Duration `yaml:"tick_budget"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the configuration the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateShared(); err != nil {
		return err
	}

	return nil
}

// ValidateBatchConfig checks the configuration the batch service depends on
func (c *Config) ValidateBatchConfig() error {
	if err := c.validateShared(); err != nil {
		return err
	}

	if c.Batch.TickInterval <= 0 {
		return fmt.Errorf("batch tick_interval must be greater than 0")
	}

	if c.Batch.TickBudget <= 0 {
		return fmt.Errorf("batch tick_budget must be greater than 0")
	}

	if c.Batch.TickBudget > c.Batch.TickInterval {
		return fmt.Errorf("batch tick_budget (%s) must not exceed tick_interval (%s)", c.Batch.TickBudget, c.Batch.TickInterval)
	}

	// A full slice at the paced call rate has to fit inside one tick budget,
	// or every tick would be cut off mid-slice.
	pacing := time.Minute / time.Duration(c.Batch.MaxCallsPerMinute)
	if expected := time.Duration(c.Batch.BatchSize) * pacing; expected > c.Batch.TickBudget {
		return fmt.Errorf("batch_size %d at %d calls/minute needs %s, exceeding tick_budget %s",
			c.Batch.BatchSize, c.Batch.MaxCallsPerMinute, expected, c.Batch.TickBudget)
	}

	return nil
}

// validateShared checks the sections both services use.
func (c *Config) validateShared() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if c.HR.BaseURL == "" {
		return fmt.Errorf("hr base_url is required")
	}

	if c.Batch.BatchSize <= 0 {
		return fmt.Errorf("batch batch_size must be greater than 0")
	}

	if c.Batch.MaxCallsPerMinute <= 0 {
		return fmt.Errorf("batch max_calls_per_minute must be greater than 0")
	}

	return nil
}
