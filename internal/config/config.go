package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Lot    LotConfig    `yaml:"lot"`
	Redis  RedisConfig  `yaml:"redis"`
	SQS    SQSConfig    `yaml:"sqs"`
	Mock   MockConfig   `yaml:"mock"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Origins allowed by CORS and the websocket upgrade. An origin passes
	// when it is listed exactly, ends with one of the suffixes, or contains
	// one of the substrings.
	AllowedOrigins    []string `yaml:"allowed_origins"`
	AllowedSuffixes   []string `yaml:"allowed_origin_suffixes"`
	AllowedSubstrings []string `yaml:"allowed_origin_substrings"`

	MaxConnections  int           `yaml:"max_connections"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LotConfig struct {
	TotalSlots   int                    `yaml:"total_slots"`
	LogTrigger   int                    `yaml:"log_trigger"`
	LogRetain    int                    `yaml:"log_retain"`
	Availability lot.AvailabilityPolicy `yaml:"availability"`
	Info         lot.Info               `yaml:"info"`
}

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
	// Key holds the latest snapshot so late readers do not need to wait for
	// the next publish.
	Key string `yaml:"key"`
}

type SQSConfig struct {
	Enabled          bool          `yaml:"enabled"`
	QueueURL         string        `yaml:"queue_url"`
	Region           string        `yaml:"region"`
	WaitTime         time.Duration `yaml:"wait_time"`
	MaxMessages      int32         `yaml:"max_messages"`
	FailureThreshold int           `yaml:"failure_threshold"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
}

type MockConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4000,
			Host: "0.0.0.0",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
			AllowedSuffixes:   []string{".vercel.app"},
			AllowedSubstrings: []string{"ngrok"},
			ShutdownTimeout:   5 * time.Second,
		},
		Lot: LotConfig{
			TotalSlots:   5,
			LogTrigger:   lot.DefaultLogTrigger,
			LogRetain:    lot.DefaultLogRetain,
			Availability: lot.PolicyOccupancy,
			Info: lot.Info{
				Name:     "Smart Parking",
				Currency: "K VND",
			},
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "parking:updates",
			Key:     "parking:state",
		},
		SQS: SQSConfig{
			WaitTime:         20 * time.Second,
			MaxMessages:      10,
			FailureThreshold: 3,
			RetryDelay:       5 * time.Second,
		},
		Mock: MockConfig{
			Interval: 2 * time.Second,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// LoadEnv reads KEY=value pairs from the given dotenv files into the
// process environment. Missing files are skipped and variables already
// set are never overwritten.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("HOST"); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("TOTAL_SLOTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOTAL_SLOTS %q: %w", v, err)
		}
		c.Lot.TotalSlots = n
	}
	if v, ok := lookup("AVAILABILITY_POLICY"); ok && v != "" {
		c.Lot.Availability = lot.AvailabilityPolicy(v)
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := lookup("SQS_QUEUE_URL"); ok && v != "" {
		c.SQS.QueueURL = v
		c.SQS.Enabled = true
	}
	if v, ok := lookup("AWS_REGION"); ok && v != "" {
		c.SQS.Region = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative"))
	}
	if c.Lot.TotalSlots <= 0 {
		errs = append(errs, fmt.Errorf("lot.total_slots must be positive, got %d", c.Lot.TotalSlots))
	}
	if c.Lot.LogTrigger <= 0 || c.Lot.LogRetain <= 0 {
		errs = append(errs, fmt.Errorf("lot.log_trigger and lot.log_retain must be positive"))
	} else if c.Lot.LogRetain > c.Lot.LogTrigger {
		errs = append(errs, fmt.Errorf("lot.log_retain %d exceeds lot.log_trigger %d", c.Lot.LogRetain, c.Lot.LogTrigger))
	}
	if !c.Lot.Availability.Valid() {
		errs = append(errs, fmt.Errorf("lot.availability %q: want %q or %q", c.Lot.Availability, lot.PolicyOccupancy, lot.PolicyRig))
	}
	for i, r := range c.Lot.Info.Readers {
		if r.Role != lot.ReaderEntry && r.Role != lot.ReaderExit {
			errs = append(errs, fmt.Errorf("lot.info.readers[%d] role %q: want entry or exit", i, r.Role))
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("redis.addr is required when redis is enabled"))
	}
	if c.SQS.Enabled && c.SQS.QueueURL == "" {
		errs = append(errs, fmt.Errorf("sqs.queue_url is required when sqs is enabled"))
	}
	if c.SQS.Enabled && (c.SQS.MaxMessages < 1 || c.SQS.MaxMessages > 10) {
		errs = append(errs, fmt.Errorf("sqs.max_messages %d out of range 1..10", c.SQS.MaxMessages))
	}
	return errors.Join(errs...)
}
