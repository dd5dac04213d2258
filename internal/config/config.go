package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Server    Server    `yaml:"server"`
	SMTP      SMTP      `yaml:"smtp"`
	Scheduler Scheduler `yaml:"scheduler"`
	Extract   Extract   `yaml:"extract"`
}

type Server struct {
	Addr          string `yaml:"addr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	PublicURL     string `yaml:"publicUrl"`
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	NoTLS    bool   `yaml:"noTLS"`
}

type Scheduler struct {
	Enabled             bool   `yaml:"enabled"`
	Cron                string `yaml:"cron"`
	SubmissionGraceDays int    `yaml:"submissionGraceDays"`
	ApprovalStaleDays   int    `yaml:"approvalStaleDays"`
	Concurrency         int    `yaml:"concurrency"`
	DedupTTL            string `yaml:"dedupTTL"`
}

type Extract struct {
	MaxUploadBytes int      `yaml:"maxUploadBytes"`
	OCRLanguages   []string `yaml:"ocrLanguages"`
}

const (
	DefaultAddr                = ":8000"
	DefaultCron                = "0 9,17 * * *"
	DefaultSubmissionGraceDays = 1
	DefaultApprovalStaleDays   = 2
	DefaultConcurrency         = 4
	DefaultDedupTTL            = 20 * time.Hour
	DefaultMaxUploadBytes      = 10 << 20
	DefaultSMTPPort            = 587
)

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = DefaultCron
	}
	if c.Scheduler.SubmissionGraceDays == 0 {
		c.Scheduler.SubmissionGraceDays = DefaultSubmissionGraceDays
	}
	if c.Scheduler.ApprovalStaleDays == 0 {
		c.Scheduler.ApprovalStaleDays = DefaultApprovalStaleDays
	}
	if c.Scheduler.Concurrency <= 0 {
		c.Scheduler.Concurrency = DefaultConcurrency
	}
	if c.Scheduler.DedupTTL == "" {
		c.Scheduler.DedupTTL = DefaultDedupTTL.String()
	}
	if c.Extract.MaxUploadBytes <= 0 {
		c.Extract.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(c.Extract.OCRLanguages) == 0 {
		c.Extract.OCRLanguages = []string{"eng"}
	}
}

func (c Config) Validate() error {
	if c.Server.PostgresDsn == "" {
		return fmt.Errorf("server.postgresDsn is required")
	}
	if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
		return fmt.Errorf("scheduler.cron: %w", err)
	}
	if _, err := time.ParseDuration(c.Scheduler.DedupTTL); err != nil {
		return fmt.Errorf("scheduler.dedupTTL: %w", err)
	}
	if c.Server.EnableTrace && c.Server.TraceEndpoint == "" {
		return fmt.Errorf("server.traceEndpoint is required when tracing is enabled")
	}
	return nil
}

// DedupWindow is the parsed scheduler.dedupTTL.
func (s Scheduler) DedupWindow() time.Duration {
	d, err := time.ParseDuration(s.DedupTTL)
	if err != nil {
		return DefaultDedupTTL
	}
	return d
}
