package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the prior-authorization service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Rules     RulesConfig     `yaml:"rules"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls the gRPC, REST and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ReasoningConfig configures the hosted reasoning endpoint. An empty BaseURL
// selects the built-in heuristic reasoner.
type ReasoningConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	APIKey     string        `yaml:"apiKey"`
	Deployment string        `yaml:"deployment"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PipelineConfig tunes routing and retrieval.
type PipelineConfig struct {
	ApprovalThreshold    float64       `yaml:"approvalThreshold"`
	TopK                 int           `yaml:"topK"`
	StageTimeout         time.Duration `yaml:"stageTimeout"`
	PayerScopedRetrieval bool          `yaml:"payerScopedRetrieval"`
}

// CorpusConfig points at an optional policy corpus file.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// RulesConfig controls gap rule-pack loading for the heuristic reasoner.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig enables the SQLite journal when JournalPath is set.
type StoreConfig struct {
	JournalPath string `yaml:"journalPath"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls caching of reasoning responses.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Memory       bool          `yaml:"memory"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	ReasoningTTL time.Duration `yaml:"reasoningTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CLEARPATH_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	// Zero would submit every case, and the pipeline reads it as unset.
	if c.Pipeline.ApprovalThreshold <= 0 || c.Pipeline.ApprovalThreshold > 1 {
		errs = append(errs, fmt.Errorf("pipeline.approvalThreshold must be within (0,1], got %v", c.Pipeline.ApprovalThreshold))
	}
	if c.Pipeline.TopK < 1 {
		errs = append(errs, fmt.Errorf("pipeline.topK must be at least 1, got %d", c.Pipeline.TopK))
	}
	if c.Pipeline.StageTimeout <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.stageTimeout must be positive"))
	}
	if c.Reasoning.BaseURL != "" && c.Reasoning.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("reasoning.timeout must be positive"))
	}
	if c.Server.Address == "" {
		errs = append(errs, fmt.Errorf("server.address is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Reasoning: ReasoningConfig{
			Deployment: "gpt-4o",
			Timeout:    30 * time.Second,
		},
		Pipeline: PipelineConfig{
			ApprovalThreshold: 0.70,
			TopK:              5,
			StageTimeout:      30 * time.Second,
		},
		Rules:   RulesConfig{Path: "configs/rules/gaps.yaml"},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			ReasoningTTL: 10 * time.Minute,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLEARPATH_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CLEARPATH_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("CLEARPATH_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CLEARPATH_REASONING_URL"); v != "" {
		cfg.Reasoning.BaseURL = v
	}
	if v := os.Getenv("CLEARPATH_REASONING_API_KEY"); v != "" {
		cfg.Reasoning.APIKey = v
	}
	if v := os.Getenv("CLEARPATH_REASONING_DEPLOYMENT"); v != "" {
		cfg.Reasoning.Deployment = v
	}
	if v := os.Getenv("CLEARPATH_REASONING_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoning.Timeout = d
		}
	}
	if v := os.Getenv("CLEARPATH_APPROVAL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.ApprovalThreshold = f
		}
	}
	if v := os.Getenv("CLEARPATH_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.TopK = k
		}
	}
	if v := os.Getenv("CLEARPATH_STAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.StageTimeout = d
		}
	}
	if v := os.Getenv("CLEARPATH_PAYER_SCOPED_RETRIEVAL"); v != "" {
		cfg.Pipeline.PayerScopedRetrieval = truthy(v)
	}
	if v := os.Getenv("CLEARPATH_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("CLEARPATH_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("CLEARPATH_JOURNAL_PATH"); v != "" {
		cfg.Store.JournalPath = v
	}
	if v := os.Getenv("CLEARPATH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CLEARPATH_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("CLEARPATH_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = truthy(v)
	}
	if v := os.Getenv("CLEARPATH_CACHE_MEMORY"); v != "" {
		cfg.Cache.Memory = truthy(v)
	}
	if v := os.Getenv("CLEARPATH_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CLEARPATH_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("CLEARPATH_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CLEARPATH_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("CLEARPATH_CACHE_TLS"); truthy(v) {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("CLEARPATH_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("CLEARPATH_CACHE_REASONING_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReasoningTTL = d
		}
	}
}

func truthy(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
