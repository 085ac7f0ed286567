package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"feeline/internal/fee"
)

// Config models feeline.yml.
type Config struct {
	Distribution    fee.Policy      `yaml:"distribution"`
	ProjectDefaults ProjectDefaults `yaml:"project_defaults"`
	Server          ServerConfig    `yaml:"server"`
	Log             LogConfig       `yaml:"log"`
	RBAC            struct {
		Roles map[string]RBACRole `yaml:"roles"`
	} `yaml:"rbac"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// ProjectDefaults seeds fields a new project does not specify.
type ProjectDefaults struct {
	SafetyNetPercent     fee.Percent `yaml:"safety_net_percent"`
	ManagementFeePercent fee.Percent `yaml:"management_fee_percent"`
	DeploymentFee        fee.Money   `yaml:"deployment_fee"`
	DPPercent            fee.Percent `yaml:"dp_percent"`
	CompletionPercent    fee.Percent `yaml:"completion_percent"`
	BufferPercent        fee.Percent `yaml:"buffer_percent"`
	EstimatedTotalWeight float64     `yaml:"estimated_total_weight"`
	DaysDuration         int         `yaml:"days_duration"`
}

type ServerConfig struct {
	Addr      string          `yaml:"addr"`
	BasePath  string          `yaml:"base_path"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket; zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type RBACRole struct {
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with fl config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOrDefault returns the workspace config, or Default() when the file does not exist.
func LoadOrDefault(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if err := c.Distribution.Validate(); err != nil {
		return fmt.Errorf("config.distribution: %w", err)
	}
	d := c.ProjectDefaults
	for name, p := range map[string]fee.Percent{
		"safety_net_percent":     d.SafetyNetPercent,
		"management_fee_percent": d.ManagementFeePercent,
		"dp_percent":             d.DPPercent,
		"completion_percent":     d.CompletionPercent,
		"buffer_percent":         d.BufferPercent,
	} {
		if !p.Valid() {
			return fmt.Errorf("config.project_defaults.%s must be within 0-100", name)
		}
	}
	if !d.DeploymentFee.Valid() {
		return fmt.Errorf("config.project_defaults.deployment_fee must be a non-negative amount")
	}
	if d.EstimatedTotalWeight <= 0 {
		return fmt.Errorf("config.project_defaults.estimated_total_weight must be positive")
	}
	if d.DaysDuration <= 0 {
		return fmt.Errorf("config.project_defaults.days_duration must be positive")
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("config.server.rate_limit values must not be negative")
	}
	if len(c.RBAC.Roles) > 0 {
		if _, ok := c.RBAC.Roles["admin"]; !ok {
			return fmt.Errorf("config.rbac.roles must include admin")
		}
		for roleID, role := range c.RBAC.Roles {
			if roleID == "" {
				return fmt.Errorf("config.rbac.roles contains empty role id")
			}
			for _, perm := range role.Permissions {
				if perm == "" {
					return fmt.Errorf("role %s has empty permission id", roleID)
				}
			}
		}
	}
	for i, hook := range c.Webhooks {
		u, err := url.Parse(strings.TrimSpace(hook.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config.webhooks[%d].url must be an http(s) URL", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("config.webhooks[%d].timeout_seconds must not be negative", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "feeline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Omitted sections
// keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `distribution:
  # net: management fee is taken from the budget left after the safety net
  # gross: management fee is taken from the whole budget
  management_base: net
  # realized: fee pool divided by recorded task weight
  # estimated: fee pool divided by the project's estimated total weight
  denominator: realized

project_defaults:
  safety_net_percent: 10
  management_fee_percent: 10
  deployment_fee: 0
  dp_percent: 50
  completion_percent: 40
  buffer_percent: 10
  estimated_total_weight: 327.5
  days_duration: 12

server:
  addr: 127.0.0.1:8080
  base_path: /v0
  rate_limit:
    requests_per_second: 20
    burst: 40

log:
  level: info
  file: ""
  max_size_mb: 10
  max_backups: 3
  max_age_days: 28

rbac:
  roles:
    admin:
      description: "Full access"
      permissions: ["*"]
    developer:
      description: "Read access to projects, tasks and fee reports"
      permissions:
        - project.read
        - phase.read
        - developer.read
        - task.read
        - payment.read
        - fee.read
        - dashboard.read

webhooks: []
`
