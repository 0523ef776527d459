package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// RuntimeConfig controls the periodic security runtime.
type RuntimeConfig struct {
	Enabled                  *bool   `yaml:"enabled"`
	SampleIntervalSeconds    float64 `yaml:"sample_interval_seconds"`
	EvolutionIntervalSeconds float64 `yaml:"evolution_interval_seconds"`
}

// AlertingFileConfig is the on-disk portion of the alerting configuration.
// The full runtime config lives in the dispatcher and is patchable over HTTP.
type AlertingFileConfig struct {
	Enabled          *bool  `yaml:"enabled"`
	FeishuWebhookURL string `yaml:"feishu_webhook_url"`
	WecomWebhookURL  string `yaml:"wecom_webhook_url"`
	SMSProvider      string `yaml:"sms_provider"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the full file configuration for the API server.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Runtime  RuntimeConfig      `yaml:"runtime"`
	Alerting AlertingFileConfig `yaml:"alerting"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// GetDefaultAppConfig returns the configuration used when no file is given.
func GetDefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port: "8080",
		},
		Runtime: RuntimeConfig{
			SampleIntervalSeconds:    1,
			EvolutionIntervalSeconds: 2.5,
		},
		Alerting: AlertingFileConfig{
			SMSProvider: "console",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "json",
		},
	}
}

// LoadAppConfig reads the YAML config file and validates it. An empty
// filename yields the defaults.
func LoadAppConfig(filename string) (*AppConfig, error) {
	config := GetDefaultAppConfig()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %v", filename, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file %s: %v", filename, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	return config, nil
}

// Validate fills in defaults for missing values.
func (c *AppConfig) Validate() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Runtime.SampleIntervalSeconds <= 0 {
		c.Runtime.SampleIntervalSeconds = 1
	}
	if c.Runtime.EvolutionIntervalSeconds <= 0 {
		c.Runtime.EvolutionIntervalSeconds = 2.5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	return nil
}

// RuntimeEnabled reports whether the periodic runtime should start.
// Unset means enabled.
func (c *AppConfig) RuntimeEnabled() bool {
	return c.Runtime.Enabled == nil || *c.Runtime.Enabled
}

// AlertingEnabled reports whether alert delivery starts enabled.
// Unset means enabled.
func (c *AppConfig) AlertingEnabled() bool {
	return c.Alerting.Enabled == nil || *c.Alerting.Enabled
}
