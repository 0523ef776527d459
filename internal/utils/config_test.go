package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfigDefaultsWithoutFile(t *testing.T) {
	config, err := LoadAppConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 1.0, config.Runtime.SampleIntervalSeconds)
	assert.Equal(t, 2.5, config.Runtime.EvolutionIntervalSeconds)
	assert.True(t, config.RuntimeEnabled())
	assert.True(t, config.AlertingEnabled())
	assert.Equal(t, "INFO", config.Logging.Level)
}

func TestLoadAppConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secops.yaml")
	content := `
server:
  port: "9090"
runtime:
  enabled: false
  sample_interval_seconds: 0.5
alerting:
  feishu_webhook_url: https://open.feishu.cn/hook/x
logging:
  level: DEBUG
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadAppConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Server.Port)
	assert.False(t, config.RuntimeEnabled())
	assert.Equal(t, 0.5, config.Runtime.SampleIntervalSeconds)
	assert.Equal(t, 2.5, config.Runtime.EvolutionIntervalSeconds, "unset values keep defaults")
	assert.Equal(t, "https://open.feishu.cn/hook/x", config.Alerting.FeishuWebhookURL)
	assert.True(t, config.AlertingEnabled(), "unset alerting switch means enabled")
	assert.Equal(t, "DEBUG", config.Logging.Level)
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	_, err := LoadAppConfig("/nonexistent/secops.yaml")
	assert.Error(t, err)
}

func TestLoadAppConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0644))

	_, err := LoadAppConfig(path)
	assert.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("DEBUG", "").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger("WARN", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("", "").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("bogus", "").GetLevel())
}

func TestNewLoggerJSONFormat(t *testing.T) {
	logger := NewLogger("INFO", "json")
	_, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}
