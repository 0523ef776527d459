package alert

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"secops-console/internal/metrics"
	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrUnknownChannel is returned when a send names a channel the dispatcher
// does not know about.
var ErrUnknownChannel = errors.New("unknown alert channel")

const maxAlertHistory = 2000

// ChannelConfig holds the delivery settings for one webhook-backed channel.
type ChannelConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	WebhookURL string `json:"webhookUrl" yaml:"webhook_url"`
}

// SMSConfig holds the delivery settings for the SMS channel.
type SMSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Provider string `json:"provider" yaml:"provider"`
}

// Config is the full alerting configuration.
type Config struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Feishu  ChannelConfig `json:"feishu" yaml:"feishu"`
	Wecom   ChannelConfig `json:"wecom" yaml:"wecom"`
	SMS     SMSConfig     `json:"sms" yaml:"sms"`
}

// DefaultConfig enables alerting over the webhook channels with no URLs
// wired, so deliveries land in the log until webhooks are configured. SMS
// starts disabled.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Feishu:  ChannelConfig{Enabled: true},
		Wecom:   ChannelConfig{Enabled: true},
		SMS:     SMSConfig{Enabled: false, Provider: "console"},
	}
}

// ChannelPatch is a partial update for one webhook channel.
type ChannelPatch struct {
	Enabled    *bool   `json:"enabled"`
	WebhookURL *string `json:"webhookUrl"`
}

// SMSPatch is a partial update for the SMS channel.
type SMSPatch struct {
	Enabled  *bool   `json:"enabled"`
	Provider *string `json:"provider"`
}

// ConfigPatch is a partial update of the alerting configuration. Nil fields
// leave the current value untouched.
type ConfigPatch struct {
	Enabled *bool         `json:"enabled"`
	Feishu  *ChannelPatch `json:"feishu"`
	Wecom   *ChannelPatch `json:"wecom"`
	SMS     *SMSPatch     `json:"sms"`
}

// Dispatcher fans alert messages out to the configured channels and keeps a
// bounded delivery history. A global kill switch suppresses delivery while
// still recording the message.
type Dispatcher struct {
	logger *logrus.Logger
	m      *metrics.Metrics

	mu        sync.RWMutex
	cfg       Config
	history   []model.AlertMessage
	notifiers map[model.AlertChannel]Notifier
	rng       *rand.Rand
}

func NewDispatcher(cfg Config, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	d := &Dispatcher{
		logger:  logger,
		m:       m,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		notifiers: map[model.AlertChannel]Notifier{
			model.ChannelSMS: NewLogNotifier(logger),
		},
	}
	d.notifiers[model.ChannelFeishu] = NewWebhookNotifier(func() string {
		d.mu.RLock()
		defer d.mu.RUnlock()
		return d.cfg.Feishu.WebhookURL
	}, logger)
	d.notifiers[model.ChannelWecom] = NewWebhookNotifier(func() string {
		d.mu.RLock()
		defer d.mu.RUnlock()
		return d.cfg.Wecom.WebhookURL
	}, logger)
	return d
}

// RegisterNotifier replaces the transport for a channel. Used by tests and by
// deployments that bring their own delivery integration.
func (d *Dispatcher) RegisterNotifier(ch model.AlertChannel, n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[ch] = n
}

// Send records the alert and delivers it over the requested channel. The
// returned result reports whether delivery was attempted: a disabled channel
// yields ok=false, the global kill switch yields ok=true without delivery.
func (d *Dispatcher) Send(msg model.AlertMessage) (model.SendResult, error) {
	if !model.ValidChannel(msg.Channel) {
		return model.SendResult{}, fmt.Errorf("%w: %q", ErrUnknownChannel, msg.Channel)
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now()
	}

	d.mu.Lock()
	d.history = append([]model.AlertMessage{msg}, d.history...)
	if len(d.history) > maxAlertHistory {
		d.history = d.history[:maxAlertHistory]
	}
	enabled := d.cfg.Enabled
	channelEnabled := d.channelEnabledLocked(msg.Channel)
	notifier := d.notifiers[msg.Channel]
	d.mu.Unlock()

	if !enabled {
		d.logger.Debugf("Alerting disabled, recorded without delivery: %s", msg.Title)
		d.m.ObserveAlert(string(msg.Channel), "suppressed")
		return model.SendResult{OK: true, Channel: msg.Channel}, nil
	}
	if !channelEnabled {
		d.m.ObserveAlert(string(msg.Channel), "channel_disabled")
		return model.SendResult{OK: false, Channel: msg.Channel}, nil
	}

	if notifier != nil {
		go func() {
			if err := notifier.Send(msg); err != nil {
				d.logger.Errorf("Failed to deliver alert over %s: %v", msg.Channel, err)
				d.m.ObserveAlert(string(msg.Channel), "error")
				return
			}
			d.m.ObserveAlert(string(msg.Channel), "delivered")
		}()
	}
	return model.SendResult{OK: true, Channel: msg.Channel}, nil
}

func (d *Dispatcher) channelEnabledLocked(ch model.AlertChannel) bool {
	switch ch {
	case model.ChannelFeishu:
		return d.cfg.Feishu.Enabled
	case model.ChannelWecom:
		return d.cfg.Wecom.Enabled
	case model.ChannelSMS:
		return d.cfg.SMS.Enabled
	default:
		return false
	}
}

// PickChannel selects a webhook channel at random for automatic alerts.
func (d *Dispatcher) PickChannel() model.AlertChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rng.Float64() < 0.5 {
		return model.ChannelFeishu
	}
	return model.ChannelWecom
}

// History returns up to limit recent alerts, newest first.
func (d *Dispatcher) History(limit int) []model.AlertMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if limit <= 0 || limit > len(d.history) {
		limit = len(d.history)
	}
	out := make([]model.AlertMessage, limit)
	copy(out, d.history[:limit])
	return out
}

// Config returns a copy of the current alerting configuration.
func (d *Dispatcher) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// UpdateConfig applies a partial configuration update and returns the result.
func (d *Dispatcher) UpdateConfig(patch ConfigPatch) Config {
	d.mu.Lock()
	defer d.mu.Unlock()

	if patch.Enabled != nil {
		d.cfg.Enabled = *patch.Enabled
	}
	applyChannelPatch(&d.cfg.Feishu, patch.Feishu)
	applyChannelPatch(&d.cfg.Wecom, patch.Wecom)
	if patch.SMS != nil {
		if patch.SMS.Enabled != nil {
			d.cfg.SMS.Enabled = *patch.SMS.Enabled
		}
		if patch.SMS.Provider != nil {
			d.cfg.SMS.Provider = *patch.SMS.Provider
		}
	}
	return d.cfg
}

func applyChannelPatch(cfg *ChannelConfig, patch *ChannelPatch) {
	if patch == nil {
		return
	}
	if patch.Enabled != nil {
		cfg.Enabled = *patch.Enabled
	}
	if patch.WebhookURL != nil {
		cfg.WebhookURL = *patch.WebhookURL
	}
}
