package model

import "time"

// AlertChannel is one of the fixed notification channels.
type AlertChannel string

const (
	ChannelFeishu AlertChannel = "feishu"
	ChannelWecom  AlertChannel = "wecom"
	ChannelSMS    AlertChannel = "sms"
)

// ValidChannel reports whether c is a known alert channel.
func ValidChannel(c AlertChannel) bool {
	switch c {
	case ChannelFeishu, ChannelWecom, ChannelSMS:
		return true
	}
	return false
}

// AlertMessage is one outbound notification, kept in the bounded history.
type AlertMessage struct {
	Channel    AlertChannel `json:"channel"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Severity   Severity     `json:"severity"`
	EventID    string       `json:"eventId,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// SendResult reports the outcome of an alert dispatch.
type SendResult struct {
	OK      bool         `json:"ok"`
	Channel AlertChannel `json:"channel"`
}
