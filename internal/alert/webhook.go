package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
)

// WebhookNotifier posts alerts to a configured webhook endpoint (feishu or
// wecom style bots). With no URL configured it degrades to a log line so the
// channel stays usable in development.
type WebhookNotifier struct {
	url    func() string
	client *http.Client
	logger *logrus.Logger
}

type webhookPayload struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Severity   string `json:"severity"`
	EventID    string `json:"eventId,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

// NewWebhookNotifier builds a notifier resolving its target URL through url
// on every send, so config patches take effect without rewiring.
func NewWebhookNotifier(url func() string, logger *logrus.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send implements Notifier.
func (n *WebhookNotifier) Send(msg model.AlertMessage) error {
	target := n.url()
	if target == "" {
		n.logger.Infof("Webhook alert (no URL configured) [%s] %s", msg.Severity, msg.Title)
		return nil
	}

	payload := webhookPayload{
		Title:      msg.Title,
		Content:    msg.Content,
		Severity:   string(msg.Severity),
		EventID:    msg.EventID,
		OccurredAt: msg.OccurredAt.Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %v", err)
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		err = n.post(target, body)
		if err == nil {
			return nil
		}
		n.logger.Warnf("Failed to deliver webhook alert (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	return fmt.Errorf("failed to deliver webhook alert after %d attempts", maxRetries)
}

func (n *WebhookNotifier) post(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
