package alert

import "secops-console/internal/model"

// Notifier delivers an alert message over one concrete channel transport.
type Notifier interface {
	Send(msg model.AlertMessage) error
}
