package alert

import (
	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes alerts to the process log.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send implements Notifier.
func (n *LogNotifier) Send(msg model.AlertMessage) error {
	n.logger.Warnf("ALERT [%s] %s: %s", msg.Severity, msg.Title, msg.Content)
	return nil
}
