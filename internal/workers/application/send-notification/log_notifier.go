// internal/workers/application/send-notification/log_notifier.go
package sendnotification

import (
	"context"

	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/models"
)

// LogNotifier writes messages to the log instead of delivering them. It is
// used when notifications.provider is "log".
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithFields(map[string]interface{}{"provider": "log"})}
}

func (n *LogNotifier) Send(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info("email not delivered (log provider)", map[string]interface{}{
		"to":      msg.To,
		"from":    msg.From,
		"replyTo": msg.ReplyTo,
		"subject": msg.Subject,
		"body":    msg.Body,
	})
	return nil
}
