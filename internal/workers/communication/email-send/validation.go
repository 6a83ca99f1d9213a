package emailsend

import (
	"fmt"
	"strings"

	"ascend-intake/internal/common/validation"
	"ascend-intake/internal/models"
)

// validateAddresses checks every address that ends up in an SMTP command or header.
func validateAddresses(msg models.Message) error {
	if !validation.ValidateEmail(strings.TrimSpace(msg.To)) {
		return fmt.Errorf("invalid 'to' email address: %q", msg.To)
	}
	if !validation.ValidateEmail(strings.TrimSpace(msg.From)) {
		return fmt.Errorf("invalid 'from' email address: %q", msg.From)
	}
	if msg.ReplyTo != "" && !validation.ValidateEmail(strings.TrimSpace(msg.ReplyTo)) {
		return fmt.Errorf("invalid 'replyTo' email address: %q", msg.ReplyTo)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject must be a single line")
	}
	return nil
}
