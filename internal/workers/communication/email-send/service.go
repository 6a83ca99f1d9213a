package emailsend

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/models"
)

// sendFunc is smtp.SendMail with a context bounding the exchange.
type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Service delivers notification messages over SMTP.
type Service struct {
	config   *Config
	logger   logger.Logger
	sendMail sendFunc
	now      func() time.Time
}

func NewService(config *Config, log logger.Logger) *Service {
	s := &Service{
		config: config,
		logger: log.WithFields(map[string]interface{}{"provider": "smtp"}),
		now:    time.Now,
	}
	s.sendMail = s.deliver
	return s
}

// Send validates the addresses, renders the MIME message and hands it to the server.
func (s *Service) Send(ctx context.Context, msg models.Message) error {
	if err := validateAddresses(msg); err != nil {
		return apperrors.NewNotificationSendFailedError("smtp", err)
	}

	raw, err := s.buildEmailMessage(msg)
	if err != nil {
		return apperrors.NewNotificationSendFailedError("smtp", err)
	}

	if err := s.sendSMTP(ctx, msg, raw); err != nil {
		s.logger.Error("SMTP delivery failed", map[string]interface{}{
			"to":    msg.To,
			"error": err.Error(),
		})
		return apperrors.NewNotificationSendFailedError("smtp", err)
	}

	s.logger.Info("Email sent successfully", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}

func (s *Service) buildEmailMessage(msg models.Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", s.generateMessageID(msg.To))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.Body)
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)
	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Body},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	buf.Write(parts.Bytes())
	return buf.Bytes(), nil
}

func (s *Service) sendSMTP(ctx context.Context, msg models.Message, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	// The connection deadline bounds the exchange itself; the select only
	// lets a cancellation return early.
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(ctx, addr, auth, msg.From, []string{msg.To}, raw)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send aborted: %w", ctx.Err())
	}
}

// dial connects with a bounded dial and puts a deadline on all further IO:
// the earlier of the context deadline and the configured timeout.
func (s *Service) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: s.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	deadline := time.Now().Add(s.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set connection deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read SMTP greeting: %w", err)
	}
	return client, nil
}

// deliver runs one SMTP transaction. STARTTLS is required when UseTLS is set
// and used opportunistically otherwise.
func (s *Service) deliver(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := s.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok || s.config.UseTLS {
		if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (s *Service) generateMessageID(to string) string {
	return fmt.Sprintf("<%d.%s@%s>", s.now().UnixNano(), sanitizeEmail(to), s.config.SMTPHost)
}

func sanitizeEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, local)
	if len(local) > 10 {
		local = local[:10]
	}
	if local == "" {
		return "user"
	}
	return local
}

// TestConnection dials the server (and upgrades to TLS when configured). Used by the readiness probe.
func (s *Service) TestConnection(ctx context.Context) error {
	client, err := s.dial(ctx, fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort))
	if err != nil {
		return err
	}
	defer client.Close()

	if s.config.UseTLS {
		if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return client.Quit()
}
