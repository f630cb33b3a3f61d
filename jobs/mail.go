package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// MailSender delivers mail:send tasks over SMTP.
type MailSender struct {
	logger *slog.Logger
	host   string
	port   int
	from   string
}

// NewMailSender creates a mail handler.
func NewMailSender(logger *slog.Logger, host string, port int, from string) *MailSender {
	return &MailSender{logger: logger, host: host, port: port, from: from}
}

// HandleMailSend processes one queued message.
func (m *MailSender) HandleMailSend(ctx context.Context, t *asynq.Task) error {
	var payload MailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: decode mail payload: %w: %v", asynq.SkipRetry, err)
	}
	if payload.To == "" {
		m.logger.Warn("mail task without recipient dropped", "subject", payload.Subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + payload.To,
		"Subject: " + payload.Subject,
		"",
		payload.Body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, nil, m.from, []string{payload.To}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send mail: %w", err)
	}
	m.logger.Info("mail sent", "to", payload.To, "subject", payload.Subject)
	return nil
}
