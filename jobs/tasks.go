// Package jobs runs background work over asynq: outbound mail, quote
// follow-up reminders and the low-stock reorder scan.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Queue names.
const (
	QueueDefault = "default"
	QueueMail    = "mail"
)

// Task types.
const (
	TypeMailSend         = "mail:send"
	TypeQuoteFollowUp    = "workorder:quote_followup"
	TypeStockReorderScan = "catalog:reorder_scan"
)

// MailPayload describes one outbound message.
type MailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewMailTask builds a mail:send task.
func NewMailTask(payload MailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMailSend, data, asynq.Queue(QueueMail), asynq.MaxRetry(5)), nil
}
