package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/velodesk/velodesk/internal/masterdata"
	"github.com/velodesk/velodesk/internal/workorder"
)

// QuoteNotifier enqueues a quote e-mail when a quote goes out. It
// implements workorder.Notifier.
type QuoteNotifier struct {
	client     *asynq.Client
	masterdata *masterdata.Service
}

// NewQuoteNotifier creates the notifier.
func NewQuoteNotifier(client *asynq.Client, md *masterdata.Service) *QuoteNotifier {
	return &QuoteNotifier{client: client, masterdata: md}
}

// QuoteSent enqueues the notification mail for the order's client.
// Clients without an e-mail address are skipped silently; the quote is
// then handled over the phone.
func (n *QuoteNotifier) QuoteSent(ctx context.Context, order *workorder.WorkOrder) error {
	client, err := n.masterdata.GetClient(ctx, order.ClientID)
	if err != nil {
		return err
	}
	if client.Email == "" {
		return nil
	}

	task, err := NewMailTask(MailPayload{
		To:      client.Email,
		Subject: fmt.Sprintf("Additional work quote for repair order #%d", order.ID),
		Body: fmt.Sprintf(
			"Hello %s,\n\nDuring the repair we found additional work beyond the agreed scope. "+
				"The updated total would be %.2f (originally %.2f). "+
				"Please reply to approve or reject the additional items.\n\nVelodesk",
			client.Name, workorder.BillableTotal(order), order.OriginalAmount),
	})
	if err != nil {
		return err
	}
	_, err = n.client.EnqueueContext(ctx, task)
	return err
}
