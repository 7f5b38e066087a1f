package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/checkout"
)

// Compile-time check ensuring Dispatcher satisfies checkout.Notifier.
var _ checkout.Notifier = (*Dispatcher)(nil)

// Dispatcher formats the confirmation message and posts it to the configured
// webhook. Delivery failure is logged and never surfaces to the checkout
// path: the order is already committed by the time dispatch runs.
type Dispatcher struct {
	client     *resty.Client
	webhookURL string
	phone      string
	lg         *zap.Logger
}

// NewDispatcher creates a Dispatcher. webhookURL may be empty, in which case
// no delivery is attempted and only the deep link is produced. phone is the
// destination WhatsApp number for the deep link.
func NewDispatcher(webhookURL, phone string, lg *zap.Logger) *Dispatcher {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0)

	return &Dispatcher{
		client:     client,
		webhookURL: webhookURL,
		phone:      phone,
		lg:         lg,
	}
}

// OrderConfirmed renders the summary, fires the webhook, and returns the
// payload with its deep link regardless of delivery outcome.
func (d *Dispatcher) OrderConfirmed(ctx context.Context, staged *checkout.StagedOrder, receipt checkout.Receipt) checkout.Notification {
	msg := FormatOrderSummary(staged)
	link := WhatsAppURL(d.phone, msg)

	if d.webhookURL != "" {
		resp, err := d.client.R().
			SetContext(ctx).
			SetBody(map[string]string{
				"order_id":    receipt.OrderID,
				"destination": d.phone,
				"payload":     msg,
			}).
			Post(d.webhookURL)
		switch {
		case err != nil:
			d.lg.Warn("notification dispatch failed",
				zap.String("order_id", receipt.OrderID),
				zap.Error(err),
			)
		case resp.IsError():
			d.lg.Warn("notification dispatch rejected",
				zap.String("order_id", receipt.OrderID),
				zap.Int("status", resp.StatusCode()),
			)
		}
	}

	return checkout.Notification{Message: msg, DeepLink: link}
}
