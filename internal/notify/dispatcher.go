package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/util"
)

// Notification kinds used for logging and metrics labels.
const (
	kindOrderConfirmation   = "order_confirmation"
	kindPaymentConfirmation = "payment_confirmation"
	kindStatusUpdate        = "status_update"
)

// Dispatcher fans order notifications out to the email and SMS sinks.
// Every send is fire-and-forget: callers return immediately, failures are
// logged and counted but never propagated. Delivery is at-most-once.
type Dispatcher struct {
	mailer  Mailer
	texter  Texter
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given sinks. Either sink may be
// nil, in which case that channel is skipped.
func NewDispatcher(mailer Mailer, texter Texter) *Dispatcher {
	return &Dispatcher{
		mailer:  mailer,
		texter:  texter,
		logger:  util.GetLogger(),
		timeout: 15 * time.Second,
	}
}

// SendOrderConfirmation notifies the customer that the order was placed.
func (d *Dispatcher) SendOrderConfirmation(snap models.OrderSnapshot) {
	if snap.Email != "" {
		subject := fmt.Sprintf("Order %s confirmed", snap.OrderNumber)
		body := fmt.Sprintf("Hi %s, we received your order %s for %d. We will keep you posted.",
			snap.CustomerName, snap.OrderNumber, snap.Total)
		d.mail(kindOrderConfirmation, snap.Email, subject, body)
	}
	if snap.Phone != "" {
		msg := fmt.Sprintf("Your order %s is confirmed. Total: %d.", snap.OrderNumber, snap.Total)
		d.text(kindOrderConfirmation, snap.Phone, msg)
	}
}

// SendPaymentConfirmation notifies the customer that payment was received.
func (d *Dispatcher) SendPaymentConfirmation(snap models.OrderSnapshot) {
	if snap.Email != "" {
		subject := fmt.Sprintf("Payment received for order %s", snap.OrderNumber)
		body := fmt.Sprintf("Hi %s, payment of %d for order %s was received. Your sweets are on the way soon.",
			snap.CustomerName, snap.Total, snap.OrderNumber)
		d.mail(kindPaymentConfirmation, snap.Email, subject, body)
	}
	if snap.Phone != "" {
		msg := fmt.Sprintf("Payment of %d received for order %s.", snap.Total, snap.OrderNumber)
		d.text(kindPaymentConfirmation, snap.Phone, msg)
	}
}

// SendStatusUpdate notifies the customer of an order status change by SMS.
func (d *Dispatcher) SendStatusUpdate(phone, orderNumber, newStatus string) {
	if phone == "" {
		return
	}
	msg := fmt.Sprintf("Update: your order %s is now %s.", orderNumber, newStatus)
	d.text(kindStatusUpdate, phone, msg)
}

// Wait blocks until all in-flight sends finish. Used during shutdown and in
// tests; business callers never wait.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) mail(kind, to, subject, body string) {
	if d.mailer == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.mailer.SendMail(ctx, to, subject, body); err != nil {
			util.NotificationsFailedTotal.WithLabelValues("email", kind).Inc()
			d.logger.Error("Failed to send email notification",
				zap.String("kind", kind),
				zap.Error(err))
			return
		}
		util.NotificationsSentTotal.WithLabelValues("email", kind).Inc()
	}()
}

func (d *Dispatcher) text(kind, phone, message string) {
	if d.texter == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.texter.SendSMS(ctx, phone, message); err != nil {
			util.NotificationsFailedTotal.WithLabelValues("sms", kind).Inc()
			d.logger.Error("Failed to send SMS notification",
				zap.String("kind", kind),
				zap.Error(err))
			return
		}
		util.NotificationsSentTotal.WithLabelValues("sms", kind).Inc()
	}()
}
