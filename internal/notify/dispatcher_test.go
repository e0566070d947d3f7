package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"sweetshop-backend/internal/models"
)

type recordingMailer struct {
	mu       sync.Mutex
	subjects []string
	to       []string
	err      error
}

func (m *recordingMailer) SendMail(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.subjects = append(m.subjects, subject)
	return m.err
}

type recordingTexter struct {
	mu       sync.Mutex
	phones   []string
	messages []string
	err      error
}

func (t *recordingTexter) SendSMS(_ context.Context, phone, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phones = append(t.phones, phone)
	t.messages = append(t.messages, message)
	return t.err
}

func snapshot() models.OrderSnapshot {
	return models.OrderSnapshot{
		OrderNumber:  "ORD-1700000000000-42",
		CustomerName: "Asha",
		Email:        "asha@example.com",
		Phone:        "9876543210",
		Total:        1250,
	}
}

func TestSendOrderConfirmationHitsBothChannels(t *testing.T) {
	mailer := &recordingMailer{}
	texter := &recordingTexter{}
	d := NewDispatcher(mailer, texter)

	d.SendOrderConfirmation(snapshot())
	d.Wait()

	assert.Equal(t, []string{"asha@example.com"}, mailer.to)
	assert.Equal(t, []string{"9876543210"}, texter.phones)
	assert.Contains(t, mailer.subjects[0], "ORD-1700000000000-42")
}

func TestSendOrderConfirmationSkipsMissingContacts(t *testing.T) {
	mailer := &recordingMailer{}
	texter := &recordingTexter{}
	d := NewDispatcher(mailer, texter)

	snap := snapshot()
	snap.Email = ""
	d.SendOrderConfirmation(snap)
	d.Wait()

	assert.Empty(t, mailer.to)
	assert.Len(t, texter.phones, 1)
}

func TestSendPaymentConfirmation(t *testing.T) {
	mailer := &recordingMailer{}
	texter := &recordingTexter{}
	d := NewDispatcher(mailer, texter)

	d.SendPaymentConfirmation(snapshot())
	d.Wait()

	assert.Len(t, mailer.to, 1)
	assert.Contains(t, mailer.subjects[0], "Payment received")
	assert.Len(t, texter.messages, 1)
}

func TestSendStatusUpdate(t *testing.T) {
	texter := &recordingTexter{}
	d := NewDispatcher(nil, texter)

	d.SendStatusUpdate("9876543210", "ORD-1", "shipped")
	d.Wait()

	assert.Equal(t, []string{"9876543210"}, texter.phones)
	assert.Contains(t, texter.messages[0], "shipped")
}

func TestSendStatusUpdateNoPhone(t *testing.T) {
	texter := &recordingTexter{}
	d := NewDispatcher(nil, texter)

	d.SendStatusUpdate("", "ORD-1", "shipped")
	d.Wait()

	assert.Empty(t, texter.phones)
}

func TestSinkFailuresDoNotPropagate(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	texter := &recordingTexter{err: errors.New("sms gateway down")}
	d := NewDispatcher(mailer, texter)

	// Must not panic or block the caller.
	d.SendOrderConfirmation(snapshot())
	d.Wait()

	assert.Len(t, mailer.to, 1)
	assert.Len(t, texter.phones, 1)
}

func TestNilSinksAreSafe(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.SendOrderConfirmation(snapshot())
	d.SendPaymentConfirmation(snapshot())
	d.SendStatusUpdate("9876543210", "ORD-1", "shipped")
	d.Wait()
}
