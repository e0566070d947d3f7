package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer delivers an email to the external email service.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Texter delivers an SMS to the external SMS service.
type Texter interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// EmailClient posts messages to the hosted email service.
type EmailClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewEmailClient creates an email sink client
func NewEmailClient(endpoint, apiKey string) *EmailClient {
	return &EmailClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMail posts one email payload. The service either accepts it or the
// whole attempt fails; there is no partial delivery state to track.
func (c *EmailClient) SendMail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return err
	}
	return c.post(ctx, payload)
}

func (c *EmailClient) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}
	return nil
}

// SMSClient posts messages to the hosted SMS service.
type SMSClient struct {
	endpoint string
	apiKey   string
	senderID string
	http     *http.Client
}

// NewSMSClient creates an SMS sink client
func NewSMSClient(endpoint, apiKey, senderID string) *SMSClient {
	return &SMSClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		senderID: senderID,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS posts one SMS payload.
func (c *SMSClient) SendSMS(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"sender":  c.senderID,
		"to":      phone,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms service returned status %d", resp.StatusCode)
	}
	return nil
}
