// Package mail is the activation-dispatch collaborator: it hands the emailed
// activation link to an external HTTP provider and is never on the critical
// path of registration.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Mailer dispatches an activation token to an address.
type Mailer interface {
	SendActivation(ctx context.Context, toEmail, token string) error
}

// Client talks to a transactional mail provider over JSON POST.
type Client struct {
	endpoint    string
	serverToken string
	fromEmail   string
	baseURL     string
	linkTTL     time.Duration
	httpClient  *http.Client
}

var _ Mailer = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient injects the transport, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLinkTTL sets the activation link lifetime quoted in the mail body. It
// must match the service's activation TTL.
func WithLinkTTL(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.linkTTL = d
		}
	}
}

// NewClient builds a provider client. endpoint is the provider's send URL,
// baseURL is this service's public origin used to build activation links.
func NewClient(endpoint, serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		linkTTL:     24 * time.Hour,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the provider credentials are set.
func (c *Client) Configured() bool {
	return c.endpoint != "" && c.serverToken != ""
}

type providerMessage struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendActivation mails the activation link for a freshly registered account.
func (c *Client) SendActivation(ctx context.Context, toEmail, token string) error {
	if !c.Configured() {
		return fmt.Errorf("mail client not configured: missing endpoint or server token")
	}

	link := fmt.Sprintf("%s/api/auth/activate?token=%s", c.baseURL, url.QueryEscape(token))
	validity := humanDuration(c.linkTTL)
	textBody := fmt.Sprintf("Welcome to Pennywise!\n\nActivate your account by following this link:\n\n%s\n\nThe link is valid for %s and can be used once.", link, validity)
	htmlBody := fmt.Sprintf(
		`<p>Welcome to Pennywise!</p><p>Activate your account by following <a href="%s">this link</a>.</p><p>The link is valid for %s and can be used once.</p>`,
		link, validity,
	)

	payload := providerMessage{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Activate your Pennywise account",
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail provider error: status %d", resp.StatusCode)
	}
	return nil
}

// humanDuration renders a TTL the way a mail reader expects it.
func humanDuration(d time.Duration) string {
	if d >= time.Hour {
		hours := int(d.Round(time.Hour).Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
