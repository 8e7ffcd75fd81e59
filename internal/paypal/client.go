// Package paypal implements payment.Gateway against the PayPal REST API.
//
// Only the two calls checkout needs are implemented: an OAuth2
// client-credentials token grant and payment creation. Provider error
// payloads are kept in wrapped errors for server-side logging and never
// surfaced to end users.
package paypal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/rabbitstore/checkout/internal/domain/payment"
)

// Config holds the PayPal REST API settings.
type Config struct {
	// BaseURL is the API root, e.g. https://api-m.sandbox.paypal.com.
	BaseURL      string
	ClientID     string
	ClientSecret string

	// ReturnURL and CancelURL are where PayPal redirects the customer after
	// approving or abandoning the payment.
	ReturnURL string
	CancelURL string

	// Description is attached to every payment transaction.
	Description string

	Timeout time.Duration
}

var _ payment.Gateway = (*Client)(nil)

// Client is a PayPal REST API client. It performs no retries.
type Client struct {
	cfg  Config
	http *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a PayPal client from the given configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// CreateIntent registers a payment with PayPal and returns the approval URL
// the customer must visit plus the payment identifier for later correlation.
func (c *Client) CreateIntent(ctx context.Context, items []payment.Item, total decimal.Decimal, currency string) (*payment.Intent, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := encodeCreatePayment(c.cfg, items, total, currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/payments/payment", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build payment request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(payment.ErrUnavailable, "create payment: %s", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(payment.ErrUnavailable, "read payment response: %s", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Wrapf(payment.ErrUnavailable, "payment API status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Provider detail stays in the error chain for server-side logs.
		return nil, errors.Wrapf(payment.ErrRejected, "payment API status %d: %s",
			resp.StatusCode, string(respBody))
	}

	intent, err := decodeCreatePayment(respBody)
	if err != nil {
		return nil, errors.Wrapf(payment.ErrRejected, "decode payment response: %s", err)
	}
	return intent, nil
}

// accessToken returns a cached OAuth2 token, refreshing it via the
// client-credentials grant when missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(payment.ErrUnavailable, "token request: %s", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrapf(payment.ErrUnavailable, "read token response: %s", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(payment.ErrRejected, "token API status %d: %s",
			resp.StatusCode, string(body))
	}

	token, expiresIn, err := decodeToken(body)
	if err != nil {
		return "", errors.Wrapf(payment.ErrRejected, "decode token response: %s", err)
	}

	c.token = token
	c.tokenExp = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return c.token, nil
}
