package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"stock_trader/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const kiteVersion = "3"

// Client is one user's REST connection to the brokerage. Credentials are
// fixed at construction; no two users share a client.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	accessToken string
}

func NewClient(baseURL string, acc models.UserAccount) *Client {
	return &Client{
		http:        &http.Client{Timeout: 10 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      acc.APIKey,
		accessToken: acc.AccessToken,
	}
}

type envelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

// OrderRejectedError is a terminal broker-side rejection, as opposed to a
// transport failure.
type OrderRejectedError struct {
	Message   string
	ErrorType string
}

func (e *OrderRejectedError) Error() string {
	return "order rejected: " + e.ErrorType + ": " + e.Message
}

// doForm sends a form-encoded request and decodes the reply envelope into
// out, which must embed the status fields.
func (c *Client) doForm(ctx context.Context, method, path string, form string, out any) error {
	var body io.Reader
	if form != "" {
		body = strings.NewReader(form)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("X-Kite-Version", kiteVersion)
	req.Header.Set("Authorization", "token "+c.apiKey+":"+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(err, "decode envelope; body=%s", string(data))
	}
	if env.Status != "success" {
		return &OrderRejectedError{Message: env.Message, ErrorType: env.ErrorType}
	}
	if out != nil {
		if err := sonic.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "decode response; body=%s", string(data))
		}
	}
	return nil
}
