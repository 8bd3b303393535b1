package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Kabre57/progiteck-sub001/internal/config"
)

// Client delivers operational alerts to the configured webhook.
type Client interface {
	SendLowStockAlert(ctx context.Context, alert LowStockAlert) error
}

// LowStockAlert is the payload posted when materials cross their alert
// threshold.
type LowStockAlert struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Materials   []MaterialAlert `json:"materials"`
}

// MaterialAlert is one low material line of an alert.
type MaterialAlert struct {
	MaterialID string `json:"material_id"`
	Reference  string `json:"reference"`
	Available  int    `json:"available"`
	Threshold  int    `json:"threshold"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	path       string
}

// NewClient builds a webhook notifier from the provided configuration.
func NewClient(cfg config.NotifierConfig) *APIClient {
	base := strings.TrimSuffix(cfg.WebhookURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	if cfg.AuthToken != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AuthToken))
	}

	return &APIClient{httpClient: restyClient, path: "/alerts/stock"}
}

type webhookError struct {
	Error string `json:"error"`
}

// SendLowStockAlert posts the alert payload to the webhook.
func (c *APIClient) SendLowStockAlert(ctx context.Context, alert LowStockAlert) error {
	apiErr := new(webhookError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		SetError(apiErr).
		Post(c.path)
	if err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: status=%d, message=%s", resp.StatusCode(), apiErr.Error)
	}

	return nil
}
