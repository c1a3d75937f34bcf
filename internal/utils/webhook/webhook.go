package webhook

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwarvesf/withdrawal-engine/internal/model"
	"github.com/dwarvesf/withdrawal-engine/internal/utils/logger"
)

// Client delivers withdrawal terminal-state events to an operator
// webhook. Delivery is best effort; the engine never blocks on it.
type Client struct {
	client     *resty.Client
	webhookURL string
	logger     *logger.Logger
}

type settledEvent struct {
	WithdrawalID string                `json:"withdrawal_id"`
	State        model.WithdrawalState `json:"state"`
	TxHash       string                `json:"tx_hash,omitempty"`
	Reason       string                `json:"reason,omitempty"`
	OccurredAt   time.Time             `json:"occurred_at"`
}

func New(webhookURL string, logger *logger.Logger) *Client {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &Client{
		client:     client,
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// WithdrawalSettled implements txqueue.Notifier.
func (c *Client) WithdrawalSettled(withdrawalID string, state model.WithdrawalState, txHash string, reason string) {
	if c.webhookURL == "" {
		return
	}

	go c.deliver(settledEvent{
		WithdrawalID: withdrawalID,
		State:        state,
		TxHash:       txHash,
		Reason:       reason,
		OccurredAt:   time.Now(),
	})
}

func (c *Client) deliver(event settledEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(c.webhookURL)
	if err != nil {
		c.logger.Error("[deliver][Post] failed to deliver withdrawal webhook", map[string]string{
			"url":   c.webhookURL,
			"error": err.Error(),
		})
		return
	}

	c.logger.Info("[deliver] delivered withdrawal webhook", map[string]string{
		"url":           c.webhookURL,
		"withdrawal_id": event.WithdrawalID,
		"status_code":   resp.Status(),
	})
}
