package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

// RefundRequest describes a full refund of a payment intent.
type RefundRequest struct {
	PaymentIntentID string
	IdempotencyKey  string
	Reason          string
	Metadata        map[string]string
}

// RefundResult is the subset of the Stripe refund recorded on the order.
type RefundResult struct {
	ID     string
	Status string
	Amount int64
}

// Refund issues a full refund for the payment intent.
func (c *Client) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if c == nil || c.api == nil {
		return nil, errNotInitialized
	}
	intentID := strings.TrimSpace(req.PaymentIntentID)
	if intentID == "" {
		return nil, errors.New("payment intent id is required")
	}

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(intentID),
	}
	if req.Reason != "" {
		params.Reason = stripe.String(req.Reason)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	refund, err := c.api.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return &RefundResult{
		ID:     refund.ID,
		Status: string(refund.Status),
		Amount: refund.Amount,
	}, nil
}
