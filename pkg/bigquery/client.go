package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/gcpauth"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

type Client struct {
	client        *bigquery.Client
	dataset       *bigquery.Dataset
	projectID     string
	paymentEvents string
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// PaymentEvent is one row of the payment events table. Amounts stay in pence.
type PaymentEvent struct {
	EventID       string    `bigquery:"event_id"`
	EventType     string    `bigquery:"event_type"`
	OrderID       string    `bigquery:"order_id"`
	UserID        string    `bigquery:"user_id"`
	ProductType   string    `bigquery:"product_type"`
	AmountPence   int64     `bigquery:"amount_pence"`
	Currency      string    `bigquery:"currency"`
	Status        string    `bigquery:"status"`
	FailureReason string    `bigquery:"failure_reason"`
	OccurredAt    time.Time `bigquery:"occurred_at"`
}

// InsertID deduplicates Stripe redeliveries on the streaming insert path.
func (e PaymentEvent) InsertID() string {
	return e.EventID + ":" + e.OrderID + ":" + e.Status
}

// Save implements bigquery.ValueSaver.
func (e PaymentEvent) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"event_id":       e.EventID,
		"event_type":     e.EventType,
		"order_id":       e.OrderID,
		"user_id":        e.UserID,
		"product_type":   e.ProductType,
		"amount_pence":   e.AmountPence,
		"currency":       e.Currency,
		"status":         e.Status,
		"failure_reason": e.FailureReason,
		"occurred_at":    e.OccurredAt,
	}, e.InsertID(), nil
}

// NewClient creates a BigQuery client and verifies the dataset and payment events table.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	table := strings.TrimSpace(cfg.PaymentEventsTable)
	if table == "" {
		return nil, errTableNameRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, gcpauth.ClientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	client := &Client{
		client:        bqClient,
		dataset:       bqClient.Dataset(datasetID),
		projectID:     projectID,
		paymentEvents: table,
	}
	if err := client.ensureDatasetAndTable(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "dataset", datasetID), "bigquery client initialized")
	}
	return client, nil
}

func (c *Client) ensureDatasetAndTable(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}
	if _, err := c.dataset.Table(c.paymentEvents).Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("table %q does not exist", c.paymentEvents)
		}
		return fmt.Errorf("checking table %q: %w", c.paymentEvents, err)
	}
	return nil
}

// Ping verifies the dataset and table are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errClientNotInitialized
	}
	return c.ensureDatasetAndTable(ctx)
}

// RecordPaymentEvent streams one payment outcome row.
func (c *Client) RecordPaymentEvent(ctx context.Context, event PaymentEvent) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	return c.dataset.Table(c.paymentEvents).Inserter().Put(ctx, event)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}
