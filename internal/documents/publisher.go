package documents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/landlordheaven/heaven-backend/pkg/logger"
)

// EventTypeGenerateRequested is the message attribute for generation requests.
const EventTypeGenerateRequested = "document.generate_requested"

// Publisher sends generation requests to the document worker.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	DocumentsTopic() string
}

// GenerationRequest is the message body consumed by the document worker.
type GenerationRequest struct {
	DocumentID   uuid.UUID `json:"document_id"`
	CaseID       uuid.UUID `json:"case_id"`
	UserID       uuid.UUID `json:"user_id"`
	DocumentType string    `json:"document_type"`
	IsPreview    bool      `json:"is_preview"`
	RequestedAt  time.Time `json:"requested_at"`
}

// LogPublisher stands in for Pub/Sub in local development.
type LogPublisher struct {
	Logger *logger.Logger
	Topic  string
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	id := uuid.NewString()
	if p != nil && p.Logger != nil {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		ctx = p.Logger.WithFields(ctx, map[string]any{"topic": topic, "message_id": id, "attributes": attrs, "body": body})
		p.Logger.Info(ctx, "pubsub.publish skipped (local publisher)")
	}
	return id, nil
}

func (p *LogPublisher) DocumentsTopic() string {
	if p == nil || p.Topic == "" {
		return "local-documents"
	}
	return p.Topic
}
