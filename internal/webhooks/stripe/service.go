package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/bigquery"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/metrics"
)

// orderMetadataKey is set on payment intents by the checkout flow.
const orderMetadataKey = "order_id"

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// PaymentRecorder receives every payment outcome the service applies.
type PaymentRecorder interface {
	RecordPaymentEvent(ctx context.Context, event bigquery.PaymentEvent) error
}

type ServiceParams struct {
	Orders   orderRepository
	Recorder PaymentRecorder
	Metrics  *metrics.ActionMetrics
	Logger   *logger.Logger
}

// Service keeps order payment state in step with Stripe.
type Service struct {
	orders   orderRepository
	recorder PaymentRecorder
	metrics  *metrics.ActionMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	return &Service{
		orders:   params.Orders,
		recorder: params.Recorder,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (err error) {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.ActionStripeWebhook, started, err) }()

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentProcessing,
		stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		return s.syncPaymentIntent(ctx, event, &intent)
	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		return s.syncRefund(ctx, event, &charge)
	default:
		return nil
	}
}

func (s *Service) syncPaymentIntent(ctx context.Context, event *stripe.Event, intent *stripe.PaymentIntent) error {
	eventType := event.Type
	order, err := s.findOrder(ctx, intent.ID, intent.Metadata)
	if err != nil || order == nil {
		return err
	}
	// refunds are final; late payment events must not resurrect the order
	if order.Status == enums.OrderStatusRefunded {
		return nil
	}

	updates := map[string]any{"updated_at": s.now()}
	if order.StripePaymentIntentID == nil {
		updates["stripe_payment_intent_id"] = intent.ID
	}
	switch eventType {
	case stripe.EventTypePaymentIntentSucceeded:
		updates["status"] = enums.OrderStatusSucceeded
		updates["payment_status"] = enums.PaymentStatusSucceeded
		updates["failure_reason"] = nil
	case stripe.EventTypePaymentIntentProcessing:
		updates["status"] = enums.OrderStatusProcessing
		updates["payment_status"] = enums.PaymentStatusPending
	case stripe.EventTypePaymentIntentPaymentFailed:
		updates["status"] = enums.OrderStatusFailed
		updates["payment_status"] = enums.PaymentStatusFailed
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			updates["failure_reason"] = intent.LastPaymentError.Msg
		}
	}
	if err := s.orders.Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order payment state")
	}
	s.logInfo(ctx, order.ID, "order payment state synced from "+string(eventType))

	reason, _ := updates["failure_reason"].(string)
	s.record(ctx, event, order, updates["status"].(enums.OrderStatus), reason)
	return nil
}

func (s *Service) syncRefund(ctx context.Context, event *stripe.Event, charge *stripe.Charge) error {
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		return nil
	}
	order, err := s.findOrder(ctx, charge.PaymentIntent.ID, charge.Metadata)
	if err != nil || order == nil {
		return err
	}
	if order.Status == enums.OrderStatusRefunded {
		return nil
	}
	now := s.now()
	updates := map[string]any{
		"status":      enums.OrderStatusRefunded,
		"refunded_at": now,
		"updated_at":  now,
	}
	if charge.Refunds != nil && len(charge.Refunds.Data) > 0 && charge.Refunds.Data[0] != nil {
		updates["stripe_refund_id"] = charge.Refunds.Data[0].ID
	}
	if err := s.orders.Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record refund")
	}
	s.logInfo(ctx, order.ID, "order refunded from stripe dashboard")
	s.record(ctx, event, order, enums.OrderStatusRefunded, "")
	return nil
}

// record exports the outcome. Export failures are logged and never fail the webhook,
// the order row is already updated.
func (s *Service) record(ctx context.Context, event *stripe.Event, order *models.Order, status enums.OrderStatus, failureReason string) {
	if s.recorder == nil {
		return
	}
	row := bigquery.PaymentEvent{
		EventID:       event.ID,
		EventType:     string(event.Type),
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		ProductType:   string(order.ProductType),
		AmountPence:   order.Amount,
		Currency:      order.Currency,
		Status:        string(status),
		FailureReason: failureReason,
		OccurredAt:    s.now(),
	}
	if err := s.recorder.RecordPaymentEvent(ctx, row); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "payment event export failed", err)
	}
}

// findOrder returns nil without an error for payments that belong to no order.
func (s *Service) findOrder(ctx context.Context, intentID string, metadata map[string]string) (*models.Order, error) {
	if raw := metadata[orderMetadataKey]; raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			order, err := s.orders.FindByID(ctx, id)
			if err == nil {
				return order, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
			}
		}
	}
	if intentID == "" {
		return nil, nil
	}
	order, err := s.orders.FindByPaymentIntent(ctx, intentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "payment_intent", intentID), "stripe event for unknown order ignored")
		}
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by payment intent")
	}
	return order, nil
}

func (s *Service) logInfo(ctx context.Context, orderID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), msg)
}
