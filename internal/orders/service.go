package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/metrics"
	"github.com/landlordheaven/heaven-backend/pkg/stripe"
)

// Refunder issues refunds with the payment provider.
type Refunder interface {
	Refund(ctx context.Context, req stripe.RefundRequest) (*stripe.RefundResult, error)
}

// ConfirmationMailer sends the purchase confirmation for an order.
type ConfirmationMailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// Service defines the admin order operations.
type Service interface {
	List(ctx context.Context, q ListQuery) (*dto.OrdersPage, error)
	ListFailedPayments(ctx context.Context, q ListQuery) (*dto.OrdersPage, error)
	Refund(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*dto.OrderActionResult, error)
	ResendEmail(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*dto.OrderActionResult, error)
}

type service struct {
	repo     Repository
	refunder Refunder
	mailer   ConfirmationMailer
	metrics  *metrics.ActionMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires admin order dependencies.
func NewService(repo Repository, refunder Refunder, mailer ConfirmationMailer, actionMetrics *metrics.ActionMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if refunder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "refunder required")
	}
	if mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "confirmation mailer required")
	}
	return &service{
		repo:     repo,
		refunder: refunder,
		mailer:   mailer,
		metrics:  actionMetrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, q ListQuery) (*dto.OrdersPage, error) {
	return s.list(ctx, q, false)
}

func (s *service) ListFailedPayments(ctx context.Context, q ListQuery) (*dto.OrdersPage, error) {
	return s.list(ctx, q, true)
}

func (s *service) list(ctx context.Context, q ListQuery, failedOnly bool) (*dto.OrdersPage, error) {
	normalized, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	rows, count, err := s.repo.List(ctx, normalized, failedOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return &dto.OrdersPage{Data: rows, Count: count}, nil
}

func (s *service) Refund(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (result *dto.OrderActionResult, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.ActionRefund, started, err) }()

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only succeeded orders can be refunded").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.StripePaymentIntentID == nil || *order.StripePaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment reference to refund")
	}

	refund, err := s.refunder.Refund(ctx, stripe.RefundRequest{
		PaymentIntentID: *order.StripePaymentIntentID,
		IdempotencyKey:  "refund:" + order.ID.String(),
		Reason:          "requested_by_customer",
		Metadata: map[string]string{
			"order_id":    order.ID.String(),
			"refunded_by": actor.Label(),
		},
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "stripe refund failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe refund failed")
	}

	refundedAt := s.now()
	updated, err := s.repo.UpdateIfStatus(ctx, order.ID, enums.OrderStatusSucceeded, map[string]any{
		"status":           enums.OrderStatusRefunded,
		"stripe_refund_id": refund.ID,
		"refunded_at":      refundedAt,
		"updated_at":       refundedAt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record refund")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed while the refund was processed")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "refund_id": refund.ID, "actor": actor.Label()})
		s.logg.Info(logCtx, "order refunded")
	}
	order, err = s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &dto.OrderActionResult{Message: "Order refunded", Order: order}, nil
}

func (s *service) ResendEmail(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (result *dto.OrderActionResult, err error) {
	started := time.Now()
	defer func() { s.metrics.Observe(metrics.ActionResendEmail, started, err) }()

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation email can only be sent for succeeded orders").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.User == nil || order.User.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no customer email")
	}
	if err := s.mailer.SendOrderConfirmation(ctx, order); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "confirmation email failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send confirmation email")
	}

	sentAt := s.now()
	if err := s.repo.Update(ctx, order.ID, map[string]any{"email_sent_at": sentAt, "updated_at": sentAt}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record email delivery")
	}
	order.EmailSentAt = &sentAt
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "actor": actor.Label()}), "confirmation email resent")
	}
	return &dto.OrderActionResult{Message: "Confirmation email sent to " + order.User.Email, Order: order}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}
