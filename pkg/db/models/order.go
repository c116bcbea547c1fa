package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

// Order is a purchase made through the external checkout flow. Amounts are pence.
type Order struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	CaseID                *uuid.UUID          `gorm:"column:case_id;type:uuid" json:"case_id,omitempty"`
	ProductType           enums.ProductType   `gorm:"column:product_type;type:text;not null" json:"product_type"`
	Amount                int64               `gorm:"column:amount;not null" json:"amount"`
	Currency              string              `gorm:"column:currency;type:text;not null;default:'gbp'" json:"currency"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'processing'" json:"status"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id;type:text" json:"stripe_payment_intent_id,omitempty"`
	StripeRefundID        *string             `gorm:"column:stripe_refund_id;type:text" json:"stripe_refund_id,omitempty"`
	FailureReason         *string             `gorm:"column:failure_reason;type:text" json:"failure_reason,omitempty"`
	RefundedAt            *time.Time          `gorm:"column:refunded_at" json:"refunded_at,omitempty"`
	EmailSentAt           *time.Time          `gorm:"column:email_sent_at" json:"email_sent_at,omitempty"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
