// Package seed loads YAML fixtures into the database for local development.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Default returns the built-in fixture set.
func Default() []byte {
	return defaultFixtures
}

// Fixtures is the on-disk fixture document.
type Fixtures struct {
	Users             []userFixture        `yaml:"users"`
	Cases             []caseFixture        `yaml:"cases"`
	Orders            []orderFixture       `yaml:"orders"`
	LegalChangeEvents []legalChangeFixture `yaml:"legal_change_events"`
}

type userFixture struct {
	ID       uuid.UUID `yaml:"id"`
	Email    string    `yaml:"email"`
	FullName string    `yaml:"full_name"`
}

type caseFixture struct {
	ID             uuid.UUID          `yaml:"id"`
	UserID         uuid.UUID          `yaml:"user_id"`
	CaseType       enums.CaseType     `yaml:"case_type"`
	Jurisdiction   enums.Jurisdiction `yaml:"jurisdiction"`
	Status         enums.CaseStatus   `yaml:"status"`
	WizardProgress int                `yaml:"wizard_progress"`
	CollectedFacts map[string]any     `yaml:"collected_facts"`
}

type orderFixture struct {
	ID                    uuid.UUID           `yaml:"id"`
	UserID                uuid.UUID           `yaml:"user_id"`
	CaseID                *uuid.UUID          `yaml:"case_id"`
	ProductType           enums.ProductType   `yaml:"product_type"`
	Amount                int64               `yaml:"amount"`
	Status                enums.OrderStatus   `yaml:"status"`
	PaymentStatus         enums.PaymentStatus `yaml:"payment_status"`
	StripePaymentIntentID string              `yaml:"stripe_payment_intent_id"`
	FailureReason         string              `yaml:"failure_reason"`
	CreatedAt             time.Time           `yaml:"created_at"`
}

type legalChangeFixture struct {
	ID               uuid.UUID               `yaml:"id"`
	Title            string                  `yaml:"title"`
	Summary          string                  `yaml:"summary"`
	SourceURL        string                  `yaml:"source_url"`
	Jurisdictions    []string                `yaml:"jurisdictions"`
	Topics           []string                `yaml:"topics"`
	State            enums.LegalChangeState  `yaml:"state"`
	ImpactAssessment impactAssessmentFixture `yaml:"impact_assessment"`
}

type impactAssessmentFixture struct {
	Severity           enums.Severity `yaml:"severity"`
	Rationale          string         `yaml:"rationale"`
	ImpactedRuleIDs    []string       `yaml:"impactedRuleIds"`
	ImpactedProductIDs []string       `yaml:"impactedProductIds"`
	ImpactedRouteIDs   []string       `yaml:"impactedRouteIds"`
	RequiredReviewers  []string       `yaml:"requiredReviewers"`
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for _, c := range f.Cases {
		if !c.CaseType.IsValid() {
			return nil, fmt.Errorf("case %s: invalid case type %q", c.ID, c.CaseType)
		}
		if !c.Jurisdiction.IsValid() {
			return nil, fmt.Errorf("case %s: invalid jurisdiction %q", c.ID, c.Jurisdiction)
		}
	}
	for _, o := range f.Orders {
		if _, err := enums.ParseOrderStatus(string(o.Status)); err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
	}
	for _, e := range f.LegalChangeEvents {
		if _, err := enums.ParseLegalChangeState(string(e.State)); err != nil {
			return nil, fmt.Errorf("legal change event %s: %w", e.ID, err)
		}
	}
	return &f, nil
}

// Result counts the rows inserted by Load. Rows that already exist are skipped.
type Result struct {
	Users             int64
	Cases             int64
	Orders            int64
	LegalChangeEvents int64
}

// Load inserts the fixtures in one transaction. Existing ids are left untouched.
func Load(ctx context.Context, conn *gorm.DB, f *Fixtures) (Result, error) {
	var res Result
	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := tx.Clauses(clause.OnConflict{DoNothing: true})

		for _, u := range f.Users {
			user := models.User{ID: u.ID, Email: u.Email}
			if u.FullName != "" {
				name := u.FullName
				user.FullName = &name
			}
			q := insert.Create(&user)
			if q.Error != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, q.Error)
			}
			res.Users += q.RowsAffected
		}

		for _, c := range f.Cases {
			status := c.Status
			if status == "" {
				status = enums.CaseStatusDraft
			}
			row := models.Case{
				ID:             c.ID,
				UserID:         c.UserID,
				CaseType:       c.CaseType,
				Jurisdiction:   c.Jurisdiction,
				Status:         status,
				WizardProgress: c.WizardProgress,
				CollectedFacts: types.JSONMap(c.CollectedFacts),
			}
			q := insert.Create(&row)
			if q.Error != nil {
				return fmt.Errorf("seed case %s: %w", c.ID, q.Error)
			}
			res.Cases += q.RowsAffected
		}

		for _, o := range f.Orders {
			row := models.Order{
				ID:            o.ID,
				UserID:        o.UserID,
				CaseID:        o.CaseID,
				ProductType:   o.ProductType,
				Amount:        o.Amount,
				Currency:      "gbp",
				Status:        o.Status,
				PaymentStatus: o.PaymentStatus,
				CreatedAt:     o.CreatedAt,
			}
			if o.StripePaymentIntentID != "" {
				intent := o.StripePaymentIntentID
				row.StripePaymentIntentID = &intent
			}
			if o.FailureReason != "" {
				reason := o.FailureReason
				row.FailureReason = &reason
			}
			q := insert.Create(&row)
			if q.Error != nil {
				return fmt.Errorf("seed order %s: %w", o.ID, q.Error)
			}
			res.Orders += q.RowsAffected
		}

		for _, e := range f.LegalChangeEvents {
			row := models.LegalChangeEvent{
				ID:            e.ID,
				Title:         e.Title,
				Summary:       e.Summary,
				Jurisdictions: types.StringList(e.Jurisdictions),
				Topics:        types.StringList(e.Topics),
				State:         e.State,
				ImpactAssessment: models.ImpactAssessment{
					Severity:           e.ImpactAssessment.Severity,
					Rationale:          e.ImpactAssessment.Rationale,
					ImpactedRuleIDs:    nonNil(e.ImpactAssessment.ImpactedRuleIDs),
					ImpactedProductIDs: nonNil(e.ImpactAssessment.ImpactedProductIDs),
					ImpactedRouteIDs:   nonNil(e.ImpactAssessment.ImpactedRouteIDs),
					RequiredReviewers:  nonNil(e.ImpactAssessment.RequiredReviewers),
				},
			}
			if e.SourceURL != "" {
				src := e.SourceURL
				row.SourceURL = &src
			}
			q := insert.Create(&row)
			if q.Error != nil {
				return fmt.Errorf("seed legal change event %s: %w", e.ID, q.Error)
			}
			res.LegalChangeEvents += q.RowsAffected
		}
		return nil
	})
	return res, err
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
