package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// LegalChangeEvent is a detected change in landlord law awaiting triage.
type LegalChangeEvent struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string                 `gorm:"column:title;type:text;not null" json:"title"`
	Summary          string                 `gorm:"column:summary;type:text;not null" json:"summary"`
	SourceURL        *string                `gorm:"column:source_url;type:text" json:"sourceUrl,omitempty"`
	Jurisdictions    types.StringList       `gorm:"column:jurisdictions;type:jsonb;not null" json:"jurisdictions"`
	Topics           types.StringList       `gorm:"column:topics;type:jsonb;not null" json:"topics"`
	State            enums.LegalChangeState `gorm:"column:state;type:text;not null;default:'new';index" json:"state"`
	ImpactAssessment ImpactAssessment       `gorm:"column:impact_assessment;type:jsonb;not null" json:"impactAssessment"`
	LinkedPRURLs     types.StringList       `gorm:"column:linked_pr_urls;type:jsonb;not null" json:"linkedPrUrls"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (e *LegalChangeEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Jurisdictions == nil {
		e.Jurisdictions = types.StringList{}
	}
	if e.Topics == nil {
		e.Topics = types.StringList{}
	}
	if e.LinkedPRURLs == nil {
		e.LinkedPRURLs = types.StringList{}
	}
	return nil
}

// ImpactAssessment is the operator's analysis of a legal change, stored as jsonb.
type ImpactAssessment struct {
	Severity           enums.Severity  `json:"severity,omitempty"`
	Rationale          string          `json:"rationale,omitempty"`
	ImpactedRuleIDs    []string        `json:"impactedRuleIds"`
	ImpactedProductIDs []string        `json:"impactedProductIds"`
	ImpactedRouteIDs   []string        `json:"impactedRouteIds"`
	RequiredReviewers  []string        `json:"requiredReviewers"`
	Flags              map[string]bool `json:"flags,omitempty"`
}

// ImpactedIDCount is the number of rule, product and route ids combined.
func (a ImpactAssessment) ImpactedIDCount() int {
	return len(a.ImpactedRuleIDs) + len(a.ImpactedProductIDs) + len(a.ImpactedRouteIDs)
}

func (a ImpactAssessment) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *ImpactAssessment) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = ImpactAssessment{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("ImpactAssessment: unsupported Scan type %T", src)
	}
}

// LegalChangeTransition is one entry of an event's state history.
type LegalChangeTransition struct {
	ID        uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	EventID   uuid.UUID               `gorm:"column:event_id;type:uuid;not null;index" json:"eventId"`
	FromState enums.LegalChangeState  `gorm:"column:from_state;type:text;not null" json:"from"`
	ToState   enums.LegalChangeState  `gorm:"column:to_state;type:text;not null" json:"to"`
	Action    enums.LegalChangeAction `gorm:"column:action;type:text;not null" json:"action"`
	Actor     string                  `gorm:"column:actor;type:text;not null" json:"actor"`
	Reason    *string                 `gorm:"column:reason;type:text" json:"reason,omitempty"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime" json:"timestamp"`
}

func (t *LegalChangeTransition) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
