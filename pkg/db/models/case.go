package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// Case is a landlord's wizard journey towards a legal document.
type Case struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	CaseType       enums.CaseType     `gorm:"column:case_type;type:text;not null" json:"case_type"`
	Jurisdiction   enums.Jurisdiction `gorm:"column:jurisdiction;type:text;not null" json:"jurisdiction"`
	Status         enums.CaseStatus   `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	WizardProgress int                `gorm:"column:wizard_progress;not null;default:0" json:"wizard_progress"`
	CollectedFacts types.JSONMap      `gorm:"column:collected_facts;type:jsonb;not null" json:"collected_facts"`
	AIAnalysis     types.JSONMap      `gorm:"column:ai_analysis;type:jsonb" json:"ai_analysis"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Case) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CollectedFacts == nil {
		c.CollectedFacts = types.JSONMap{}
	}
	return nil
}
