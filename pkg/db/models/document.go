package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

// Document is a generated (or pending) file attached to a case. FilePath stays nil until generation finishes.
type Document struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID       uuid.UUID            `gorm:"column:case_id;type:uuid;not null;index" json:"case_id"`
	UserID       uuid.UUID            `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Title        string               `gorm:"column:title;type:text;not null" json:"title"`
	DocumentType string               `gorm:"column:document_type;type:text;not null" json:"document_type"`
	IsPreview    bool                 `gorm:"column:is_preview;not null;default:false" json:"is_preview"`
	FilePath     *string              `gorm:"column:file_path;type:text" json:"file_path"`
	Status       enums.DocumentStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
