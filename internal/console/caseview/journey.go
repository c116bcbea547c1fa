package caseview

import (
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

// Step is where the landlord is in the case journey.
type Step string

const (
	StepWizard      Step = "wizard"
	StepDocuments   Step = "document_generation"
	StepPayment     Step = "payment"
	StepPostPayment Step = "post_payment"
)

// JourneyStep derives the current step from the case and its documents.
// Only previews exist before payment; a ready final document means the
// pack has been paid for.
func JourneyStep(c *models.Case, docs []models.Document) Step {
	if c == nil {
		return StepWizard
	}
	if c.Status != enums.CaseStatusCompleted && c.WizardProgress < 100 {
		return StepWizard
	}
	hasPreview := false
	for _, d := range docs {
		if !d.IsPreview && d.Status == enums.DocumentStatusReady {
			return StepPostPayment
		}
		if d.IsPreview {
			hasPreview = true
		}
	}
	if hasPreview {
		return StepPayment
	}
	return StepDocuments
}
