package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

// Service defines case lifecycle operations for landlords and admins.
type Service interface {
	List(ctx context.Context, actor auth.Actor) ([]models.Case, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Case, error)
	Create(ctx context.Context, actor auth.Actor, req dto.CreateCaseRequest) (*models.Case, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, req dto.UpdateCaseRequest) (*models.Case, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	SaveAnalysis(ctx context.Context, id uuid.UUID, analysis map[string]any) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires case dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cases repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor) ([]models.Case, error) {
	var owner *uuid.UUID
	if !actor.Admin {
		if actor.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		owner = &actor.UserID
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cases")
	}
	if rows == nil {
		rows = []models.Case{}
	}
	return rows, nil
}

// Get loads a case visible to the actor. Cases owned by someone else are reported as missing.
func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Case, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load case")
	}
	if !actor.CanAccess(c.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, req dto.CreateCaseRequest) (*models.Case, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !req.CaseType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid case type %q", req.CaseType))
	}
	if !req.Jurisdiction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid jurisdiction %q", req.Jurisdiction))
	}

	c := &models.Case{
		UserID:         actor.UserID,
		CaseType:       req.CaseType,
		Jurisdiction:   req.Jurisdiction,
		Status:         enums.CaseStatusDraft,
		CollectedFacts: types.JSONMap{},
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create case")
	}
	return c, nil
}

// Update replaces collected facts wholesale and optionally advances progress or status.
func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, req dto.UpdateCaseRequest) (*models.Case, error) {
	if req.CollectedFacts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collected_facts is required")
	}

	c, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(c, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update case")
	}
	return s.Get(ctx, actor, id)
}

func applyUpdate(c *models.Case, req dto.UpdateCaseRequest) error {
	if req.WizardProgress != nil {
		progress := *req.WizardProgress
		if progress < 0 || progress > 100 {
			return pkgerrors.New(pkgerrors.CodeValidation, "wizard_progress must be between 0 and 100")
		}
		if progress < c.WizardProgress {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("wizard_progress cannot decrease from %d to %d", c.WizardProgress, progress))
		}
		c.WizardProgress = progress
	}
	if req.Status != nil {
		next := *req.Status
		if !next.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid case status %q", next))
		}
		if next.Precedes(c.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("case status cannot move from %s back to %s", c.Status, next))
		}
		c.Status = next
	}
	c.CollectedFacts = req.CollectedFacts.Clone()
	return nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "case not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete case")
	}
	return nil
}

func (s *service) SaveAnalysis(ctx context.Context, id uuid.UUID, analysis map[string]any) error {
	if err := s.repo.UpdateAnalysis(ctx, id, analysis); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save case analysis")
	}
	return nil
}
