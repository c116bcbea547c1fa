// Package caseview is the view model for a single case: its collected facts,
// documents, editing, document regeneration, deletion and Ask Heaven Q&A.
package caseview

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/landlordheaven/heaven-backend/internal/console/feedback"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

var (
	// ErrDeleted is returned by every call after the case was deleted.
	ErrDeleted    = errors.New("case has been deleted")
	ErrNotLoaded  = errors.New("case not loaded")
	ErrNotEditing = errors.New("not in edit mode")
	ErrDeclined   = errors.New("action not confirmed")
	ErrBusy       = errors.New("action already in progress")
)

const (
	DeletePrompt         = "Delete this case and its documents? This cannot be undone."
	regeneratePrompt     = "Regenerate this document from the saved case details?"
	regenerateDirtyAddon = " You have unsaved changes; they will be ignored."
)

// RegeneratePrompt is the confirmation text for regeneration. A dirty draft
// adds a warning that the unsaved edits are not used.
func RegeneratePrompt(dirty bool) string {
	if dirty {
		return regeneratePrompt + regenerateDirtyAddon
	}
	return regeneratePrompt
}

// API is the slice of the gateway the view needs.
type API interface {
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	ListDocuments(ctx context.Context, caseID uuid.UUID) ([]models.Document, error)
	UpdateCaseFacts(ctx context.Context, id uuid.UUID, facts types.JSONMap) (*models.Case, error)
	GenerateDocument(ctx context.Context, req dto.GenerateDocumentRequest) (*models.Document, error)
	DeleteCase(ctx context.Context, id uuid.UUID) error
	Analyze(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
}

type View struct {
	api     API
	id      uuid.UUID
	confirm feedback.Confirmer
	logg    *logger.Logger
	now     func() time.Time

	mu         sync.Mutex
	kase       *models.Case
	docs       []models.Document
	caseErr    error
	docsErr    error
	editing    bool
	draft      types.JSONMap
	deleted    bool
	busy       map[string]bool
	asking     bool
	transcript []Turn
	summary    *dto.CaseSummary
	message    feedback.Message
}

func New(api API, id uuid.UUID, confirm feedback.Confirmer, logg *logger.Logger) *View {
	return &View{
		api:     api,
		id:      id,
		confirm: confirm,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
		busy:    map[string]bool{},
	}
}

func (v *View) ID() uuid.UUID { return v.id }

// Load fetches the case and its documents concurrently. A failure of one
// does not discard the other.
func (v *View) Load(ctx context.Context) error {
	if v.isDeleted() {
		return ErrDeleted
	}
	var (
		kase    *models.Case
		docs    []models.Document
		caseErr error
		docsErr error
	)
	var wg sync.WaitGroup
	wg.Go(func() { kase, caseErr = v.api.GetCase(ctx, v.id) })
	wg.Go(func() { docs, docsErr = v.api.ListDocuments(ctx, v.id) })
	wg.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.caseErr = caseErr
	v.docsErr = docsErr
	if caseErr == nil {
		v.kase = kase
	}
	if docsErr == nil {
		v.docs = docs
	}
	err := multierr.Combine(caseErr, docsErr)
	if err != nil {
		v.message = feedback.FromError(err, "failed to load case")
		if v.logg != nil {
			v.logg.Error(v.logg.WithCaseID(ctx, v.id.String()), "case load failed", err)
		}
	}
	return err
}

// Case returns a copy of the canonical case, or nil before a successful load.
func (v *View) Case() *models.Case {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.kase == nil {
		return nil
	}
	c := *v.kase
	c.CollectedFacts = v.kase.CollectedFacts.Clone()
	return &c
}

func (v *View) Documents() []models.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Document(nil), v.docs...)
}

func (v *View) CaseErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.caseErr
}

func (v *View) DocumentsErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.docsErr
}

// NotFound reports whether the last case fetch returned 404.
func (v *View) NotFound() bool {
	return pkgerrors.Is(v.CaseErr(), pkgerrors.CodeNotFound)
}

func (v *View) Deleted() bool { return v.isDeleted() }

func (v *View) Message() feedback.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Journey returns the derived journey step for the loaded case.
func (v *View) Journey() Step {
	v.mu.Lock()
	defer v.mu.Unlock()
	return JourneyStep(v.kase, v.docs)
}

// Facts returns the draft facts while editing, the canonical ones otherwise.
func (v *View) Facts() []Fact {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing {
		return Facts(v.draft)
	}
	if v.kase == nil {
		return nil
	}
	return Facts(v.kase.CollectedFacts)
}

// BeginEdit snapshots the canonical facts into a deep-copied draft.
func (v *View) BeginEdit() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.deleted {
		return ErrDeleted
	}
	if v.kase == nil {
		return ErrNotLoaded
	}
	v.draft = v.kase.CollectedFacts.Clone()
	v.editing = true
	return nil
}

func (v *View) Editing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editing
}

// SetFact changes one draft value.
func (v *View) SetFact(key string, value any) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.editing {
		return ErrNotEditing
	}
	v.draft[key] = value
	return nil
}

// SetFactInput parses raw with the kind of the current draft value.
// Unknown keys are stored as text.
func (v *View) SetFactInput(key, raw string) error {
	v.mu.Lock()
	if !v.editing {
		v.mu.Unlock()
		return ErrNotEditing
	}
	kind := KindShortText
	if current, ok := v.draft[key]; ok {
		kind = Classify(current)
	}
	v.mu.Unlock()

	value, err := ParseInput(kind, raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+": "+err.Error())
	}
	return v.SetFact(key, value)
}

// Dirty reports whether the draft differs from the canonical facts.
func (v *View) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirtyLocked()
}

func (v *View) dirtyLocked() bool {
	if !v.editing || v.kase == nil {
		return false
	}
	a, errA := json.Marshal(v.draft)
	b, errB := json.Marshal(v.kase.CollectedFacts.Clone())
	if errA != nil || errB != nil {
		return true
	}
	return string(a) != string(b)
}

// Cancel drops the draft. Nothing is sent.
func (v *View) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editing = false
	v.draft = nil
}

// Save submits the whole draft, leaves edit mode and reloads canonical state.
// On failure the draft is kept. Once the update is accepted only the case
// refetch decides the result; a documents refetch failure stays in
// DocumentsErr.
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()
	if v.deleted {
		v.mu.Unlock()
		return ErrDeleted
	}
	if !v.editing {
		v.mu.Unlock()
		return ErrNotEditing
	}
	draft := v.draft.Clone()
	v.mu.Unlock()

	if !v.begin("save") {
		return ErrBusy
	}
	_, err := v.api.UpdateCaseFacts(ctx, v.id, draft)
	v.end("save")
	if err != nil {
		v.setMessage(feedback.FromError(err, "failed to save changes"))
		return err
	}

	v.mu.Lock()
	v.editing = false
	v.draft = nil
	v.mu.Unlock()

	_ = v.Load(ctx)
	if caseErr := v.CaseErr(); caseErr != nil {
		v.setMessage(feedback.FromError(caseErr, "changes saved but the case could not be reloaded"))
		return caseErr
	}
	v.setMessage(feedback.Success("Changes saved"))
	return nil
}

// Regenerate asks for a new document from the persisted facts. The draft is
// never sent.
func (v *View) Regenerate(ctx context.Context, documentType string, preview bool) (*models.Document, error) {
	if v.isDeleted() {
		return nil, ErrDeleted
	}
	if !v.confirmAction(ctx, RegeneratePrompt(v.Dirty())) {
		return nil, ErrDeclined
	}
	if !v.begin("regenerate") {
		return nil, ErrBusy
	}
	doc, err := v.api.GenerateDocument(ctx, dto.GenerateDocumentRequest{
		CaseID:       v.id,
		DocumentType: documentType,
		IsPreview:    preview,
	})
	v.end("regenerate")
	if err != nil {
		v.setMessage(feedback.FromError(err, "failed to regenerate document"))
		return nil, err
	}
	if err := v.reloadDocuments(ctx); err != nil && v.logg != nil {
		v.logg.Warn(v.logg.WithCaseID(ctx, v.id.String()), "document refetch after regenerate failed")
	}
	v.setMessage(feedback.Success("Document regeneration requested"))
	return doc, nil
}

// Delete removes the case. Afterwards the view makes no further calls.
func (v *View) Delete(ctx context.Context) error {
	if v.isDeleted() {
		return ErrDeleted
	}
	if !v.confirmAction(ctx, DeletePrompt) {
		return ErrDeclined
	}
	if !v.begin("delete") {
		return ErrBusy
	}
	err := v.api.DeleteCase(ctx, v.id)
	v.end("delete")
	if err != nil {
		v.setMessage(feedback.FromError(err, "failed to delete case"))
		return err
	}
	v.mu.Lock()
	v.deleted = true
	v.editing = false
	v.draft = nil
	v.message = feedback.Success("Case deleted")
	v.mu.Unlock()
	return nil
}

func (v *View) reloadDocuments(ctx context.Context) error {
	docs, err := v.api.ListDocuments(ctx, v.id)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.docsErr = err
	if err == nil {
		v.docs = docs
	}
	return err
}

func (v *View) confirmAction(ctx context.Context, prompt string) bool {
	return v.confirm != nil && v.confirm.Confirm(ctx, prompt)
}

func (v *View) begin(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.busy[name] {
		return false
	}
	v.busy[name] = true
	return true
}

func (v *View) end(name string) {
	v.mu.Lock()
	delete(v.busy, name)
	v.mu.Unlock()
}

func (v *View) isDeleted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleted
}

func (v *View) setMessage(m feedback.Message) {
	v.mu.Lock()
	v.message = m
	v.mu.Unlock()
}
