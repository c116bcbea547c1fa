package documents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/internal/cases"
	"github.com/landlordheaven/heaven-backend/pkg/auth"
	"github.com/landlordheaven/heaven-backend/pkg/db"
	"github.com/landlordheaven/heaven-backend/pkg/db/dbtest"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
)

type recordingPublisher struct {
	topic    string
	messages [][]byte
	attrs    []map[string]string
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.topic = topic
	p.messages = append(p.messages, data)
	p.attrs = append(p.attrs, attrs)
	return "msg-1", nil
}

func (p *recordingPublisher) DocumentsTopic() string { return "heaven-document-generation" }

type fixture struct {
	svc       Service
	client    *db.Client
	publisher *recordingPublisher
	actor     auth.Actor
	caseID    uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.New(t)
	user := models.User{Email: "tariq@example.com"}
	require.NoError(t, client.DB().Create(&user).Error)
	actor := auth.Actor{UserID: user.ID, Email: user.Email}

	caseSvc, err := cases.NewService(cases.NewRepository(client.DB()), client)
	require.NoError(t, err)
	c, err := caseSvc.Create(context.Background(), actor, dto.CreateCaseRequest{CaseType: enums.CaseTypeEviction, Jurisdiction: enums.JurisdictionEnglandWales})
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	svc, err := NewService(NewRepository(client.DB()), caseSvc, publisher, nil, nil)
	require.NoError(t, err)
	return fixture{svc: svc, client: client, publisher: publisher, actor: actor, caseID: c.ID}
}

func TestGenerateInsertsPendingRowAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.Generate(ctx, f.actor, dto.GenerateDocumentRequest{CaseID: f.caseID, DocumentType: "section8_notice", IsPreview: true})
	require.NoError(t, err)
	require.Nil(t, doc.FilePath)
	require.Equal(t, enums.DocumentStatusPending, doc.Status)
	require.Equal(t, "Section 8 Notice (Form 3) (Preview)", doc.Title)

	require.Equal(t, "heaven-document-generation", f.publisher.topic)
	require.Len(t, f.publisher.messages, 1)
	var msg GenerationRequest
	require.NoError(t, json.Unmarshal(f.publisher.messages[0], &msg))
	require.Equal(t, doc.ID, msg.DocumentID)
	require.Equal(t, f.caseID, msg.CaseID)
	require.True(t, msg.IsPreview)
	require.Equal(t, EventTypeGenerateRequested, f.publisher.attrs[0]["event_type"])
}

func TestRegenerateCreatesNewRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := dto.GenerateDocumentRequest{CaseID: f.caseID, DocumentType: "section21_notice"}

	first, err := f.svc.Generate(ctx, f.actor, req)
	require.NoError(t, err)
	second, err := f.svc.Generate(ctx, f.actor, req)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	docs, err := f.svc.List(ctx, f.actor, f.caseID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestGeneratePublishFailureMarksRowFailed(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("pubsub unavailable")

	_, err := f.svc.Generate(context.Background(), f.actor, dto.GenerateDocumentRequest{CaseID: f.caseID, DocumentType: "section8_notice"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	var stored models.Document
	require.NoError(t, f.client.DB().First(&stored, "case_id = ?", f.caseID).Error)
	require.Equal(t, enums.DocumentStatusFailed, stored.Status)
}

func TestListRequiresVisibleCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docs, err := f.svc.List(ctx, f.actor, f.caseID)
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)

	_, err = f.svc.List(ctx, auth.Actor{UserID: uuid.New()}, f.caseID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = f.svc.List(ctx, f.actor, uuid.Nil)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Notice to Leave", Title("notice_to_leave", false))
	require.Equal(t, "Deposit Return Letter", Title("deposit_return_letter", false))
}
