package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
)

type recordingSender struct {
	to      []string
	subject string
	body    string
}

func (r *recordingSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	r.to, r.subject, r.body = to, subject, htmlBody
	return nil
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	sender := NewSMTP(config.MailConfig{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "orders@landlordheaven.co.uk"})
	var gotAddr string
	var gotMsg []byte
	sender.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotMsg = addr, msg
		require.NotNil(t, a)
		require.Equal(t, []string{"tariq@example.com"}, to)
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), []string{"tariq@example.com"}, "Hello", "<p>hi</p>"))
	require.Equal(t, "smtp.example.com:2525", gotAddr)
	require.True(t, strings.HasPrefix(string(gotMsg), "From: orders@landlordheaven.co.uk\r\n"))
	require.Contains(t, string(gotMsg), "Subject: Hello\r\n")
	require.True(t, strings.HasSuffix(string(gotMsg), "<p>hi</p>"))

	require.Error(t, sender.Send(context.Background(), nil, "x", "y"))
}

func TestNewSenderWithoutHostLogs(t *testing.T) {
	_, ok := NewSender(config.MailConfig{}, nil).(LogSender)
	require.True(t, ok)
}

func TestSendOrderConfirmation(t *testing.T) {
	rec := &recordingSender{}
	name := "Tariq Mohammed"
	order := &models.Order{
		ID:          uuid.New(),
		ProductType: enums.ProductTypeCompletePack,
		Amount:      14999,
		CreatedAt:   time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		User:        &models.User{Email: "tariq@example.com", FullName: &name},
	}

	require.NoError(t, NewMailer(rec, "https://landlordheaven.co.uk/").SendOrderConfirmation(context.Background(), order))
	require.Equal(t, []string{"tariq@example.com"}, rec.to)
	require.Contains(t, rec.subject, "Complete Pack")
	require.Contains(t, rec.body, "£149.99")
	require.Contains(t, rec.body, "04/03/2026")
	require.Contains(t, rec.body, "Tariq Mohammed")
	require.Contains(t, rec.body, "https://landlordheaven.co.uk/dashboard")

	require.Error(t, NewMailer(rec, "").SendOrderConfirmation(context.Background(), &models.Order{}))
}
