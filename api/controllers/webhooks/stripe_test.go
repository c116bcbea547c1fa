package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	stripewebhook "github.com/landlordheaven/heaven-backend/internal/webhooks/stripe"
	"github.com/landlordheaven/heaven-backend/pkg/config"
	pkgstripe "github.com/landlordheaven/heaven-backend/pkg/stripe"
)

const testSecret = "whsec_test"

func TestStripeWebhook_SuccessAndIdempotent(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute)
	require.NoError(t, err)
	handler := StripeWebhook(service, newVerifier(t), guard, nil)

	rec := deliver(handler, payload, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, service.calls)
	require.Equal(t, stripe.EventTypePaymentIntentSucceeded, service.lastType)

	rec = deliver(handler, payload, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, service.calls, "duplicate delivery must not be processed")
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute)
	require.NoError(t, err)
	handler := StripeWebhook(service, newVerifier(t), guard, nil)

	rec := deliver(handler, payload, "t=1,v1=invalid")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, service.calls)
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute)
	require.NoError(t, err)
	handler := StripeWebhook(&fakeStripeWebhookService{}, newVerifier(t), guard, nil)

	rec := deliver(handler, payload, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhook_FailureAllowsRetry(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeStripeWebhookService{err: errors.New("db down")}
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute)
	require.NoError(t, err)
	handler := StripeWebhook(service, newVerifier(t), guard, nil)

	rec := deliver(handler, payload, header)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	service.err = nil
	rec = deliver(handler, payload, header)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, service.calls)
}

func TestStripeWebhook_StaleSignatureRejected(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute)
	require.NoError(t, err)
	handler := StripeWebhook(service, newVerifier(t), guard, nil)

	stale := buildStripeSignatureHeader(payload, testSecret, time.Now().Add(-time.Hour).Unix())
	rec := deliver(handler, payload, stale)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, service.calls)
}

func deliver(handler http.Handler, payload []byte, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func buildSignedEvent(t *testing.T) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:       "pi_" + uuid.NewString(),
		Status:   stripe.PaymentIntentStatusSucceeded,
		Amount:   4999,
		Currency: stripe.CurrencyGBP,
		Metadata: map[string]string{"order_id": uuid.NewString()},
	}
	rawIntent, err := json.Marshal(intent)
	require.NoError(t, err)

	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypePaymentIntentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: rawIntent},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload, buildStripeSignatureHeader(payload, testSecret, time.Now().Unix())
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripeWebhookService struct {
	calls    int
	lastType stripe.EventType
	err      error
}

func (f *fakeStripeWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	f.calls++
	f.lastType = event.Type
	return f.err
}

func newVerifier(t *testing.T) *pkgstripe.Client {
	t.Helper()
	client, err := pkgstripe.NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123", Secret: testSecret}, nil)
	require.NoError(t, err)
	return client
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]struct{}
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]struct{})}
}

func (s *inMemoryStore) MarkProcessed(_ context.Context, provider, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.WebhookEventKey(provider, eventID)
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = struct{}{}
	return true, nil
}

func (s *inMemoryStore) WebhookEventKey(provider, eventID string) string {
	return fmt.Sprintf("heaven:webhook:%s:%s", provider, eventID)
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
