package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductTypeLabel(t *testing.T) {
	require.Equal(t, "Notice Only", ProductTypeNoticeOnly.Label())
	require.Equal(t, "Complete Pack", ProductTypeCompletePack.Label())
	require.Equal(t, "mystery", ProductType("mystery").Label())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("refunded")
	require.NoError(t, err)
	require.Equal(t, OrderStatusRefunded, status)

	_, err = ParseOrderStatus("Refunded")
	require.Error(t, err)
}

func TestCaseStatusPrecedes(t *testing.T) {
	require.True(t, CaseStatusDraft.Precedes(CaseStatusInProgress))
	require.True(t, CaseStatusInProgress.Precedes(CaseStatusCompleted))
	require.False(t, CaseStatusCompleted.Precedes(CaseStatusDraft))
	require.False(t, CaseStatusDraft.Precedes(CaseStatusDraft))
}

func TestLegalChangeActionRequiresReason(t *testing.T) {
	require.True(t, LegalChangeActionClose.RequiresReason())
	require.True(t, LegalChangeActionDismiss.RequiresReason())
	require.True(t, LegalChangeActionReopen.RequiresReason())
	require.False(t, LegalChangeActionTriage.RequiresReason())
	require.False(t, LegalChangeActionPushPR.RequiresReason())
}

func TestParseJurisdiction(t *testing.T) {
	j, err := ParseJurisdiction("scotland")
	require.NoError(t, err)
	require.Equal(t, JurisdictionScotland, j)

	_, err = ParseJurisdiction("wales")
	require.Error(t, err)
}

func TestParseRejectsUnknownValues(t *testing.T) {
	got, err := ParsePaymentStatus("succeeded")
	require.NoError(t, err)
	require.Equal(t, PaymentStatusSucceeded, got)

	_, err = ParsePaymentStatus("Succeeded")
	require.EqualError(t, err, `invalid payment status "Succeeded"`)

	_, err = ParseJurisdiction("wales")
	require.EqualError(t, err, `invalid jurisdiction "wales"`)
}
