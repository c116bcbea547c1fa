package enums

import "slices"

// LegalChangeState is the triage state of a legal change event.
type LegalChangeState string

const (
	LegalChangeStateNew            LegalChangeState = "new"
	LegalChangeStateTriaged        LegalChangeState = "triaged"
	LegalChangeStateActionRequired LegalChangeState = "action_required"
	LegalChangeStateInProgress     LegalChangeState = "in_progress"
	LegalChangeStateClosed         LegalChangeState = "closed"
	LegalChangeStateDismissed      LegalChangeState = "dismissed"
)

var validLegalChangeStates = []LegalChangeState{
	LegalChangeStateNew,
	LegalChangeStateTriaged,
	LegalChangeStateActionRequired,
	LegalChangeStateInProgress,
	LegalChangeStateClosed,
	LegalChangeStateDismissed,
}

func (s LegalChangeState) String() string { return string(s) }

// IsValid reports whether the value is a known LegalChangeState.
func (s LegalChangeState) IsValid() bool {
	return slices.Contains(validLegalChangeStates, s)
}

// ParseLegalChangeState converts raw input into a LegalChangeState.
func ParseLegalChangeState(value string) (LegalChangeState, error) {
	return parse(validLegalChangeStates, "legal change state", value)
}

// LegalChangeAction is an operator action applied to a legal change event.
type LegalChangeAction string

const (
	LegalChangeActionTriage             LegalChangeAction = "triage"
	LegalChangeActionMarkActionRequired LegalChangeAction = "mark_action_required"
	LegalChangeActionStartWork          LegalChangeAction = "start_work"
	LegalChangeActionRevert             LegalChangeAction = "revert"
	LegalChangeActionClose              LegalChangeAction = "close"
	LegalChangeActionDismiss            LegalChangeAction = "dismiss"
	LegalChangeActionReopen             LegalChangeAction = "reopen"
	LegalChangeActionPushPR             LegalChangeAction = "push_pr"
)

var validLegalChangeActions = []LegalChangeAction{
	LegalChangeActionTriage,
	LegalChangeActionMarkActionRequired,
	LegalChangeActionStartWork,
	LegalChangeActionRevert,
	LegalChangeActionClose,
	LegalChangeActionDismiss,
	LegalChangeActionReopen,
	LegalChangeActionPushPR,
}

func (a LegalChangeAction) String() string { return string(a) }

// IsValid reports whether the value is a known LegalChangeAction.
func (a LegalChangeAction) IsValid() bool {
	return slices.Contains(validLegalChangeActions, a)
}

// RequiresReason reports whether the action must carry an operator reason.
func (a LegalChangeAction) RequiresReason() bool {
	switch a {
	case LegalChangeActionClose, LegalChangeActionDismiss, LegalChangeActionReopen:
		return true
	}
	return false
}

// ParseLegalChangeAction converts raw input into a LegalChangeAction.
func ParseLegalChangeAction(value string) (LegalChangeAction, error) {
	return parse(validLegalChangeActions, "legal change action", value)
}

// Severity grades the impact of a legal change.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var validSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) String() string { return string(s) }

// IsValid reports whether the value is a known Severity.
func (s Severity) IsValid() bool {
	return slices.Contains(validSeverities, s)
}

// ParseSeverity converts raw input into a Severity.
func ParseSeverity(value string) (Severity, error) {
	return parse(validSeverities, "severity", value)
}

// DocumentStatus tracks generation of a case document.
type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusReady   DocumentStatus = "ready"
	DocumentStatusFailed  DocumentStatus = "failed"
)
