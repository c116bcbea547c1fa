package legalchange

import "github.com/landlordheaven/heaven-backend/pkg/enums"

type edge struct {
	action enums.LegalChangeAction
	to     enums.LegalChangeState
}

// transitions lists the actions allowed from each state, in display order.
// push_pr keeps the state and only records history.
var transitions = map[enums.LegalChangeState][]edge{
	enums.LegalChangeStateNew: {
		{enums.LegalChangeActionTriage, enums.LegalChangeStateTriaged},
		{enums.LegalChangeActionDismiss, enums.LegalChangeStateDismissed},
	},
	enums.LegalChangeStateTriaged: {
		{enums.LegalChangeActionMarkActionRequired, enums.LegalChangeStateActionRequired},
		{enums.LegalChangeActionClose, enums.LegalChangeStateClosed},
	},
	enums.LegalChangeStateActionRequired: {
		{enums.LegalChangeActionStartWork, enums.LegalChangeStateInProgress},
		{enums.LegalChangeActionPushPR, enums.LegalChangeStateActionRequired},
		{enums.LegalChangeActionClose, enums.LegalChangeStateClosed},
	},
	enums.LegalChangeStateInProgress: {
		{enums.LegalChangeActionRevert, enums.LegalChangeStateActionRequired},
		{enums.LegalChangeActionClose, enums.LegalChangeStateClosed},
	},
	enums.LegalChangeStateClosed: {
		{enums.LegalChangeActionReopen, enums.LegalChangeStateTriaged},
	},
	enums.LegalChangeStateDismissed: {
		{enums.LegalChangeActionReopen, enums.LegalChangeStateTriaged},
	},
}

// AllowedActions returns the actions valid from state.
func AllowedActions(state enums.LegalChangeState) []enums.LegalChangeAction {
	edges := transitions[state]
	out := make([]enums.LegalChangeAction, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.action)
	}
	return out
}

// Next resolves the target state of action from state.
func Next(state enums.LegalChangeState, action enums.LegalChangeAction) (enums.LegalChangeState, bool) {
	for _, e := range transitions[state] {
		if e.action == action {
			return e.to, true
		}
	}
	return "", false
}
