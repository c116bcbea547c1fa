package enums

import (
	"fmt"
	"slices"
)

// CaseType is the kind of legal document journey a case follows.
type CaseType string

const (
	CaseTypeEviction         CaseType = "eviction"
	CaseTypeMoneyClaim       CaseType = "money_claim"
	CaseTypeTenancyAgreement CaseType = "tenancy_agreement"
)

var validCaseTypes = []CaseType{CaseTypeEviction, CaseTypeMoneyClaim, CaseTypeTenancyAgreement}

func (c CaseType) String() string { return string(c) }

// IsValid reports whether the value is a known CaseType.
func (c CaseType) IsValid() bool {
	return slices.Contains(validCaseTypes, c)
}

// ParseCaseType converts raw input into a CaseType.
func ParseCaseType(value string) (CaseType, error) {
	return parse(validCaseTypes, "case type", value)
}

// Jurisdiction is the UK legal jurisdiction a case is governed by.
type Jurisdiction string

const (
	JurisdictionEnglandWales    Jurisdiction = "england-wales"
	JurisdictionScotland        Jurisdiction = "scotland"
	JurisdictionNorthernIreland Jurisdiction = "northern-ireland"
)

var validJurisdictions = []Jurisdiction{JurisdictionEnglandWales, JurisdictionScotland, JurisdictionNorthernIreland}

func (j Jurisdiction) String() string { return string(j) }

// IsValid reports whether the value is a known Jurisdiction.
func (j Jurisdiction) IsValid() bool {
	return slices.Contains(validJurisdictions, j)
}

// ParseJurisdiction converts raw input into a Jurisdiction.
func ParseJurisdiction(value string) (Jurisdiction, error) {
	return parse(validJurisdictions, "jurisdiction", value)
}

// CaseStatus tracks how far a case has progressed. Status only moves forward.
type CaseStatus string

const (
	CaseStatusDraft      CaseStatus = "draft"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusCompleted  CaseStatus = "completed"
)

var caseStatusRank = map[CaseStatus]int{
	CaseStatusDraft:      0,
	CaseStatusInProgress: 1,
	CaseStatusCompleted:  2,
}

func (c CaseStatus) String() string { return string(c) }

// IsValid reports whether the value is a known CaseStatus.
func (c CaseStatus) IsValid() bool {
	_, ok := caseStatusRank[c]
	return ok
}

// Precedes reports whether c comes strictly before other in the lifecycle.
func (c CaseStatus) Precedes(other CaseStatus) bool {
	return caseStatusRank[c] < caseStatusRank[other]
}

// ParseCaseStatus converts raw input into a CaseStatus.
func ParseCaseStatus(value string) (CaseStatus, error) {
	status := CaseStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid case status %q", value)
	}
	return status, nil
}
