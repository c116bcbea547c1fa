package wizard

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/dto"
	"github.com/landlordheaven/heaven-backend/pkg/enums"
	"github.com/landlordheaven/heaven-backend/pkg/money"
)

// Routes a case can take, by case type and jurisdiction.
const (
	RouteSection8           = "section_8"
	RouteSection21          = "section_21"
	RouteNoticeToLeave      = "notice_to_leave"
	RouteNoticeToQuit       = "notice_to_quit"
	RouteMoneyClaimOnline   = "money_claim_online"
	RouteSimpleProcedure    = "simple_procedure"
	RouteSmallClaims        = "small_claims"
	RouteAssuredShorthold   = "assured_shorthold"
	RoutePrivateResidential = "private_residential"
	RoutePrivateTenancy     = "private_tenancy"
)

var (
	arrearsKeys = []string{"arrears_amount", "s8_arrears_amount", "rent_arrears", "total_arrears"}
	rentKeys    = []string{"rent_amount", "s8_rent_amount", "monthly_rent"}
	claimKeys   = []string{"claim_amount", "amount_claimed"}
	groundKeys  = []string{"grounds", "s8_grounds", "section8_grounds"}

	groundTokenRe = regexp.MustCompile(`\d+[A-Za-z]?`)
)

// Summarize derives the case summary from persisted facts. Amounts are pence.
func Summarize(c *models.Case) dto.CaseSummary {
	facts := map[string]any(c.CollectedFacts)
	grounds := parseGrounds(firstPresent(facts, groundKeys))

	totals := dto.MonetaryTotals{
		ArrearsPence: amountPence(firstPresent(facts, arrearsKeys)),
		RentPence:    amountPence(firstPresent(facts, rentKeys)),
		ClaimPence:   amountPence(firstPresent(facts, claimKeys)),
	}
	switch c.CaseType {
	case enums.CaseTypeMoneyClaim:
		if totals.ClaimPence == 0 {
			totals.ClaimPence = totals.ArrearsPence
		}
		totals.TotalPence = totals.ClaimPence
	case enums.CaseTypeTenancyAgreement:
		totals.TotalPence = totals.RentPence
	default:
		totals.TotalPence = totals.ArrearsPence
	}

	return dto.CaseSummary{
		CaseID:       c.ID,
		CaseType:     c.CaseType,
		Jurisdiction: c.Jurisdiction,
		Route:        Route(c.CaseType, c.Jurisdiction, totals.ArrearsPence > 0 || len(grounds) > 0),
		Grounds:      grounds,
		Totals:       totals,
	}
}

// Route picks the legal route. hasFaultGrounds only matters for evictions in England and Wales.
func Route(caseType enums.CaseType, jurisdiction enums.Jurisdiction, hasFaultGrounds bool) string {
	switch caseType {
	case enums.CaseTypeEviction:
		switch jurisdiction {
		case enums.JurisdictionScotland:
			return RouteNoticeToLeave
		case enums.JurisdictionNorthernIreland:
			return RouteNoticeToQuit
		}
		if hasFaultGrounds {
			return RouteSection8
		}
		return RouteSection21
	case enums.CaseTypeMoneyClaim:
		switch jurisdiction {
		case enums.JurisdictionScotland:
			return RouteSimpleProcedure
		case enums.JurisdictionNorthernIreland:
			return RouteSmallClaims
		}
		return RouteMoneyClaimOnline
	case enums.CaseTypeTenancyAgreement:
		switch jurisdiction {
		case enums.JurisdictionScotland:
			return RoutePrivateResidential
		case enums.JurisdictionNorthernIreland:
			return RoutePrivateTenancy
		}
		return RouteAssuredShorthold
	}
	return ""
}

// NextStep names where the landlord's journey continues.
func NextStep(c *models.Case, documents int) string {
	switch {
	case c.WizardProgress < 100 && c.Status != enums.CaseStatusCompleted:
		return "continue_wizard"
	case documents == 0:
		return "generate_preview"
	default:
		return "purchase"
	}
}

func firstPresent(facts map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := facts[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func amountPence(value any) int64 {
	switch v := value.(type) {
	case float64:
		return money.FromDecimal(decimal.NewFromFloat(v))
	case int:
		return int64(v) * 100
	case int64:
		return v * 100
	case string:
		raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "GBP"))
		pence, err := money.ParsePounds(raw)
		if err != nil {
			return 0
		}
		return pence
	}
	return 0
}

// parseGrounds accepts a list or free text such as "8, 10 and 11" and returns sorted ground numbers.
func parseGrounds(value any) []string {
	seen := map[string]struct{}{}
	add := func(raw string) {
		for _, token := range groundTokenRe.FindAllString(raw, -1) {
			seen[strings.ToUpper(token)] = struct{}{}
		}
	}
	switch v := value.(type) {
	case string:
		add(v)
	case float64:
		add(strconv.FormatFloat(v, 'f', -1, 64))
	case []any:
		for _, item := range v {
			switch g := item.(type) {
			case string:
				add(g)
			case float64:
				add(strconv.FormatFloat(g, 'f', -1, 64))
			}
		}
	}

	grounds := make([]string, 0, len(seen))
	for g := range seen {
		grounds = append(grounds, g)
	}
	sort.Slice(grounds, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimRight(grounds[i], "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
		nj, _ := strconv.Atoi(strings.TrimRight(grounds[j], "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
		if ni != nj {
			return ni < nj
		}
		return grounds[i] < grounds[j]
	})
	return grounds
}
