package enums

import "slices"

// ProductType identifies what an order purchased.
type ProductType string

const (
	ProductTypeNoticeOnly   ProductType = "notice_only"
	ProductTypeCompletePack ProductType = "complete_pack"
	ProductTypeMoneyClaim   ProductType = "money_claim"
	ProductTypeASTStandard  ProductType = "ast_standard"
	ProductTypeASTPremium   ProductType = "ast_premium"
)

var validProductTypes = []ProductType{
	ProductTypeNoticeOnly,
	ProductTypeCompletePack,
	ProductTypeMoneyClaim,
	ProductTypeASTStandard,
	ProductTypeASTPremium,
}

var productTypeLabels = map[ProductType]string{
	ProductTypeNoticeOnly:   "Notice Only",
	ProductTypeCompletePack: "Complete Pack",
	ProductTypeMoneyClaim:   "Money Claim",
	ProductTypeASTStandard:  "AST Standard",
	ProductTypeASTPremium:   "AST Premium",
}

// String implements fmt.Stringer.
func (p ProductType) String() string {
	return string(p)
}

// Label returns the customer-facing product name. Unknown values echo the raw value.
func (p ProductType) Label() string {
	if label, ok := productTypeLabels[p]; ok {
		return label
	}
	return string(p)
}

// IsValid reports whether the value is a known ProductType.
func (p ProductType) IsValid() bool {
	return slices.Contains(validProductTypes, p)
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	return parse(validProductTypes, "product type", value)
}
