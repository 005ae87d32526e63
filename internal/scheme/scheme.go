package scheme

// Tier is a subsidy scheme tier
type Tier string

const (
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// IncomeThreshold is the annual income below which every family is
// placed on the free Silver tier regardless of what was requested.
const IncomeThreshold = 100000

// Assignment is the outcome of applying the scheme policy
type Assignment struct {
	Tier            Tier
	Fee             int
	DiscountPercent int
}

// Fee and discount schedule per tier. Gold's fee is 500 (the only
// figure the upstream schedule ever priced it at).
var tierTable = map[Tier]Assignment{
	TierSilver:   {Tier: TierSilver, Fee: 0, DiscountPercent: 5},
	TierGold:     {Tier: TierGold, Fee: 500, DiscountPercent: 10},
	TierPlatinum: {Tier: TierPlatinum, Fee: 1000, DiscountPercent: 15},
}

// Assign maps a declared annual income and an optional requested tier to
// the tier the family actually gets. Below the income threshold the
// family is always placed on Silver. Above it the requested tier is
// honoured if it is a known tier; anything else falls back to Silver.
// Pure function, never fails.
func Assign(annualIncome int, requested string) Assignment {
	if annualIncome < IncomeThreshold {
		return tierTable[TierSilver]
	}
	if a, ok := tierTable[Tier(requested)]; ok {
		return a
	}
	return tierTable[TierSilver]
}
