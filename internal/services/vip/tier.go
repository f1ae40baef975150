package vip

import "strings"

// Tier is the display label of a promotion. It never affects price or duration.
type Tier string

const (
	TierDiamond  Tier = "diamond"
	TierGold     Tier = "gold"
	TierSilver   Tier = "silver"
	TierStandard Tier = "standard"
)

// tierKeywords is checked in order; the first keyword found in the code wins.
var tierKeywords = []Tier{TierDiamond, TierGold, TierSilver}

// ClassifyTier derives the tier from a catalog package code, ignoring case.
func ClassifyTier(code string) Tier {
	lower := strings.ToLower(code)
	for _, tier := range tierKeywords {
		if strings.Contains(lower, string(tier)) {
			return tier
		}
	}
	return TierStandard
}
