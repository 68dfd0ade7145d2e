package domain

import (
	dErrors "atelier/pkg/domain-errors"
)

// Tier is a subscription level. Guests have no tier of their own and are
// evaluated against TierFree.
type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierCreator Tier = "creator"
	TierStudio  Tier = "studio"
)

var tierRank = map[Tier]int{
	TierFree:    0,
	TierStarter: 1,
	TierCreator: 2,
	TierStudio:  3,
}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tier cannot be empty")
	}
	t := Tier(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tier: must be one of free, starter, creator, studio")
	}
	return t, nil
}

func (t Tier) IsValid() bool {
	_, ok := tierRank[t]
	return ok
}

func (t Tier) String() string {
	return string(t)
}

// Rank orders tiers from free (0) to studio (3). Unknown tiers rank below free.
func (t Tier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return -1
}

// IsPaid reports whether the tier requires a subscription.
func (t Tier) IsPaid() bool {
	return t.Rank() > tierRank[TierFree]
}

// AllTiers returns tiers in ascending order.
func AllTiers() []Tier {
	return []Tier{TierFree, TierStarter, TierCreator, TierStudio}
}
