package entitlements

import (
	"strings"
	"time"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

// Tier is an ordered subscription level gating signal visibility.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

// tierOrder is the total order of tiers, lowest first.
var tierOrder = []Tier{TierFree, TierBasic, TierPremium, TierPro}

// ParseTier normalizes a stored tier string. Unknown values are rejected
// rather than silently treated as free so that bad data fails fast.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierBasic:
		return TierBasic, nil
	case TierPremium:
		return TierPremium, nil
	case TierPro:
		return TierPro, nil
	default:
		return "", apperr.Validation("unknown subscription tier %q", s)
	}
}

// Rank returns the position of t in the tier order: free(0) < basic(1) <
// premium(2) < pro(3). Unknown tiers rank as -1.
func Rank(t Tier) int {
	for i, candidate := range tierOrder {
		if candidate == t {
			return i
		}
	}
	return -1
}

// EffectiveTier applies the expiry override: a paid tier whose expiry lies
// strictly in the past counts as free for this evaluation only. The stored
// tier is not mutated; the downgrade persists lazily.
func EffectiveTier(t Tier, expiresAt *time.Time, now time.Time) Tier {
	if t == TierFree {
		return TierFree
	}
	if expiresAt != nil && expiresAt.Before(now) {
		return TierFree
	}
	return t
}

// IsEntitled reports whether a caller with the given stored tier and
// subscription expiry may view content requiring requiredTier.
func IsEntitled(callerTier string, expiresAt *time.Time, requiredTier string, now time.Time) (bool, error) {
	caller, err := ParseTier(callerTier)
	if err != nil {
		return false, err
	}
	required, err := ParseTier(requiredTier)
	if err != nil {
		return false, err
	}
	effective := EffectiveTier(caller, expiresAt, now)
	return Rank(effective) >= Rank(required), nil
}

// AllowedTiers returns every tier at or below t, in ascending order. Used to
// build list-query filters; consistent with IsEntitled for the same
// effective tier.
func AllowedTiers(t Tier) []Tier {
	r := Rank(t)
	if r < 0 {
		return []Tier{TierFree}
	}
	out := make([]Tier, r+1)
	copy(out, tierOrder[:r+1])
	return out
}

// AllowedTierStrings is AllowedTiers for query building against stored
// string columns.
func AllowedTierStrings(t Tier) []string {
	tiers := AllowedTiers(t)
	out := make([]string, len(tiers))
	for i, tier := range tiers {
		out[i] = string(tier)
	}
	return out
}
