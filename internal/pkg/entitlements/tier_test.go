package entitlements

import (
	"testing"
	"time"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{in: "free", want: TierFree},
		{in: "basic", want: TierBasic},
		{in: "premium", want: TierPremium},
		{in: "pro", want: TierPro},
		{in: " PRO ", want: TierPro},
		{in: "platinum", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTier(%q) expected error, got %q", tt.in, got)
			}
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("ParseTier(%q) error kind = %v, want validation", tt.in, apperr.KindOf(err))
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTier(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRankOrdering(t *testing.T) {
	if !(Rank(TierFree) < Rank(TierBasic) && Rank(TierBasic) < Rank(TierPremium) && Rank(TierPremium) < Rank(TierPro)) {
		t.Fatalf("tier ranks out of order: free=%d basic=%d premium=%d pro=%d",
			Rank(TierFree), Rank(TierBasic), Rank(TierPremium), Rank(TierPro))
	}
}

func TestIsEntitledHierarchy(t *testing.T) {
	now := time.Now()
	tiers := []Tier{TierFree, TierBasic, TierPremium, TierPro}

	// Every caller tier must be entitled to every tier at or below it and
	// to nothing above it.
	for _, caller := range tiers {
		for _, required := range tiers {
			got, err := IsEntitled(string(caller), nil, string(required), now)
			if err != nil {
				t.Fatalf("IsEntitled(%s, %s): %v", caller, required, err)
			}
			want := Rank(caller) >= Rank(required)
			if got != want {
				t.Fatalf("IsEntitled(%s, %s) = %v, want %v", caller, required, got, want)
			}
		}
	}
}

func TestIsEntitledExpiredSubscription(t *testing.T) {
	now := time.Now()
	justExpired := now.Add(-time.Second)

	// A pro user expired one second ago only gets free content.
	ok, err := IsEntitled("pro", &justExpired, "free", now)
	if err != nil || !ok {
		t.Fatalf("expired pro should still see free content (ok=%v err=%v)", ok, err)
	}
	for _, required := range []string{"basic", "premium", "pro"} {
		ok, err := IsEntitled("pro", &justExpired, required, now)
		if err != nil {
			t.Fatalf("IsEntitled(pro expired, %s): %v", required, err)
		}
		if ok {
			t.Fatalf("expired pro must not see %s content", required)
		}
	}

	// An expiry exactly at now is not strictly in the past.
	atNow := now
	ok, err = IsEntitled("premium", &atNow, "premium", now)
	if err != nil || !ok {
		t.Fatalf("expiry at now should not downgrade (ok=%v err=%v)", ok, err)
	}

	// Free tier ignores expiry entirely.
	ok, err = IsEntitled("free", &justExpired, "free", now)
	if err != nil || !ok {
		t.Fatalf("free tier with stale expiry should see free content (ok=%v err=%v)", ok, err)
	}
}

func TestAllowedTiersConsistentWithIsEntitled(t *testing.T) {
	now := time.Now()
	for _, caller := range []Tier{TierFree, TierBasic, TierPremium, TierPro} {
		allowed := AllowedTiers(caller)
		if len(allowed) != Rank(caller)+1 {
			t.Fatalf("AllowedTiers(%s) returned %d tiers, want %d", caller, len(allowed), Rank(caller)+1)
		}
		seen := make(map[Tier]bool, len(allowed))
		for _, tier := range allowed {
			seen[tier] = true
			ok, err := IsEntitled(string(caller), nil, string(tier), now)
			if err != nil || !ok {
				t.Fatalf("AllowedTiers(%s) contains %s but IsEntitled disagrees (ok=%v err=%v)", caller, tier, ok, err)
			}
		}
		for _, tier := range []Tier{TierFree, TierBasic, TierPremium, TierPro} {
			if seen[tier] {
				continue
			}
			ok, err := IsEntitled(string(caller), nil, string(tier), now)
			if err != nil {
				t.Fatalf("IsEntitled(%s, %s): %v", caller, tier, err)
			}
			if ok {
				t.Fatalf("IsEntitled(%s, %s) true but tier missing from AllowedTiers", caller, tier)
			}
		}
	}
}

func TestAllowedTierStrings(t *testing.T) {
	got := AllowedTierStrings(TierPremium)
	want := []string{"free", "basic", "premium"}
	if len(got) != len(want) {
		t.Fatalf("AllowedTierStrings(premium) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllowedTierStrings(premium)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
