package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

func validBuySignal() *Signal {
	s := NewSignal()
	s.Symbol = "AAPL"
	s.CompanyName = "Apple Inc."
	s.Type = ASSET_TYPE_STOCK
	s.Action = SIGNAL_ACTION_BUY
	s.CurrentPrice = 100
	s.TargetPrice = 120
	s.StopLoss = 90
	s.Confidence = 0.8
	s.Reasoning = "Strong earnings momentum and widening services margin."
	return s
}

func TestSignalValidate(t *testing.T) {
	require.NoError(t, validBuySignal().Validate())

	tests := []struct {
		name   string
		mutate func(*Signal)
	}{
		{"lowercase symbol", func(s *Signal) { s.Symbol = "aapl" }},
		{"unknown type", func(s *Signal) { s.Type = "bond" }},
		{"zero price", func(s *Signal) { s.CurrentPrice = 0 }},
		{"confidence above one", func(s *Signal) { s.Confidence = 1.2 }},
		{"buy target below current", func(s *Signal) { s.TargetPrice = 95 }},
		{"buy stop loss above current", func(s *Signal) { s.StopLoss = 105 }},
		{"short reasoning", func(s *Signal) { s.Reasoning = "buy it" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validBuySignal()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "kind = %v", apperr.KindOf(err))
		})
	}
}

func TestSignalValidateSellOrdering(t *testing.T) {
	s := validBuySignal()
	s.Action = SIGNAL_ACTION_SELL
	s.TargetPrice = 80
	s.StopLoss = 110
	require.NoError(t, s.Validate())

	s.TargetPrice = 110
	assert.Error(t, s.Validate())
}

func TestSignalSetStatusCompletedClearsExpiry(t *testing.T) {
	now := time.Now()
	s := validBuySignal()
	require.NotNil(t, s.ExpiresAt)

	require.NoError(t, s.SetStatus(SIGNAL_STATUS_COMPLETED, now))
	assert.Nil(t, s.ExpiresAt, "completed signal must never be re-expired by the sweep")
	require.NotNil(t, s.ProfitLossPercentage)
	// current 100 vs target 120 -> -16.66..%
	assert.InDelta(t, -16.67, *s.ProfitLossPercentage, 0.01)
}

func TestSignalSetStatusCancelledClearsExpiry(t *testing.T) {
	s := validBuySignal()
	require.NoError(t, s.SetStatus(SIGNAL_STATUS_CANCELLED, time.Now()))
	assert.Nil(t, s.ExpiresAt)
	assert.Nil(t, s.ProfitLossPercentage)
}

func TestSignalSetStatusReactivationRestoresExpiry(t *testing.T) {
	now := time.Now()
	s := validBuySignal()
	require.NoError(t, s.SetStatus(SIGNAL_STATUS_CANCELLED, now))
	require.NoError(t, s.SetStatus(SIGNAL_STATUS_ACTIVE, now))
	require.NotNil(t, s.ExpiresAt)
	assert.WithinDuration(t, now.AddDate(0, 0, 7), *s.ExpiresAt, time.Second)
}

func TestSignalSetStatusUnknown(t *testing.T) {
	s := validBuySignal()
	err := s.SetStatus("archived", time.Now())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpgradeTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{UPGRADE_STATUS_PENDING, UPGRADE_STATUS_CONFIRMED, true},
		{UPGRADE_STATUS_PENDING, UPGRADE_STATUS_FAILED, true},
		{UPGRADE_STATUS_PENDING, UPGRADE_STATUS_REFUNDED, false},
		{UPGRADE_STATUS_CONFIRMED, UPGRADE_STATUS_REFUNDED, true},
		{UPGRADE_STATUS_CONFIRMED, UPGRADE_STATUS_FAILED, false},
		{UPGRADE_STATUS_FAILED, UPGRADE_STATUS_CONFIRMED, false},
		{UPGRADE_STATUS_REFUNDED, UPGRADE_STATUS_PENDING, false},
	}

	for _, tt := range tests {
		su := &SignalUpgrade{Status: tt.from}
		if got := su.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestUserSetSubscriptionTier(t *testing.T) {
	now := time.Now()

	u := &User{SubscriptionTier: TIER_FREE}
	u.SetSubscriptionTier(TIER_PREMIUM, now)
	require.NotNil(t, u.SubscriptionExpiresAt)
	assert.WithinDuration(t, now.AddDate(0, 0, 30), *u.SubscriptionExpiresAt, time.Second)

	// Explicit expiry is kept on upgrade.
	explicit := now.AddDate(0, 1, 0)
	u2 := &User{SubscriptionTier: TIER_BASIC, SubscriptionExpiresAt: &explicit}
	u2.SetSubscriptionTier(TIER_PRO, now)
	assert.Equal(t, explicit, *u2.SubscriptionExpiresAt)

	// Downgrade to free clears the expiry.
	u2.SetSubscriptionTier(TIER_FREE, now)
	assert.Nil(t, u2.SubscriptionExpiresAt)
}

func TestUserIssueAPIKey(t *testing.T) {
	u := &User{}
	key, err := u.IssueAPIKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)
	assert.True(t, u.HasActiveAPIKey())
	assert.Equal(t, HashAPIKey(key), u.APIKeyHash)
	assert.NotNil(t, u.APIKeyCreatedAt)
}
