package pricealert

import (
	"testing"

	"github.com/pulseapp/PulseSignals/app/models"
)

func alertItem(target float64) *models.WatchlistItem {
	return &models.WatchlistItem{
		Symbol:              "AAPL",
		IsPriceAlertEnabled: true,
		PriceAlertTarget:    &target,
	}
}

func TestCheckCrossing(t *testing.T) {
	tests := []struct {
		name      string
		item      *models.WatchlistItem
		prev, new float64
		want      bool
		direction Direction
	}{
		{name: "crosses above", item: alertItem(100), prev: 95, new: 102, want: true, direction: DirectionAbove},
		{name: "touches from below", item: alertItem(100), prev: 95, new: 100, want: true, direction: DirectionAbove},
		{name: "crosses below", item: alertItem(100), prev: 102, new: 95, want: true, direction: DirectionBelow},
		{name: "touches from above", item: alertItem(100), prev: 102, new: 100, want: true, direction: DirectionBelow},
		{name: "stays below", item: alertItem(100), prev: 95, new: 98, want: false},
		{name: "stays above", item: alertItem(100), prev: 105, new: 101, want: false},
		{name: "starts at target going up", item: alertItem(100), prev: 100, new: 110, want: false},
		{name: "alert disabled", item: &models.WatchlistItem{IsPriceAlertEnabled: false}, prev: 95, new: 102, want: false},
		{name: "no target set", item: &models.WatchlistItem{IsPriceAlertEnabled: true}, prev: 95, new: 102, want: false},
		{name: "nil item", item: nil, prev: 95, new: 102, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dir := CheckCrossing(tt.item, tt.prev, tt.new)
			if got != tt.want {
				t.Fatalf("CheckCrossing(prev=%v, new=%v) = %v, want %v", tt.prev, tt.new, got, tt.want)
			}
			if got && dir != tt.direction {
				t.Fatalf("CheckCrossing direction = %q, want %q", dir, tt.direction)
			}
		})
	}
}

func TestCheckCrossingSticky(t *testing.T) {
	item := alertItem(100)

	// The alert fires, stays enabled and may fire again on the way back.
	if ok, dir := CheckCrossing(item, 95, 102); !ok || dir != DirectionAbove {
		t.Fatalf("first crossing not detected")
	}
	if !item.IsPriceAlertEnabled {
		t.Fatalf("crossing must not disable the alert")
	}
	if ok, dir := CheckCrossing(item, 102, 95); !ok || dir != DirectionBelow {
		t.Fatalf("re-crossing not detected")
	}
}

func TestIsSignificantMove(t *testing.T) {
	tests := []struct {
		pct  float64
		want bool
	}{
		{pct: 5.0, want: true},
		{pct: -5.1, want: true},
		{pct: 4.99, want: false},
		{pct: -4.2, want: false},
		{pct: 0, want: false},
	}
	for _, tt := range tests {
		if got := IsSignificantMove(tt.pct); got != tt.want {
			t.Fatalf("IsSignificantMove(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}
