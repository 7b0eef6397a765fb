package pricealert

import (
	"math"

	"github.com/pulseapp/PulseSignals/app/models"
)

// Direction indicates which side of the target a crossing ended on.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// SignificantMoveThreshold is the absolute day-change percentage above
// which the owner is notified regardless of alert configuration.
const SignificantMoveThreshold = 5.0

// CheckCrossing reports whether the move from previousPrice to newPrice
// crossed the item's alert target, and in which direction. Triggered
// "above" iff previous < target <= new, "below" iff previous > target >=
// new. Alerts are sticky: firing does not disable the alert, so the same
// target may fire again on every later crossing in either direction.
func CheckCrossing(item *models.WatchlistItem, previousPrice, newPrice float64) (bool, Direction) {
	if item == nil || !item.IsPriceAlertEnabled || item.PriceAlertTarget == nil {
		return false, ""
	}
	target := *item.PriceAlertTarget

	if previousPrice < target && newPrice >= target {
		return true, DirectionAbove
	}
	if previousPrice > target && newPrice <= target {
		return true, DirectionBelow
	}
	return false, ""
}

// IsSignificantMove reports whether a day-change percentage is large enough
// to warrant a push on its own.
func IsSignificantMove(priceChangePercent float64) bool {
	return math.Abs(priceChangePercent) >= SignificantMoveThreshold
}
