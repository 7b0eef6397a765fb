package models

import (
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

var watchlistSymbolPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// WatchlistItem tracks one symbol for one user. The (UserID, Symbol) pair
// is unique. PriceAlertTarget is required while alerts are enabled and
// cleared when they are disabled.
type WatchlistItem struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UserID              uint           `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol" json:"user_id"`
	User                User           `gorm:"foreignKey:UserID" json:"-"`
	Symbol              string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_watchlist_user_symbol" json:"symbol"`
	CompanyName         string         `gorm:"type:varchar(200)" json:"company_name"`
	Type                string         `gorm:"type:varchar(20)" json:"type"`
	CurrentPrice        float64        `json:"current_price"`
	PriceChange         float64        `json:"price_change"`
	PriceChangePercent  float64        `json:"price_change_percent"`
	IsPriceAlertEnabled bool           `gorm:"default:false" json:"is_price_alert_enabled"`
	PriceAlertTarget    *float64       `json:"price_alert_target"`
	Notes               string         `gorm:"type:text" json:"notes"`
	AddedAt             time.Time      `json:"added_at"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// Validate enforces watchlist payload rules: required fields, symbol
// format, positive price, known asset type and notes length.
func (w *WatchlistItem) Validate() error {
	if w.UserID == 0 || w.Symbol == "" || w.CompanyName == "" || w.Type == "" {
		return apperr.Validation("user, symbol, company name and type are required")
	}
	if !watchlistSymbolPattern.MatchString(w.Symbol) {
		return apperr.Validation("symbol must contain only uppercase letters and numbers")
	}
	if w.CurrentPrice <= 0 {
		return apperr.Validation("current price must be a positive number")
	}
	switch w.Type {
	case ASSET_TYPE_STOCK, ASSET_TYPE_CRYPTO, ASSET_TYPE_FOREX, ASSET_TYPE_COMMODITY:
	default:
		return apperr.Validation("type must be one of: stock, crypto, forex, commodity")
	}
	if w.IsPriceAlertEnabled && (w.PriceAlertTarget == nil || *w.PriceAlertTarget <= 0) {
		return apperr.Validation("price alert target must be a positive number")
	}
	if len(w.Notes) > 1000 {
		return apperr.Validation("notes must be no more than 1000 characters long")
	}
	return nil
}

// EnablePriceAlert turns alerting on with the given target.
func (w *WatchlistItem) EnablePriceAlert(target float64) error {
	if target <= 0 {
		return apperr.Validation("price alert target must be a positive number")
	}
	w.IsPriceAlertEnabled = true
	w.PriceAlertTarget = &target
	return nil
}

// DisablePriceAlert turns alerting off and clears the target.
func (w *WatchlistItem) DisablePriceAlert() {
	w.IsPriceAlertEnabled = false
	w.PriceAlertTarget = nil
}
