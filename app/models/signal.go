package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

const (
	SIGNAL_STATUS_ACTIVE    = "active"
	SIGNAL_STATUS_COMPLETED = "completed"
	SIGNAL_STATUS_CANCELLED = "cancelled"
	SIGNAL_STATUS_EXPIRED   = "expired"

	SIGNAL_ACTION_BUY  = "buy"
	SIGNAL_ACTION_SELL = "sell"

	ASSET_TYPE_STOCK     = "stock"
	ASSET_TYPE_CRYPTO    = "crypto"
	ASSET_TYPE_FOREX     = "forex"
	ASSET_TYPE_COMMODITY = "commodity"
)

// defaultSignalExpiryDays is the expiry window for newly active signals.
const defaultSignalExpiryDays = 7

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Signal is a published trading signal. The dynamic-mode fields are written
// exclusively by the upgrade lifecycle: IsDynamic true implies both
// DynamicUserID and DynamicExpiresAt are set, false implies both are clear.
type Signal struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UUID                 string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Symbol               string         `gorm:"type:varchar(20);index" json:"symbol"`
	CompanyName          string         `gorm:"type:varchar(200)" json:"company_name"`
	Type                 string         `gorm:"type:varchar(20)" json:"type"`
	Action               string         `gorm:"type:varchar(10)" json:"action"`
	CurrentPrice         float64        `json:"current_price"`
	TargetPrice          float64        `json:"target_price"`
	StopLoss             float64        `json:"stop_loss"`
	Confidence           float64        `json:"confidence"`
	Reasoning            string         `gorm:"type:text" json:"reasoning"`
	Tags                 string         `gorm:"type:json" json:"tags"`
	RequiredTier         string         `gorm:"type:varchar(50);default:'free';index" json:"required_tier"`
	Status               string         `gorm:"type:varchar(50);default:'active';index" json:"status"`
	ExpiresAt            *time.Time     `gorm:"type:timestamp;default:null;index" json:"expires_at"`
	ProfitLossPercentage *float64       `json:"profit_loss_percentage"`
	IsDynamic            bool           `gorm:"default:false;index" json:"is_dynamic"`
	DynamicUserID        *uint          `json:"dynamic_user_id"`
	DynamicExpiresAt     *time.Time     `gorm:"type:timestamp;default:null" json:"dynamic_expires_at"`
	LastPriceUpdate      *time.Time     `gorm:"type:timestamp;default:null" json:"last_price_update"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewSignal builds a signal with defaults applied (active status, free
// tier, fresh UUID, 7-day expiry).
func NewSignal() *Signal {
	now := time.Now()
	expiry := now.AddDate(0, 0, defaultSignalExpiryDays)
	return &Signal{
		UUID:         uuid.NewString(),
		RequiredTier: TIER_FREE,
		Status:       SIGNAL_STATUS_ACTIVE,
		Tags:         "[]",
		ExpiresAt:    &expiry,
	}
}

// Validate enforces the domain rules for signal payloads: symbol format,
// positive prices, confidence range, buy/sell target ordering and
// reasoning length.
func (s *Signal) Validate() error {
	if s.Symbol == "" || s.CompanyName == "" || s.Type == "" || s.Action == "" || s.Reasoning == "" {
		return apperr.Validation("symbol, company name, type, action and reasoning are required")
	}
	if !symbolPattern.MatchString(s.Symbol) {
		return apperr.Validation("symbol must contain only uppercase letters and numbers")
	}
	switch s.Type {
	case ASSET_TYPE_STOCK, ASSET_TYPE_CRYPTO, ASSET_TYPE_FOREX, ASSET_TYPE_COMMODITY:
	default:
		return apperr.Validation("type must be one of: stock, crypto, forex, commodity")
	}
	if s.CurrentPrice <= 0 || s.TargetPrice <= 0 || s.StopLoss <= 0 {
		return apperr.Validation("price fields must be positive numbers")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return apperr.Validation("confidence must be between 0 and 1")
	}
	switch s.Action {
	case SIGNAL_ACTION_BUY:
		if s.TargetPrice <= s.CurrentPrice {
			return apperr.Validation("for buy signals, target price must be higher than current price")
		}
		if s.StopLoss >= s.CurrentPrice {
			return apperr.Validation("for buy signals, stop loss must be lower than current price")
		}
	case SIGNAL_ACTION_SELL:
		if s.TargetPrice >= s.CurrentPrice {
			return apperr.Validation("for sell signals, target price must be lower than current price")
		}
		if s.StopLoss <= s.CurrentPrice {
			return apperr.Validation("for sell signals, stop loss must be higher than current price")
		}
	default:
		return apperr.Validation("action must be buy or sell")
	}
	if len(s.Reasoning) < 10 {
		return apperr.Validation("reasoning must be at least 10 characters long")
	}
	if len(s.Reasoning) > 2000 {
		return apperr.Validation("reasoning must be no more than 2000 characters long")
	}
	return nil
}

// SetStatus applies a lifecycle status change and its side effects:
// completed/cancelled clear the plain expiry (the signal can never be
// re-expired by the sweep), completed records profit/loss against the
// target, re-activation restores a default expiry window.
func (s *Signal) SetStatus(newStatus string, now time.Time) error {
	switch newStatus {
	case SIGNAL_STATUS_ACTIVE, SIGNAL_STATUS_COMPLETED, SIGNAL_STATUS_CANCELLED, SIGNAL_STATUS_EXPIRED:
	default:
		return apperr.Validation("unknown signal status %q", newStatus)
	}
	if s.Status == newStatus {
		return nil
	}

	s.Status = newStatus
	switch newStatus {
	case SIGNAL_STATUS_COMPLETED:
		if s.CurrentPrice > 0 && s.TargetPrice > 0 {
			pl := ((s.CurrentPrice - s.TargetPrice) / s.TargetPrice) * 100
			s.ProfitLossPercentage = &pl
		}
		s.ExpiresAt = nil
	case SIGNAL_STATUS_CANCELLED:
		s.ExpiresAt = nil
	case SIGNAL_STATUS_ACTIVE:
		if s.ExpiresAt == nil {
			expiry := now.AddDate(0, 0, defaultSignalExpiryDays)
			s.ExpiresAt = &expiry
		}
	}
	return nil
}

// IsActive reports whether the signal is still running
func (s *Signal) IsActive() bool {
	return s.Status == SIGNAL_STATUS_ACTIVE
}
