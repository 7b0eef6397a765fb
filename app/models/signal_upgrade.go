package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	UPGRADE_STATUS_PENDING   = "pending"
	UPGRADE_STATUS_CONFIRMED = "confirmed"
	UPGRADE_STATUS_FAILED    = "failed"
	UPGRADE_STATUS_REFUNDED  = "refunded"

	UPGRADE_DEFAULT_CURRENCY       = "USD"
	UPGRADE_DEFAULT_DURATION_HOURS = 72
	UPGRADE_MIN_DURATION_HOURS     = 1
	UPGRADE_MAX_DURATION_HOURS     = 168
)

// SignalUpgrade is one paid request to put a signal into dynamic mode for a
// bounded duration. PaymentIntentID is the idempotency key: exactly one
// upgrade per external payment reference. ExpiresAt is computed once at
// creation and never recomputed.
type SignalUpgrade struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UUID            string          `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	SignalID        uint            `gorm:"not null;index" json:"signal_id"`
	Signal          Signal          `gorm:"foreignKey:SignalID" json:"-"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID" json:"-"`
	PaymentIntentID string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"payment_intent_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Currency        string          `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Status          string          `gorm:"type:varchar(50);default:'pending';index" json:"status"`
	DurationHours   int             `gorm:"default:72" json:"duration_hours"`
	ExpiresAt       time.Time       `gorm:"index" json:"expires_at"`
	ConfirmedAt     *time.Time      `gorm:"type:timestamp;default:null" json:"confirmed_at"`
	RefundedAt      *time.Time      `gorm:"type:timestamp;default:null" json:"refunded_at"`
	Metadata        string          `gorm:"type:json" json:"metadata"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// upgradeTransitions is the legal state diagram: pending may confirm or
// fail, confirmed may refund, failed and refunded are terminal.
var upgradeTransitions = map[string][]string{
	UPGRADE_STATUS_PENDING:   {UPGRADE_STATUS_CONFIRMED, UPGRADE_STATUS_FAILED},
	UPGRADE_STATUS_CONFIRMED: {UPGRADE_STATUS_REFUNDED},
	UPGRADE_STATUS_FAILED:    {},
	UPGRADE_STATUS_REFUNDED:  {},
}

// CanTransitionTo reports whether newStatus is a legal successor of the
// current status.
func (su *SignalUpgrade) CanTransitionTo(newStatus string) bool {
	for _, allowed := range upgradeTransitions[su.Status] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// IsValidUpgradeStatus reports whether s names a known upgrade status.
func IsValidUpgradeStatus(s string) bool {
	_, ok := upgradeTransitions[s]
	return ok
}

// IsExpired reports whether the paid dynamic window has elapsed.
func (su *SignalUpgrade) IsExpired(now time.Time) bool {
	return su.ExpiresAt.Before(now)
}

// NewSignalUpgrade builds a pending upgrade with defaults applied and the
// expiry computed from the duration.
func NewSignalUpgrade(signalID, userID uint, paymentIntentID string, amount decimal.Decimal, durationHours int, now time.Time) *SignalUpgrade {
	if durationHours <= 0 {
		durationHours = UPGRADE_DEFAULT_DURATION_HOURS
	}
	return &SignalUpgrade{
		UUID:            uuid.NewString(),
		SignalID:        signalID,
		UserID:          userID,
		PaymentIntentID: paymentIntentID,
		Amount:          amount,
		Currency:        UPGRADE_DEFAULT_CURRENCY,
		Status:          UPGRADE_STATUS_PENDING,
		DurationHours:   durationHours,
		ExpiresAt:       now.Add(time.Duration(durationHours) * time.Hour),
		Metadata:        "{}",
	}
}
