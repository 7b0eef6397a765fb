package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UPDATE_TYPE_ACTIVATION = "activation"
	UPDATE_TYPE_EXPIRY     = "expiry"
	UPDATE_TYPE_ANALYSIS   = "analysis"
)

// SignalUpdate is an audit record attached to a signal while it runs in
// dynamic mode (activation, expiry, analysis events).
type SignalUpdate struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SignalID   uint           `gorm:"not null;index" json:"signal_id"`
	UpgradeID  uint           `gorm:"index" json:"upgrade_id"`
	UserID     uint           `gorm:"index" json:"user_id"`
	UpdateType string         `gorm:"type:varchar(50)" json:"update_type"`
	Title      string         `gorm:"type:varchar(200)" json:"title"`
	Content    string         `gorm:"type:text" json:"content"`
	Priority   string         `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	Data       string         `gorm:"type:json" json:"data"`
	IsRead     bool           `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
