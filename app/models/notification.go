package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NOTIFICATION_TYPE_PAYMENT_SUCCESS = "payment_success"
	NOTIFICATION_TYPE_PAYMENT_FAILED  = "payment_failed"
	NOTIFICATION_TYPE_SYSTEM_ALERT    = "system_alert"
	NOTIFICATION_TYPE_PRICE_ALERT     = "price_alert"
	NOTIFICATION_TYPE_WATCHLIST       = "watchlist"

	NOTIFICATION_PRIORITY_LOW    = "low"
	NOTIFICATION_PRIORITY_MEDIUM = "medium"
	NOTIFICATION_PRIORITY_HIGH   = "high"

	NOTIFICATION_ACTION_NONE        = "none"
	NOTIFICATION_ACTION_VIEW_SIGNAL = "view_signal"
)

type Notification struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"index" json:"user_id"`
	User       User           `gorm:"foreignKey:UserID" json:"-"`
	Type       string         `gorm:"type:varchar(50)" json:"type"`
	Title      string         `gorm:"type:varchar(200)" json:"title"`
	Message    string         `gorm:"type:text" json:"message"`
	Priority   string         `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	ActionType string         `gorm:"type:varchar(50);default:'none'" json:"action_type"`
	ActionData string         `gorm:"type:json" json:"action_data"`
	IsRead     bool           `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead marks a notification as read
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}

// CreateNotification persists a new notification row
func CreateNotification(db *gorm.DB, n *Notification) error {
	if n.Priority == "" {
		n.Priority = NOTIFICATION_PRIORITY_MEDIUM
	}
	if n.ActionType == "" {
		n.ActionType = NOTIFICATION_ACTION_NONE
	}
	if n.ActionData == "" {
		n.ActionData = "{}"
	}
	return db.Create(n).Error
}
