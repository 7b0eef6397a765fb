package repository

import (
	"time"

	"github.com/pulseapp/PulseSignals/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	TouchLastLogin(id uint, at time.Time) error
}

// SignalRepository defines the interface for signal-related database operations
type SignalRepository interface {
	Create(signal *models.Signal) error
	GetByID(id uint) (*models.Signal, error)
	GetByUUID(uuid string) (*models.Signal, error)
	Update(signal *models.Signal) error
	Delete(id uint) error
	// ListByTiers returns signals whose required tier is in tiers, newest
	// first. Used by the tier-filtered list endpoint.
	ListByTiers(tiers []string, offset, limit int) ([]models.Signal, error)
	CountByTiers(tiers []string) (int64, error)
	ListUpdates(signalID uint, limit int) ([]models.SignalUpdate, error)
}

// WatchlistRepository defines the interface for watchlist operations
type WatchlistRepository interface {
	Create(item *models.WatchlistItem) error
	GetByID(id uint) (*models.WatchlistItem, error)
	GetByUserAndSymbol(userID uint, symbol string) (*models.WatchlistItem, error)
	ListByUser(userID uint, limit int) ([]models.WatchlistItem, error)
	// ListBySymbol returns every user's item for one symbol. Used by the
	// market price feed to fan a quote out to all watchers.
	ListBySymbol(symbol string) ([]models.WatchlistItem, error)
	Update(item *models.WatchlistItem) error
	Delete(id uint) error
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByUser(userID uint, limit int) ([]models.Notification, error)
	MarkRead(id, userID uint) error
}
