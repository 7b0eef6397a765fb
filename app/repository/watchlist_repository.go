package repository

import (
	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/app/models"
)

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository creates a new GORM-based watchlist repository
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

func (r *watchlistRepository) Create(item *models.WatchlistItem) error {
	return translate(r.db.Create(item).Error, "watchlist item")
}

func (r *watchlistRepository) GetByID(id uint) (*models.WatchlistItem, error) {
	var item models.WatchlistItem
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, translate(err, "watchlist item")
	}
	return &item, nil
}

func (r *watchlistRepository) GetByUserAndSymbol(userID uint, symbol string) (*models.WatchlistItem, error) {
	var item models.WatchlistItem
	if err := r.db.Where("user_id = ? AND symbol = ?", userID, symbol).First(&item).Error; err != nil {
		return nil, translate(err, "watchlist item")
	}
	return &item, nil
}

func (r *watchlistRepository) ListByUser(userID uint, limit int) ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	err := r.db.Where("user_id = ?", userID).
		Order("added_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, translate(err, "watchlist item")
	}
	return items, nil
}

func (r *watchlistRepository) ListBySymbol(symbol string) ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	if err := r.db.Where("symbol = ?", symbol).Find(&items).Error; err != nil {
		return nil, translate(err, "watchlist item")
	}
	return items, nil
}

func (r *watchlistRepository) Update(item *models.WatchlistItem) error {
	return translate(r.db.Save(item).Error, "watchlist item")
}

func (r *watchlistRepository) Delete(id uint) error {
	return translate(r.db.Delete(&models.WatchlistItem{}, id).Error, "watchlist item")
}
