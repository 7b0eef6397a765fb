package repository

import (
	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/app/models"
)

type signalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a new GORM-based signal repository
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) Create(signal *models.Signal) error {
	return translate(r.db.Create(signal).Error, "signal")
}

func (r *signalRepository) GetByID(id uint) (*models.Signal, error) {
	var signal models.Signal
	if err := r.db.First(&signal, id).Error; err != nil {
		return nil, translate(err, "signal")
	}
	return &signal, nil
}

func (r *signalRepository) GetByUUID(uuid string) (*models.Signal, error) {
	var signal models.Signal
	if err := r.db.Where("uuid = ?", uuid).First(&signal).Error; err != nil {
		return nil, translate(err, "signal")
	}
	return &signal, nil
}

func (r *signalRepository) Update(signal *models.Signal) error {
	return translate(r.db.Save(signal).Error, "signal")
}

func (r *signalRepository) Delete(id uint) error {
	return translate(r.db.Delete(&models.Signal{}, id).Error, "signal")
}

func (r *signalRepository) ListByTiers(tiers []string, offset, limit int) ([]models.Signal, error) {
	var signals []models.Signal
	err := r.db.Where("required_tier IN ?", tiers).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, translate(err, "signal")
	}
	return signals, nil
}

func (r *signalRepository) CountByTiers(tiers []string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Signal{}).Where("required_tier IN ?", tiers).Count(&count).Error
	if err != nil {
		return 0, translate(err, "signal")
	}
	return count, nil
}

func (r *signalRepository) ListUpdates(signalID uint, limit int) ([]models.SignalUpdate, error) {
	var updates []models.SignalUpdate
	err := r.db.Where("signal_id = ?", signalID).
		Order("created_at DESC").
		Limit(limit).
		Find(&updates).Error
	if err != nil {
		return nil, translate(err, "signal update")
	}
	return updates, nil
}
