package upgrades

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/app/models"
	"github.com/pulseapp/PulseSignals/internal/pkg/apperr"
)

// Repository provides the DB operations used by the upgrade service. It is
// the only writer of upgrade status fields and, through the lifecycle
// manager, of signal dynamic-mode fields.
type Repository interface {
	CreateUpgrade(upgrade *models.SignalUpgrade) error
	SaveUpgrade(upgrade *models.SignalUpgrade) error
	GetUpgradeByUUID(uuid string) (*models.SignalUpgrade, error)
	GetUpgradeByPaymentRef(paymentRef string) (*models.SignalUpgrade, error)
	GetSignalByID(id uint) (*models.Signal, error)
	GetSignalByUUID(uuid string) (*models.Signal, error)
	SaveSignal(signal *models.Signal) error
	CreateSignalUpdate(update *models.SignalUpdate) error
	// ListDueConfirmedUpgrades returns confirmed upgrades whose paid window
	// ended before now, oldest first, at most limit.
	ListDueConfirmedUpgrades(now time.Time, limit int) ([]models.SignalUpgrade, error)
	// ListDueActiveSignals returns active signals with a plain expiry in
	// the past, oldest first, at most limit.
	ListDueActiveSignals(now time.Time, limit int) ([]models.Signal, error)
	// InTransaction runs fn against a repository bound to one database
	// transaction; fn's error rolls everything back.
	InTransaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an upgrade repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateUpgrade(upgrade *models.SignalUpgrade) error {
	return r.translate(r.db.Create(upgrade).Error, "upgrade")
}

func (r *gormRepository) SaveUpgrade(upgrade *models.SignalUpgrade) error {
	return r.translate(r.db.Save(upgrade).Error, "upgrade")
}

func (r *gormRepository) GetUpgradeByUUID(uuid string) (*models.SignalUpgrade, error) {
	var upgrade models.SignalUpgrade
	if err := r.db.Where("uuid = ?", uuid).First(&upgrade).Error; err != nil {
		return nil, r.translate(err, "upgrade")
	}
	return &upgrade, nil
}

func (r *gormRepository) GetUpgradeByPaymentRef(paymentRef string) (*models.SignalUpgrade, error) {
	var upgrade models.SignalUpgrade
	if err := r.db.Where("payment_intent_id = ?", paymentRef).First(&upgrade).Error; err != nil {
		return nil, r.translate(err, "upgrade")
	}
	return &upgrade, nil
}

func (r *gormRepository) GetSignalByID(id uint) (*models.Signal, error) {
	var signal models.Signal
	if err := r.db.First(&signal, id).Error; err != nil {
		return nil, r.translate(err, "signal")
	}
	return &signal, nil
}

func (r *gormRepository) GetSignalByUUID(uuid string) (*models.Signal, error) {
	var signal models.Signal
	if err := r.db.Where("uuid = ?", uuid).First(&signal).Error; err != nil {
		return nil, r.translate(err, "signal")
	}
	return &signal, nil
}

func (r *gormRepository) SaveSignal(signal *models.Signal) error {
	return r.translate(r.db.Save(signal).Error, "signal")
}

func (r *gormRepository) CreateSignalUpdate(update *models.SignalUpdate) error {
	return r.translate(r.db.Create(update).Error, "signal update")
}

func (r *gormRepository) ListDueConfirmedUpgrades(now time.Time, limit int) ([]models.SignalUpgrade, error) {
	var upgrades []models.SignalUpgrade
	err := r.db.Where("status = ? AND expires_at < ?", models.UPGRADE_STATUS_CONFIRMED, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&upgrades).Error
	if err != nil {
		return nil, r.translate(err, "upgrade")
	}
	return upgrades, nil
}

func (r *gormRepository) ListDueActiveSignals(now time.Time, limit int) ([]models.Signal, error) {
	var signals []models.Signal
	err := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.SIGNAL_STATUS_ACTIVE, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&signals).Error
	if err != nil {
		return nil, r.translate(err, "signal")
	}
	return signals, nil
}

func (r *gormRepository) InTransaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("%s already exists", what)
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		return err
	}
	return apperr.Store(what+" write failed", err)
}
