package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/pulseapp/PulseSignals/app/models"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-based user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return translate(r.db.Create(user).Error, "user")
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("api_key_hash = ? AND api_key_hash != ''", hash).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return translate(r.db.Save(user).Error, "user")
}

func (r *userRepository) TouchLastLogin(id uint, at time.Time) error {
	err := r.db.Model(&models.User{}).Where("id = ?", id).
		Update("last_login_at", at).Error
	return translate(err, "user")
}
