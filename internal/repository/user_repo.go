package repository

import (
	"strings"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("google_id = ?", googleID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs returns the users found, keyed by id. Missing ids are absent from the map.
func (r *UserRepository) GetByIDs(ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.User
	if err := r.db.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// UpdateFields writes only the given columns.
func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// SearchByUsername matches a username prefix, case-insensitively.
func (r *UserRepository) SearchByUsername(prefix string, limit int) ([]models.User, error) {
	var list []models.User
	q := strings.ToLower(strings.TrimSpace(prefix))
	q = strings.NewReplacer("%", `\%`, "_", `\_`).Replace(q)
	err := r.db.Where("LOWER(username) LIKE ?", q+"%").Order("username").Limit(limit).Find(&list).Error
	return list, err
}

func (r *UserRepository) ListCoaches(limit, offset int) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("role = ?", domain.RoleCoach).Order("username").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
