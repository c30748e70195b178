package repository

import (
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(g *models.FitnessGoal) error {
	return r.db.Create(g).Error
}

func (r *GoalRepository) GetByID(id uint) (*models.FitnessGoal, error) {
	var g models.FitnessGoal
	if err := r.db.First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GoalRepository) Update(g *models.FitnessGoal) error {
	return r.db.Save(g).Error
}

func (r *GoalRepository) Delete(id uint) error {
	return r.db.Delete(&models.FitnessGoal{}, id).Error
}

// ListByUser returns the goals owned by userID, optionally filtered by status.
func (r *GoalRepository) ListByUser(userID uint, status string) ([]models.FitnessGoal, error) {
	var list []models.FitnessGoal
	q := r.db.Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("target_date ASC, id ASC").Find(&list).Error
	return list, err
}

// ListAssignedBy returns goals mentorID created for mentees.
func (r *GoalRepository) ListAssignedBy(mentorID uint) ([]models.FitnessGoal, error) {
	var list []models.FitnessGoal
	err := r.db.Where("mentor_id = ?", mentorID).Order("target_date ASC, id ASC").Find(&list).Error
	return list, err
}

// AddProgress increments current_value atomically. completed reports whether
// this call moved the goal from ACTIVE to COMPLETED; only one caller can win
// that transition.
func (r *GoalRepository) AddProgress(id uint, increment float64, at time.Time) (g *models.FitnessGoal, completed bool, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.FitnessGoal{}).Where("id = ?", id).
			UpdateColumn("current_value", gorm.Expr("current_value + ?", increment))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if completed, err = claimCompletion(tx, id, at); err != nil {
			return err
		}
		var row models.FitnessGoal
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		g = &row
		return nil
	})
	return g, completed, err
}

// ClaimCompletion completes an ACTIVE goal whose current_value has reached
// its target and reports whether this call did it.
func (r *GoalRepository) ClaimCompletion(id uint, at time.Time) (bool, error) {
	return claimCompletion(r.db, id, at)
}

func claimCompletion(db *gorm.DB, id uint, at time.Time) (bool, error) {
	res := db.Model(&models.FitnessGoal{}).
		Where("id = ? AND status = ? AND current_value >= target_value", id, domain.GoalStatusActive).
		UpdateColumns(map[string]interface{}{"status": domain.GoalStatusCompleted, "completed_at": at})
	return res.RowsAffected == 1, res.Error
}

// ClaimOverdue flips ACTIVE goals whose target_date has passed to INACTIVE and
// returns the ones this call flipped.
func (r *GoalRepository) ClaimOverdue(now time.Time) ([]models.FitnessGoal, error) {
	var candidates []models.FitnessGoal
	if err := r.db.Where("status = ? AND target_date < ?", domain.GoalStatusActive, now).Find(&candidates).Error; err != nil {
		return nil, err
	}
	claimed := make([]models.FitnessGoal, 0, len(candidates))
	for _, g := range candidates {
		res := r.db.Model(&models.FitnessGoal{}).
			Where("id = ? AND status = ?", g.ID, domain.GoalStatusActive).
			UpdateColumn("status", domain.GoalStatusInactive)
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 1 {
			g.Status = domain.GoalStatusInactive
			claimed = append(claimed, g)
		}
	}
	return claimed, nil
}
