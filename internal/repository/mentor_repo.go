package repository

import (
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

type MentorRepository struct {
	db *gorm.DB
}

func NewMentorRepository(db *gorm.DB) *MentorRepository {
	return &MentorRepository{db: db}
}

func (r *MentorRepository) Create(m *models.MentorRelationship) error {
	return r.db.Create(m).Error
}

func (r *MentorRepository) GetByID(id uint) (*models.MentorRelationship, error) {
	var m models.MentorRelationship
	if err := r.db.Preload("Mentor").Preload("Mentee").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MentorRepository) GetByPair(mentorID, menteeID uint) (*models.MentorRelationship, error) {
	var m models.MentorRelationship
	if err := r.db.Where("mentor_id = ? AND mentee_id = ?", mentorID, menteeID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Transition moves a relationship from one status to another. It reports false
// when the row was no longer in the from status.
func (r *MentorRepository) Transition(id uint, from, to string, at time.Time) (bool, error) {
	res := r.db.Model(&models.MentorRelationship{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "responded_at": at})
	return res.RowsAffected == 1, res.Error
}

// Reopen turns a REJECTED or TERMINATED row back into a PENDING request.
func (r *MentorRepository) Reopen(id, requestedBy uint) (bool, error) {
	res := r.db.Model(&models.MentorRelationship{}).
		Where("id = ? AND status IN ?", id, []string{domain.MentorStatusRejected, domain.MentorStatusTerminated}).
		Updates(map[string]interface{}{"status": domain.MentorStatusPending, "requested_by": requestedBy, "responded_at": nil})
	return res.RowsAffected == 1, res.Error
}

func (r *MentorRepository) IsAcceptedMentor(mentorID, menteeID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.MentorRelationship{}).
		Where("mentor_id = ? AND mentee_id = ? AND status = ?", mentorID, menteeID, domain.MentorStatusAccepted).
		Count(&n).Error
	return n > 0, err
}

// ListMentors returns accepted relationships where userID is the mentee.
func (r *MentorRepository) ListMentors(userID uint) ([]models.MentorRelationship, error) {
	var list []models.MentorRelationship
	err := r.db.Where("mentee_id = ? AND status = ?", userID, domain.MentorStatusAccepted).
		Preload("Mentor").Order("updated_at DESC").Find(&list).Error
	return list, err
}

// ListMentees returns accepted relationships where userID is the mentor.
func (r *MentorRepository) ListMentees(userID uint) ([]models.MentorRelationship, error) {
	var list []models.MentorRelationship
	err := r.db.Where("mentor_id = ? AND status = ?", userID, domain.MentorStatusAccepted).
		Preload("Mentee").Order("updated_at DESC").Find(&list).Error
	return list, err
}

// ListPendingFor returns pending requests userID must answer.
func (r *MentorRepository) ListPendingFor(userID uint) ([]models.MentorRelationship, error) {
	var list []models.MentorRelationship
	err := r.db.Where("(mentor_id = ? OR mentee_id = ?) AND requested_by <> ? AND status = ?", userID, userID, userID, domain.MentorStatusPending).
		Preload("Mentor").Preload("Mentee").Order("created_at DESC").Find(&list).Error
	return list, err
}
