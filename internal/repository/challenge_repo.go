package repository

import (
	"sort"
	"time"

	"fitcommunity/internal/models"
	"fitcommunity/pkg/location"

	"gorm.io/gorm"
)

// ChallengeFilter holds the optional search predicates; nil means "not supplied".
type ChallengeFilter struct {
	Now           time.Time
	UserID        uint
	IsActive      *bool
	Participating *bool
	MinAge        *int
	MaxAge        *int
	Center        *location.Point
	RadiusKm      float64
	Limit         int
	Offset        int
}

type ChallengeHit struct {
	Challenge  models.Challenge
	DistanceKm *float64
}

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(c *models.Challenge) error {
	return r.db.Create(c).Error
}

func (r *ChallengeRepository) GetByID(id uint) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChallengeRepository) Update(c *models.Challenge) error {
	return r.db.Save(c).Error
}

func (r *ChallengeRepository) Delete(id uint) error {
	return r.db.Delete(&models.Challenge{}, id).Error
}

// Search composes the active, participation, age band and distance filters.
// Distance uses a bounding-box prefilter in SQL followed by haversine in the
// application; rows without coordinates never match a location search.
func (r *ChallengeRepository) Search(f ChallengeFilter) ([]ChallengeHit, error) {
	q := r.db.Model(&models.Challenge{})

	if f.IsActive != nil {
		if *f.IsActive {
			q = q.Where("start_date <= ? AND end_date >= ?", f.Now, f.Now)
		} else {
			q = q.Where("(start_date > ? OR end_date < ?)", f.Now, f.Now)
		}
	}
	if f.Participating != nil {
		sub := r.db.Model(&models.ChallengeParticipant{}).Select("challenge_id").Where("user_id = ?", f.UserID)
		if *f.Participating {
			q = q.Where("id IN (?)", sub)
		} else {
			q = q.Where("id NOT IN (?)", sub)
		}
	}
	// Compatible-band semantics: an unset bound on the challenge always matches.
	if f.MinAge != nil {
		q = q.Where("(min_age IS NULL OR min_age <= ?)", *f.MinAge)
	}
	if f.MaxAge != nil {
		q = q.Where("(max_age IS NULL OR max_age >= ?)", *f.MaxAge)
	}
	if f.Center != nil {
		box := location.BoundingBox(*f.Center, f.RadiusKm)
		q = q.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
		if box.WrapsLng() {
			q = q.Where("(longitude >= ? OR longitude <= ?)", box.MinLng, box.MaxLng)
		} else {
			q = q.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
		}
	}

	var rows []models.Challenge
	if err := q.Order("start_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	hits := make([]ChallengeHit, 0, len(rows))
	for _, c := range rows {
		hit := ChallengeHit{Challenge: c}
		if f.Center != nil {
			d := location.HaversineKm(f.Center.Lat, f.Center.Lng, *c.Latitude, *c.Longitude)
			if d > f.RadiusKm {
				continue
			}
			hit.DistanceKm = &d
		}
		hits = append(hits, hit)
	}
	if f.Center != nil {
		sort.SliceStable(hits, func(i, j int) bool { return *hits[i].DistanceKm < *hits[j].DistanceKm })
	}
	return paginate(hits, f.Limit, f.Offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// Participants

func (r *ChallengeRepository) AddParticipant(p *models.ChallengeParticipant) error {
	return r.db.Create(p).Error
}

func (r *ChallengeRepository) GetParticipant(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	var p models.ChallengeParticipant
	if err := r.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// RemoveParticipant hard-deletes the row and reports whether one existed.
func (r *ChallengeRepository) RemoveParticipant(challengeID, userID uint) (bool, error) {
	res := r.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).Delete(&models.ChallengeParticipant{})
	return res.RowsAffected > 0, res.Error
}

func (r *ChallengeRepository) IsParticipant(challengeID, userID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.ChallengeParticipant{}).Where("challenge_id = ? AND user_id = ?", challengeID, userID).Count(&n).Error
	return n > 0, err
}

// ParticipatingIn returns the subset of challengeIDs userID has joined.
func (r *ChallengeRepository) ParticipatingIn(userID uint, challengeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if len(challengeIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := r.db.Model(&models.ChallengeParticipant{}).
		Where("user_id = ? AND challenge_id IN ?", userID, challengeIDs).
		Pluck("challenge_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}

func (r *ChallengeRepository) CountParticipants(challengeIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64)
	if len(challengeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ChallengeID uint
		N           int64
	}
	err := r.db.Model(&models.ChallengeParticipant{}).
		Select("challenge_id, COUNT(*) AS n").
		Where("challenge_id IN ?", challengeIDs).
		Group("challenge_id").Scan(&rows).Error
	for _, row := range rows {
		out[row.ChallengeID] = row.N
	}
	return out, err
}

// ListParticipants is ordered as a leaderboard: finishers first by finish
// time, then by progress.
func (r *ChallengeRepository) ListParticipants(challengeID uint) ([]models.ChallengeParticipant, error) {
	var list []models.ChallengeParticipant
	err := r.db.Where("challenge_id = ?", challengeID).Preload("User").
		Order("CASE WHEN finish_date IS NULL THEN 1 ELSE 0 END, finish_date ASC, current_value DESC, joined_at ASC").
		Find(&list).Error
	return list, err
}

func (r *ChallengeRepository) ParticipantUserIDs(challengeID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ChallengeParticipant{}).Where("challenge_id = ?", challengeID).Pluck("user_id", &ids).Error
	return ids, err
}

// AddProgress increments current_value atomically and, when the new value
// reaches target for the first time, stamps finish_date. finished reports
// whether this call set finish_date.
func (r *ChallengeRepository) AddProgress(challengeID, userID uint, increment, target float64, at time.Time) (p *models.ChallengeParticipant, finished bool, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			UpdateColumn("current_value", gorm.Expr("current_value + ?", increment))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		fin := tx.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ? AND user_id = ? AND finish_date IS NULL AND current_value >= ?", challengeID, userID, target).
			UpdateColumn("finish_date", at)
		if fin.Error != nil {
			return fin.Error
		}
		finished = fin.RowsAffected == 1
		var row models.ChallengeParticipant
		if err := tx.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&row).Error; err != nil {
			return err
		}
		p = &row
		return nil
	})
	return p, finished, err
}

// ClaimEnded returns challenges whose end_date passed and that have not been
// announced yet, stamping end_notified_at. Each challenge is claimed by exactly
// one caller even when several run concurrently.
func (r *ChallengeRepository) ClaimEnded(now time.Time) ([]models.Challenge, error) {
	var candidates []models.Challenge
	if err := r.db.Where("end_date < ? AND end_notified_at IS NULL", now).Find(&candidates).Error; err != nil {
		return nil, err
	}
	claimed := make([]models.Challenge, 0, len(candidates))
	for _, c := range candidates {
		res := r.db.Model(&models.Challenge{}).
			Where("id = ? AND end_notified_at IS NULL", c.ID).
			UpdateColumn("end_notified_at", now)
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 1 {
			c.EndNotifiedAt = &now
			claimed = append(claimed, c)
		}
	}
	return claimed, nil
}
