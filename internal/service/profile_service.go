package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
	"fitcommunity/pkg/cloudinary"

	"github.com/google/uuid"
)

// ProfileInput carries a partial profile update; nil fields are left alone.
type ProfileInput struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	DateOfBirth *time.Time
	Gender      *string
	HeightCm    *float64
	WeightKg    *float64
	Location    *string
}

// Profile is the caller's own account with the age computed at read time.
type Profile struct {
	models.Account
	Age *int `json:"age"`
}

// PublicProfile is what other members see of a user.
type PublicProfile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileService struct {
	users  *repository.UserRepository
	images cloudinary.Uploader // nil when uploads are not configured
	folder string
	now    func() time.Time
}

func NewProfileService(users *repository.UserRepository, images cloudinary.Uploader, folder string) *ProfileService {
	return &ProfileService{users: users, images: images, folder: folder, now: time.Now}
}

func (s *ProfileService) profile(u *models.User) *Profile {
	return &Profile{Account: u.Account(), Age: u.Age(s.now())}
}

func (s *ProfileService) public(u *models.User) PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Age:       u.Age(s.now()),
		CreatedAt: u.CreatedAt,
	}
}

func (s *ProfileService) Me(userID uint) (*Profile, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return s.profile(u), nil
}

func (s *ProfileService) Update(userID uint, in ProfileInput) (*Profile, error) {
	fields := map[string]interface{}{}
	bad := map[string]string{}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.DateOfBirth != nil {
		if in.DateOfBirth.After(s.now()) {
			bad["date_of_birth"] = "must be in the past"
		}
		fields["date_of_birth"] = *in.DateOfBirth
	}
	if in.Gender != nil {
		fields["gender"] = *in.Gender
	}
	if in.HeightCm != nil {
		if *in.HeightCm <= 0 || *in.HeightCm > 300 {
			bad["height_cm"] = "must be between 0 and 300"
		}
		fields["height_cm"] = *in.HeightCm
	}
	if in.WeightKg != nil {
		if *in.WeightKg <= 0 || *in.WeightKg > 700 {
			bad["weight_kg"] = "must be between 0 and 700"
		}
		fields["weight_kg"] = *in.WeightKg
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if len(bad) > 0 {
		return nil, domain.Validation("invalid profile", bad)
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(userID, fields); err != nil {
			return nil, err
		}
	}
	return s.Me(userID)
}

// SetAvatar uploads a new avatar and removes the previous Cloudinary asset.
func (s *ProfileService) SetAvatar(ctx context.Context, userID uint, file io.Reader) (*Profile, error) {
	if s.images == nil {
		return nil, domain.UpstreamUnavailable("image upload", nil)
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	publicID := fmt.Sprintf("avatar_%d_%s", userID, uuid.NewString()[:8])
	res, err := s.images.UploadImage(ctx, file, s.folder+"/avatars", publicID, cloudinary.Avatar)
	if err != nil {
		return nil, domain.Upstream("avatar upload", err)
	}
	if err := s.users.UpdateFields(userID, map[string]interface{}{"avatar_url": res.URL}); err != nil {
		return nil, err
	}
	if old := cloudinary.PublicIDFromURL(u.AvatarURL); old != "" {
		if err := s.images.Delete(ctx, old); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("public_id", old).Msg("old avatar delete failed")
		}
	}
	u.AvatarURL = res.URL
	return s.profile(u), nil
}

// UploadThreadImage stores a forum image and returns its URL.
func (s *ProfileService) UploadThreadImage(ctx context.Context, userID, threadID uint, file io.Reader) (string, error) {
	if s.images == nil {
		return "", domain.UpstreamUnavailable("image upload", nil)
	}
	publicID := fmt.Sprintf("thread_%d_%d_%s", threadID, userID, uuid.NewString()[:8])
	res, err := s.images.UploadImage(ctx, file, s.folder+"/threads", publicID, cloudinary.ThreadImage)
	if err != nil {
		return "", domain.Upstream("image upload", err)
	}
	return res.URL, nil
}

func (s *ProfileService) SetFCMToken(userID uint, token string) error {
	return s.users.UpdateFields(userID, map[string]interface{}{"fcm_token": strings.TrimSpace(token)})
}

func (s *ProfileService) Public(id uint) (*PublicProfile, error) {
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	p := s.public(u)
	return &p, nil
}

func (s *ProfileService) Search(prefix string, limit int) ([]PublicProfile, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, domain.Invalid("search is required")
	}
	users, err := s.users.SearchByUsername(prefix, limit)
	if err != nil {
		return nil, err
	}
	return s.profiles(users), nil
}

func (s *ProfileService) Coaches(limit, offset int) ([]PublicProfile, error) {
	users, err := s.users.ListCoaches(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.profiles(users), nil
}

func (s *ProfileService) profiles(users []models.User) []PublicProfile {
	out := make([]PublicProfile, 0, len(users))
	for i := range users {
		out = append(out, s.public(&users[i]))
	}
	return out
}
