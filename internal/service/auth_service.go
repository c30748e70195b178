package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fitcommunity/config"
	"fitcommunity/internal/auth"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists    = domain.Conflict("email already registered")
	ErrUsernameExists = domain.Conflict("username already taken")
	ErrInvalidCreds   = domain.Unauthenticated("invalid email or password")
	ErrNoPassword     = domain.Invalid("account uses Google sign-in; set a password first")
)

type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	Role        string
	DateOfBirth *time.Time
}

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, now: time.Now}
}

func (s *AuthService) Register(in RegisterInput) (*models.User, *auth.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleCoach {
		return nil, nil, domain.Invalid("role must be USER or COACH")
	}
	if in.DateOfBirth != nil && in.DateOfBirth.After(s.now()) {
		return nil, nil, domain.Validation("invalid input", map[string]string{"date_of_birth": "must be in the past"})
	}
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if _, err := s.userRepo.GetByUsername(in.Username); err == nil {
		return nil, nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	u := &models.User{
		Email:        email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		DateOfBirth:  in.DateOfBirth,
	}
	if err := s.userRepo.Create(u); err != nil {
		if isDuplicate(err) {
			return nil, nil, domain.Conflict("email or username already registered")
		}
		return nil, nil, err
	}
	pair, err := s.issue(u)
	return u, pair, err
}

func (s *AuthService) Login(email, password string) (*models.User, *auth.TokenPair, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCreds
	}
	pair, err := s.issue(u)
	return u, pair, err
}

// LoginWithGoogle finds the user by Google ID, links an existing account with
// the same email, or creates a new USER. isNew reports the last case.
func (s *AuthService) LoginWithGoogle(googleID, email, name, avatarURL string) (u *models.User, pair *auth.TokenPair, isNew bool, err error) {
	u, err = s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		pair, err = s.issue(u)
		return u, pair, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, false, err
	}
	email = strings.ToLower(email)
	gid := googleID
	if existing, err := s.userRepo.GetByEmail(email); err == nil {
		existing.GoogleID = &gid
		if existing.AvatarURL == "" {
			existing.AvatarURL = avatarURL
		}
		if err := s.userRepo.Update(existing); err != nil {
			return nil, nil, false, err
		}
		pair, err = s.issue(existing)
		return existing, pair, false, err
	}
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	u = &models.User{
		Email:     email,
		Username:  s.freeUsername(email),
		GoogleID:  &gid,
		Role:      domain.RoleUser,
		FirstName: first,
		LastName:  last,
		AvatarURL: avatarURL,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, nil, false, err
	}
	pair, err = s.issue(u)
	return u, pair, true, err
}

// freeUsername derives a username from the email local part, suffixing a number on collision.
func (s *AuthService) freeUsername(email string) string {
	base, _, _ := strings.Cut(email, "@")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		}
		return '_'
	}, strings.ToLower(base))
	if len(base) < 3 {
		base = "user_" + base
	}
	name := base
	for i := 1; i < 100; i++ {
		if _, err := s.userRepo.GetByUsername(name); errors.Is(err, gorm.ErrRecordNotFound) {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
	return fmt.Sprintf("%s%d", base, s.now().UnixNano()%100000)
}

// ChangePassword updates the user's password. Requires current password verification.
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return lookupErr(err, "user")
	}
	if u.PasswordHash == "" {
		return ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(u.ID, map[string]interface{}{"password_hash": string(hash)})
}

func (s *AuthService) Refresh(refreshToken string) (*auth.TokenPair, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, domain.Unauthenticated("invalid or expired refresh token")
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Unauthenticated("invalid or expired refresh token")
		}
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*auth.TokenPair, error) {
	return auth.IssuePair(&s.cfg.JWT, u.ID, u.Username, u.Role)
}
