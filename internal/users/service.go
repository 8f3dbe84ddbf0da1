package users

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotConfigured  = errors.New("users service not configured")
	ErrInvalidProfile = errors.New("user id and email are required")
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth records the identity a login produced. Emails are stored
// trimmed and lower-cased.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return ErrNotConfigured
	}
	user.ID = strings.TrimSpace(user.ID)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.FullName = strings.TrimSpace(user.FullName)
	user.PictureURL = strings.TrimSpace(user.PictureURL)
	if user.ID == "" || user.Email == "" {
		return ErrInvalidProfile
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// Profile returns the stored profile for userID. Callers whose token never
// came from the Google login have no row and get fallback instead.
func (s *Service) Profile(ctx context.Context, userID string, fallback Profile) (Profile, error) {
	if s == nil || s.Repo == nil {
		return fallback, nil
	}
	user, err := s.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return Profile{}, err
	}
	return user.Profile(), nil
}
