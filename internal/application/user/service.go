package user

import (
	"context"
	"fmt"

	"github.com/GioMjds/savoury-api/internal/application/registration"
	"github.com/GioMjds/savoury-api/internal/domain"
)

const fieldProfileImage = "profile_image"

// Service covers the read/update surface for an authenticated user's own
// record. Everything else about the user is written exactly once, at
// registration time.
type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID, base64Data string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type imageStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
}

type service struct {
	users  userStore
	images imageStore
}

func NewService(users userStore, images imageStore) Service {
	return &service{users: users, images: images}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// UpdateAvatar replaces the user's profile image with the uploaded data.
// Unlike the registration-time default avatar, a failure here is surfaced:
// the caller asked for exactly this upload.
func (s *service) UpdateAvatar(ctx context.Context, userID, base64Data string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := s.images.UploadBase64(ctx, registration.AvatarKey(u.Email), base64Data)
	if err != nil {
		return nil, fmt.Errorf("upload profile image: %w", domain.ErrDependency)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{fieldProfileImage: url}); err != nil {
		return nil, err
	}
	u.ProfileImage = url
	return u, nil
}
