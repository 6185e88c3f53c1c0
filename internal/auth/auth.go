package auth

import (
	"fmt"
	"time"

	"zvonok/internal/content"
	"zvonok/internal/models"
	"zvonok/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultPhoto = "/img/default-avatar.svg"

// Service owns the user directory: registration and credential checks.
// Passwords are stored as bcrypt hashes; login failures are deliberately
// indistinguishable (unknown user vs wrong password).
type Service struct {
	users storage.Collection[models.User]
	now   func() time.Time
}

func New(users storage.Collection[models.User]) *Service {
	return &Service{
		users: users,
		now:   time.Now,
	}
}

func (s *Service) Register(username, password, photo string) (models.User, error) {
	if err := content.ValidateUsername(username); err != nil {
		return models.User{}, fmt.Errorf("%w: %s", models.ErrValidation, err)
	}
	if password == "" {
		return models.User{}, fmt.Errorf("%w: password is required", models.ErrValidation)
	}
	if photo == "" {
		photo = DefaultPhoto
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Photo:        photo,
		RegisteredAt: s.now(),
	}

	err = s.users.Update(func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return nil, models.ErrUserExists
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) Login(username, password string) (models.User, error) {
	users, err := s.users.Load()
	if err != nil {
		return models.User{}, err
	}

	for _, u := range users {
		if u.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		return u, nil
	}
	return models.User{}, models.ErrUnauthorized
}

// List returns every user except the given one, in registration order.
func (s *Service) List(excludeUserID string) ([]models.User, error) {
	users, err := s.users.Load()
	if err != nil {
		return nil, err
	}

	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == excludeUserID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
