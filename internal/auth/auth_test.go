package auth

import (
	"errors"
	"testing"
	"time"

	"zvonok/internal/models"
	"zvonok/internal/storage"
)

func TestService(t *testing.T) {
	createService := func(t *testing.T) *Service {
		svc := New(storage.NewMemory[models.User]())
		svc.now = func() time.Time { return time.Unix(1700000000, 0) }
		return svc
	}

	t.Run("Register", func(t *testing.T) {
		svc := createService(t)

		user, err := svc.Register("alice", "secret1", "")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.ID == "" {
			t.Error("expected a generated id")
		}
		if user.Photo != DefaultPhoto {
			t.Errorf("expected default photo, got %q", user.Photo)
		}
		if user.PasswordHash == "secret1" {
			t.Error("password stored in plaintext")
		}

		// Same username, any password: second registration must be rejected.
		_, err = svc.Register("alice", "other", "")
		if !errors.Is(err, models.ErrUserExists) {
			t.Errorf("expected ErrUserExists, got %v", err)
		}
	})

	t.Run("Register_Validation", func(t *testing.T) {
		svc := createService(t)

		tests := []struct {
			name     string
			username string
			password string
		}{
			{"EmptyUsername", "", "pass"},
			{"EmptyPassword", "alice", ""},
			{"BadCharacters", "al ice!", "pass"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Register(tt.username, tt.password, "")
				if !errors.Is(err, models.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
			})
		}
	})

	t.Run("Login", func(t *testing.T) {
		svc := createService(t)
		registered, err := svc.Register("alice", "secret1", "/img/alice.png")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		user, err := svc.Login("alice", "secret1")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if user.ID != registered.ID {
			t.Errorf("expected user %s, got %s", registered.ID, user.ID)
		}

		if _, err := svc.Login("alice", "wrong"); !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for bad password, got %v", err)
		}
		if _, err := svc.Login("nobody", "secret1"); !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for unknown user, got %v", err)
		}
	})

	t.Run("CaseSensitiveUsernames", func(t *testing.T) {
		svc := createService(t)
		if _, err := svc.Register("alice", "pass1", ""); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Register("Alice", "pass2", ""); err != nil {
			t.Errorf("usernames are case-sensitive, expected success, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		svc := createService(t)
		alice, _ := svc.Register("alice", "pass1", "")
		bob, _ := svc.Register("bob", "pass2", "")

		users, err := svc.List(alice.ID)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(users) != 1 {
			t.Fatalf("expected 1 user, got %d", len(users))
		}
		if users[0].ID != bob.ID {
			t.Errorf("expected bob, got %s", users[0].Username)
		}
	})
}
