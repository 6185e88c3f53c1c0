package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"zvonok/internal/models"
	"zvonok/internal/storage"
)

// Registry tracks live logins. Presence is a heuristic derived purely from
// heartbeat recency: a client that stops polling is reported offline once
// its lastActive falls behind the timeout.
type Registry struct {
	sessions storage.Collection[models.Session]
	timeout  time.Duration
	now      func() time.Time
}

func New(sessions storage.Collection[models.Session], timeout time.Duration) *Registry {
	return &Registry{
		sessions: sessions,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Create mints a new session with an unguessable random token.
func (r *Registry) Create(userID, username string) (models.Session, error) {
	token, err := newToken()
	if err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		SessionID:  token,
		UserID:     userID,
		Username:   username,
		LastActive: r.now().UnixMilli(),
	}

	err = r.sessions.Update(func(sessions []models.Session) ([]models.Session, error) {
		return append(sessions, session), nil
	})
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Touch refreshes lastActive. An unknown token is a no-op, not an error:
// the client will simply be reported offline eventually.
func (r *Registry) Touch(sessionID string) error {
	return r.sessions.Update(func(sessions []models.Session) ([]models.Session, error) {
		for i := range sessions {
			if sessions[i].SessionID == sessionID {
				sessions[i].LastActive = r.now().UnixMilli()
				break
			}
		}
		return sessions, nil
	})
}

// End removes the session; idempotent.
func (r *Registry) End(sessionID string) error {
	return r.sessions.Update(func(sessions []models.Session) ([]models.Session, error) {
		kept := sessions[:0]
		for _, s := range sessions {
			if s.SessionID != sessionID {
				kept = append(kept, s)
			}
		}
		return kept, nil
	})
}

// ListActive sweeps out sessions past the presence timeout and returns the
// remainder.
func (r *Registry) ListActive() ([]models.Session, error) {
	cutoff := r.now().Add(-r.timeout).UnixMilli()

	var active []models.Session
	err := r.sessions.Update(func(sessions []models.Session) ([]models.Session, error) {
		kept := sessions[:0]
		for _, s := range sessions {
			if s.LastActive >= cutoff {
				kept = append(kept, s)
			}
		}
		active = append([]models.Session{}, kept...)
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}

// IsOnline reports whether any of the active sessions belongs to the user.
func IsOnline(userID string, active []models.Session) bool {
	for _, s := range active {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
