package models

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserExists   = errors.New("username already taken")
)

// User is a registered account. PasswordHash is persisted but never
// serialized to API clients; use Public for responses.
type User struct {
	ID           string    `json:"id" msgpack:"id"`
	Username     string    `json:"username" msgpack:"username"`
	PasswordHash string    `json:"passwordHash" msgpack:"passwordHash"`
	Photo        string    `json:"photo" msgpack:"photo"`
	RegisteredAt time.Time `json:"registeredAt" msgpack:"registeredAt"`
}

// PublicUser is the client-facing view of a user.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Photo    string `json:"photo"`
	Online   bool   `json:"online"`
}

func (u User) Public(online bool) PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Photo:    u.Photo,
		Online:   online,
	}
}

// Session is a live login, refreshed by heartbeats.
// LastActive is a unix timestamp in milliseconds.
type Session struct {
	SessionID  string `json:"sessionId" msgpack:"sessionId"`
	UserID     string `json:"userId" msgpack:"userId"`
	Username   string `json:"username" msgpack:"username"`
	LastActive int64  `json:"lastActive" msgpack:"lastActive"`
}

// Message is a directed text message between two users.
type Message struct {
	ID         int64     `json:"id" msgpack:"id"`
	SenderID   string    `json:"senderId" msgpack:"senderId"`
	ReceiverID string    `json:"receiverId" msgpack:"receiverId"`
	Text       string    `json:"text" msgpack:"text"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	Read       bool      `json:"read" msgpack:"read"`
}

type CallStatus string

const (
	CallStatusRinging  CallStatus = "ringing"
	CallStatusActive   CallStatus = "active"
	CallStatusEnded    CallStatus = "ended"
	CallStatusRejected CallStatus = "rejected"
	CallStatusExpired  CallStatus = "expired"
)

// Terminal reports whether the call reached a final state. Terminal calls
// linger briefly so pollers can tell ended from rejected from expired, then
// get swept.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusEnded, CallStatusRejected, CallStatusExpired:
		return true
	}
	return false
}

// IceCandidate is a WebRTC network-path descriptor relayed opaquely between
// call peers. Timestamp is a unix timestamp in milliseconds.
type IceCandidate struct {
	UserID    string          `json:"userId" msgpack:"userId"`
	Candidate json.RawMessage `json:"candidate" msgpack:"candidate"`
	Timestamp int64           `json:"timestamp" msgpack:"timestamp"`
}

// Call is a signaling record for one audio/video call between two users.
// SDP payloads are relayed as-is, never parsed. Timestamp, LastActivity and
// EndedAt are unix timestamps in milliseconds.
type Call struct {
	ID            string          `json:"id" msgpack:"id"`
	CallerID      string          `json:"callerId" msgpack:"callerId"`
	ReceiverID    string          `json:"receiverId" msgpack:"receiverId"`
	CallType      string          `json:"callType" msgpack:"callType"`
	Offer         json.RawMessage `json:"offer" msgpack:"offer"`
	Answer        json.RawMessage `json:"answer,omitempty" msgpack:"answer"`
	Status        CallStatus      `json:"status" msgpack:"status"`
	IceCandidates []IceCandidate  `json:"iceCandidates" msgpack:"iceCandidates"`
	Timestamp     int64           `json:"timestamp" msgpack:"timestamp"`
	LastActivity  int64           `json:"lastActivity" msgpack:"lastActivity"`
	EndedAt       int64           `json:"endedAt,omitempty" msgpack:"endedAt"`
}

// Involves reports whether the user is one of the two call parties.
func (c Call) Involves(userID string) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

// SamePair reports whether the call is between the given unordered pair.
func (c Call) SamePair(a, b string) bool {
	return (c.CallerID == a && c.ReceiverID == b) ||
		(c.CallerID == b && c.ReceiverID == a)
}
