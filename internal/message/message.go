package message

import (
	"fmt"
	"time"

	"zvonok/internal/models"
	"zvonok/internal/storage"
)

// Store is the append-only directed message log. Messages are never deleted;
// the only mutation after creation is the receiver flipping the read flag.
type Store struct {
	messages storage.Collection[models.Message]
	now      func() time.Time
}

func New(messages storage.Collection[models.Message]) *Store {
	return &Store{
		messages: messages,
		now:      time.Now,
	}
}

// Send appends a new unread message with a server-assigned id and timestamp.
// Ids increase monotonically by creation time even if the clock steps back.
func (s *Store) Send(senderID, receiverID, text string) (models.Message, error) {
	if senderID == "" || receiverID == "" || text == "" {
		return models.Message{}, fmt.Errorf("%w: senderId, receiverId and text are required", models.ErrValidation)
	}

	msg := models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Timestamp:  s.now(),
	}

	err := s.messages.Update(func(messages []models.Message) ([]models.Message, error) {
		msg.ID = s.now().UnixMilli()
		if n := len(messages); n > 0 && messages[n-1].ID >= msg.ID {
			msg.ID = messages[n-1].ID + 1
		}
		return append(messages, msg), nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Conversation returns both directions between the pair in storage order
// (chronological, since the log is append-only). With sinceID set and found
// in the conversation, only messages strictly after it by position are
// returned; an unknown sinceID silently falls back to the full conversation.
func (s *Store) Conversation(userA, userB string, sinceID int64) ([]models.Message, error) {
	messages, err := s.messages.Load()
	if err != nil {
		return nil, err
	}

	conv := []models.Message{}
	for _, m := range messages {
		if (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA) {
			conv = append(conv, m)
		}
	}

	if sinceID != 0 {
		for i, m := range conv {
			if m.ID == sinceID {
				return conv[i+1:], nil
			}
		}
	}
	return conv, nil
}

// MarkRead flips the read flag on every message from sender to receiver.
// The reverse direction is untouched.
func (s *Store) MarkRead(receiverID, senderID string) error {
	return s.messages.Update(func(messages []models.Message) ([]models.Message, error) {
		for i := range messages {
			if messages[i].SenderID == senderID && messages[i].ReceiverID == receiverID {
				messages[i].Read = true
			}
		}
		return messages, nil
	})
}
