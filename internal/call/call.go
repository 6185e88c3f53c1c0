package call

import (
	"encoding/json"
	"fmt"
	"time"

	"zvonok/internal/content"
	"zvonok/internal/models"
	"zvonok/internal/storage"

	"github.com/google/uuid"
)

// Relay tracks one signaling record per call and shuttles SDP and ICE
// payloads between the two parties, both of which poll.
//
// Lifecycle: ringing -> active -> {ended | rejected | expired}. Terminal
// records linger for a short window so the peer's next poll can tell why the
// call went away, then the sweep removes them.
//
// Expiry: a ringing call expires a fixed TTL after the offer; an active call
// expires only after the TTL passes with no answer, ICE or poll touching it,
// so a live call is never cut at wall-clock TTL from its offer.
type Relay struct {
	calls  storage.Collection[models.Call]
	ttl    time.Duration
	linger time.Duration
	now    func() time.Time
}

// PollResult is one participant's view of the relay at poll time.
type PollResult struct {
	IncomingCall  *models.Call          `json:"incomingCall"`
	ActiveCall    *models.Call          `json:"activeCall"`
	EndedCall     *models.Call          `json:"endedCall"`
	IceCandidates []models.IceCandidate `json:"iceCandidates"`
}

func New(calls storage.Collection[models.Call], ttl, linger time.Duration) *Relay {
	return &Relay{
		calls:  calls,
		ttl:    ttl,
		linger: linger,
		now:    time.Now,
	}
}

// Offer starts a new ringing call. Any existing call between the unordered
// pair is dropped first (last offer wins), which is the sole enforcement of
// the one-call-per-pair invariant.
func (r *Relay) Offer(callerID, receiverID, callType string, offer json.RawMessage) (models.Call, error) {
	if callerID == "" || receiverID == "" || len(offer) == 0 {
		return models.Call{}, fmt.Errorf("%w: callerId, receiverId and offer are required", models.ErrValidation)
	}
	if err := content.ValidateCallType(callType); err != nil {
		return models.Call{}, fmt.Errorf("%w: %s", models.ErrValidation, err)
	}

	now := r.now().UnixMilli()
	call := models.Call{
		ID:            uuid.NewString(),
		CallerID:      callerID,
		ReceiverID:    receiverID,
		CallType:      callType,
		Offer:         offer,
		Status:        models.CallStatusRinging,
		IceCandidates: []models.IceCandidate{},
		Timestamp:     now,
		LastActivity:  now,
	}

	err := r.calls.Update(func(calls []models.Call) ([]models.Call, error) {
		kept := calls[:0]
		for _, c := range calls {
			if !c.SamePair(callerID, receiverID) {
				kept = append(kept, c)
			}
		}
		return append(kept, call), nil
	})
	if err != nil {
		return models.Call{}, err
	}
	return call, nil
}

// Answer attaches the SDP answer and moves the call to active.
func (r *Relay) Answer(callID string, answer json.RawMessage) error {
	return r.calls.Update(func(calls []models.Call) ([]models.Call, error) {
		i, ok := find(calls, callID)
		if !ok {
			return nil, models.ErrNotFound
		}
		calls[i].Answer = answer
		calls[i].Status = models.CallStatusActive
		calls[i].LastActivity = r.now().UnixMilli()
		return calls, nil
	})
}

// AddCandidate appends an ICE candidate tagged with its author and timestamp.
func (r *Relay) AddCandidate(callID, userID string, candidate json.RawMessage) error {
	return r.calls.Update(func(calls []models.Call) ([]models.Call, error) {
		i, ok := find(calls, callID)
		if !ok {
			return nil, models.ErrNotFound
		}
		now := r.now().UnixMilli()
		calls[i].IceCandidates = append(calls[i].IceCandidates, models.IceCandidate{
			UserID:    userID,
			Candidate: candidate,
			Timestamp: now,
		})
		calls[i].LastActivity = now
		return calls, nil
	})
}

// PollForUser sweeps, then reports the user's at-most-one ringing incoming
// call, at-most-one active call, any lingering terminal call, and the ICE
// candidates the *other* party produced after lastCheck. Candidates a peer
// generated itself are never echoed back. Polling an active call counts as
// activity and keeps it from expiring.
func (r *Relay) PollForUser(userID string, lastCheck int64) (PollResult, error) {
	result := PollResult{IceCandidates: []models.IceCandidate{}}
	now := r.now().UnixMilli()

	err := r.calls.Update(func(calls []models.Call) ([]models.Call, error) {
		calls = r.sweep(calls, now)

		for i := range calls {
			c := &calls[i]
			switch {
			case c.Status == models.CallStatusRinging && c.ReceiverID == userID:
				if result.IncomingCall == nil {
					result.IncomingCall = copyCall(*c)
				}
			case c.Status == models.CallStatusActive && c.Involves(userID):
				if result.ActiveCall != nil {
					continue
				}
				c.LastActivity = now
				result.ActiveCall = copyCall(*c)
				for _, cand := range c.IceCandidates {
					if cand.UserID != userID && cand.Timestamp > lastCheck {
						result.IceCandidates = append(result.IceCandidates, cand)
					}
				}
			case c.Status.Terminal() && c.Involves(userID):
				if result.EndedCall == nil || c.EndedAt > result.EndedCall.EndedAt {
					result.EndedCall = copyCall(*c)
				}
			}
		}
		return calls, nil
	})
	if err != nil {
		return PollResult{}, err
	}
	return result, nil
}

// End marks the call ended. Unknown or already-terminal ids are a no-op so
// both parties can hang up without racing each other.
func (r *Relay) End(callID string) error {
	return r.terminate(callID, models.CallStatusEnded)
}

// Reject marks a call rejected by the receiver; idempotent like End.
func (r *Relay) Reject(callID string) error {
	return r.terminate(callID, models.CallStatusRejected)
}

// Sweep expires stale calls and drops terminal ones past their linger
// window. Poll does this inline; the background sweeper calls it directly.
func (r *Relay) Sweep() error {
	now := r.now().UnixMilli()
	return r.calls.Update(func(calls []models.Call) ([]models.Call, error) {
		return r.sweep(calls, now), nil
	})
}

func (r *Relay) terminate(callID string, status models.CallStatus) error {
	return r.calls.Update(func(calls []models.Call) ([]models.Call, error) {
		i, ok := find(calls, callID)
		if !ok || calls[i].Status.Terminal() {
			return calls, nil
		}
		calls[i].Status = status
		calls[i].EndedAt = r.now().UnixMilli()
		return calls, nil
	})
}

func (r *Relay) sweep(calls []models.Call, now int64) []models.Call {
	ttl := r.ttl.Milliseconds()
	linger := r.linger.Milliseconds()

	kept := calls[:0]
	for _, c := range calls {
		switch {
		case c.Status == models.CallStatusRinging && now-c.Timestamp > ttl,
			c.Status == models.CallStatusActive && now-c.LastActivity > ttl:
			c.Status = models.CallStatusExpired
			c.EndedAt = now
		case c.Status.Terminal() && now-c.EndedAt > linger:
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func find(calls []models.Call, callID string) (int, bool) {
	for i := range calls {
		if calls[i].ID == callID && !calls[i].Status.Terminal() {
			return i, true
		}
	}
	return -1, false
}

func copyCall(c models.Call) *models.Call {
	out := c
	out.IceCandidates = append([]models.IceCandidate{}, c.IceCandidates...)
	return &out
}
