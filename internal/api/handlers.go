package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"zvonok/internal/auth"
	"zvonok/internal/call"
	"zvonok/internal/content"
	"zvonok/internal/message"
	"zvonok/internal/models"
	"zvonok/internal/session"
	"zvonok/internal/typing"
)

type API struct {
	auth     *auth.Service
	sessions *session.Registry
	typing   *typing.Registry
	calls    *call.Relay
	messages *message.Store
}

func New(authService *auth.Service, sessions *session.Registry, typingReg *typing.Registry, calls *call.Relay, messages *message.Store) *API {
	return &API{
		auth:     authService,
		sessions: sessions,
		typing:   typingReg,
		calls:    calls,
		messages: messages,
	}
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Photo    string `json:"photo"`
	}
	if !decode(w, r, &req) {
		return
	}

	user, err := a.auth.Register(req.Username, req.Password, req.Photo)
	if err != nil {
		fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Photo    string `json:"photo"`
	}{user.ID, user.Username, user.Photo})
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	user, err := a.auth.Login(req.Username, req.Password)
	if err != nil {
		fail(w, err)
		return
	}

	sess, err := a.sessions.Create(user.ID, user.Username)
	if err != nil {
		fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		SessionID string            `json:"sessionId"`
		User      models.PublicUser `json:"user"`
	}{sess.SessionID, user.Public(true)})
}

func (a *API) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := a.sessions.End(req.SessionID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) HeartbeatHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := a.sessions.Touch(req.SessionID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) UsersHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID := r.URL.Query().Get("currentUserId")

	users, err := a.auth.List(currentUserID)
	if err != nil {
		fail(w, err)
		return
	}
	active, err := a.sessions.ListActive()
	if err != nil {
		fail(w, err)
		return
	}

	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public(session.IsOnline(u.ID, active)))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Text       string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}

	msg, err := a.messages.Send(req.SenderID, req.ReceiverID, req.Text)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// conversationMessage is a stored message plus its server-rendered HTML.
type conversationMessage struct {
	models.Message
	HTML string `json:"html"`
}

func (a *API) ConversationHandler(w http.ResponseWriter, r *http.Request) {
	userA := r.PathValue("userA")
	userB := r.PathValue("userB")

	var sinceID int64
	if v := r.URL.Query().Get("lastMessageId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid lastMessageId", http.StatusBadRequest)
			return
		}
		sinceID = id
	}

	msgs, err := a.messages.Conversation(userA, userB, sinceID)
	if err != nil {
		fail(w, err)
		return
	}

	out := make([]conversationMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, conversationMessage{
			Message: m,
			HTML:    content.RenderMarkdown(m.Text),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		SenderID string `json:"senderId"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := a.messages.MarkRead(req.UserID, req.SenderID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) SetTypingHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string `json:"userId"`
		ReceiverID string `json:"receiverId"`
		IsTyping   bool   `json:"isTyping"`
	}
	if !decode(w, r, &req) {
		return
	}

	a.typing.Set(req.UserID, req.ReceiverID, req.IsTyping)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) GetTypingHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	receiverID := r.PathValue("receiverId")

	writeJSON(w, http.StatusOK, struct {
		IsTyping bool `json:"isTyping"`
	}{a.typing.IsTyping(userID, receiverID)})
}

func (a *API) CallOfferHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CallerID   string          `json:"callerId"`
		ReceiverID string          `json:"receiverId"`
		CallType   string          `json:"callType"`
		Offer      json.RawMessage `json:"offer"`
	}
	if !decode(w, r, &req) {
		return
	}

	c, err := a.calls.Offer(req.CallerID, req.ReceiverID, req.CallType, req.Offer)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CallID string `json:"callId"`
	}{c.ID})
}

func (a *API) CallAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CallID string          `json:"callId"`
		Answer json.RawMessage `json:"answer"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := a.calls.Answer(req.CallID, req.Answer); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) CallCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CallID    string          `json:"callId"`
		UserID    string          `json:"userId"`
		Candidate json.RawMessage `json:"candidate"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := a.calls.AddCandidate(req.CallID, req.UserID, req.Candidate); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (a *API) CallCheckHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	var lastCheck int64
	if v := r.URL.Query().Get("lastCheck"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid lastCheck", http.StatusBadRequest)
			return
		}
		lastCheck = ts
	}

	result, err := a.calls.PollForUser(userID, lastCheck)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) CallEndHandler(w http.ResponseWriter, r *http.Request) {
	a.terminateCall(w, r, a.calls.End)
}

func (a *API) CallRejectHandler(w http.ResponseWriter, r *http.Request) {
	a.terminateCall(w, r, a.calls.Reject)
}

func (a *API) terminateCall(w http.ResponseWriter, r *http.Request, terminate func(string) error) {
	var req struct {
		CallID string `json:"callId"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := terminate(req.CallID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// fail maps domain errors to HTTP statuses: validation and duplicate
// username to 400, credential mismatch to 401, unknown call to 404,
// everything else (storage write failures included) to 500 with the raw
// message.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrUserExists):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrUnauthorized):
		http.Error(w, "Login failed", http.StatusUnauthorized)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("handler failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
