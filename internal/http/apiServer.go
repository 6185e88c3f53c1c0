package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"zvonok/internal/api"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func NewAPIServer(handlers *api.API, addr string) *APIServer {
	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, api.Instrument(pattern, h))
	}

	route("POST /api/register", handlers.RegisterHandler)
	route("POST /api/login", handlers.LoginHandler)
	route("POST /api/logout", handlers.LogoutHandler)
	route("POST /api/heartbeat", handlers.HeartbeatHandler)
	route("GET /api/users", handlers.UsersHandler)

	route("POST /api/messages", handlers.SendMessageHandler)
	route("GET /api/messages/{userA}/{userB}", handlers.ConversationHandler)
	route("POST /api/messages/read", handlers.MarkReadHandler)

	route("POST /api/typing", handlers.SetTypingHandler)
	route("GET /api/typing/{userId}/{receiverId}", handlers.GetTypingHandler)

	route("POST /api/call/offer", handlers.CallOfferHandler)
	route("POST /api/call/answer", handlers.CallAnswerHandler)
	route("POST /api/call/ice-candidate", handlers.CallCandidateHandler)
	route("GET /api/call/check/{userId}", handlers.CallCheckHandler)
	route("POST /api/call/end", handlers.CallEndHandler)
	route("POST /api/call/reject", handlers.CallRejectHandler)

	mux.Handle("GET /metrics", promhttp.Handler())

	if addr == "" {
		addr = ":8080"
	}

	return &APIServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

func (s *APIServer) Start() error {
	slog.Info("server started", "addr", s.server.Addr)
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
