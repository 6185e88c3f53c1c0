package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	oshttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"zvonok/internal/api"
	"zvonok/internal/auth"
	"zvonok/internal/call"
	"zvonok/internal/config"
	"zvonok/internal/http"
	"zvonok/internal/message"
	"zvonok/internal/models"
	"zvonok/internal/session"
	"zvonok/internal/storage"
	"zvonok/internal/sweep"
	"zvonok/internal/typing"

	"golang.org/x/sync/errgroup"
)

type collections struct {
	users    storage.Collection[models.User]
	sessions storage.Collection[models.Session]
	messages storage.Collection[models.Message]
	calls    storage.Collection[models.Call]
	close    func() error
}

func openCollections(cfg *config.Config) (*collections, error) {
	switch cfg.StorageBackend {
	case config.BackendJSON:
		return &collections{
			users:    storage.NewJSONFile[models.User](filepath.Join(cfg.DataDir, "users.json")),
			sessions: storage.NewJSONFile[models.Session](filepath.Join(cfg.DataDir, "sessions.json")),
			messages: storage.NewJSONFile[models.Message](filepath.Join(cfg.DataDir, "messages.json")),
			calls:    storage.NewJSONFile[models.Call](filepath.Join(cfg.DataDir, "calls.json")),
			close:    func() error { return nil },
		}, nil

	case config.BackendBbolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := storage.OpenBbolt(filepath.Join(cfg.DataDir, "zvonok.db"))
		if err != nil {
			return nil, err
		}

		users, err := storage.NewBboltCollection(store, "users", func(u models.User) []byte { return []byte(u.ID) })
		if err != nil {
			return nil, err
		}
		sessions, err := storage.NewBboltCollection(store, "sessions", func(s models.Session) []byte { return []byte(s.SessionID) })
		if err != nil {
			return nil, err
		}
		messages, err := storage.NewBboltCollection(store, "messages", func(m models.Message) []byte {
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(m.ID))
			return key
		})
		if err != nil {
			return nil, err
		}
		calls, err := storage.NewBboltCollection(store, "calls", func(c models.Call) []byte { return []byte(c.ID) })
		if err != nil {
			return nil, err
		}

		return &collections{
			users:    users,
			sessions: sessions,
			messages: messages,
			calls:    calls,
			close:    store.Close,
		}, nil

	case config.BackendMemory:
		return &collections{
			users:    storage.NewMemory[models.User](),
			sessions: storage.NewMemory[models.Session](),
			messages: storage.NewMemory[models.Message](),
			calls:    storage.NewMemory[models.Call](),
			close:    func() error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cols, err := openCollections(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cols.close() }()

	authService := auth.New(cols.users)
	sessions := session.New(cols.sessions, cfg.PresenceTimeout)
	typingReg := typing.New(ctx, cfg.TypingTTL)
	relay := call.New(cols.calls, cfg.CallTTL, cfg.CallLinger)
	messages := message.New(cols.messages)

	handlers := api.New(authService, sessions, typingReg, relay, messages)
	apiServer := http.NewAPIServer(handlers, cfg.APIAddr)
	sweeper := sweep.New(sessions, relay, cfg.SweepInterval)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return apiServer.Start()
	})

	g.Go(func() error {
		return sweeper.Run(gCtx)
	})

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, oshttp.ErrServerClosed) {
		log.Fatalf("Application error: %v", err)
	}
}
