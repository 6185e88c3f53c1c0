package sweep

import (
	"context"
	"testing"
	"time"

	"zvonok/internal/call"
	"zvonok/internal/models"
	"zvonok/internal/session"
	"zvonok/internal/storage"
)

func TestSweeperEvictsWithoutRequests(t *testing.T) {
	sessionCol := storage.NewMemory[models.Session]()
	callCol := storage.NewMemory[models.Call]()

	sessions := session.New(sessionCol, 10*time.Millisecond)
	calls := call.New(callCol, 10*time.Millisecond, 10*time.Millisecond)

	if _, err := sessions.Create("u1", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := callCol.Save([]models.Call{{
		ID:         "c1",
		CallerID:   "a",
		ReceiverID: "b",
		Status:     models.CallStatusRinging,
		Timestamp:  time.Now().UnixMilli(),
	}}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(sessions, calls, 20*time.Millisecond).Run(ctx)
	}()

	// Two intervals is enough: one to expire the call, one to drop it after
	// its linger window.
	time.Sleep(100 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	remaining, _ := sessionCol.Load()
	if len(remaining) != 0 {
		t.Errorf("expected stale session evicted, got %d", len(remaining))
	}
	leftover, _ := callCol.Load()
	if len(leftover) != 0 {
		t.Errorf("expected stale call evicted, got %d", len(leftover))
	}
}
