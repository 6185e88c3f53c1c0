package typing

import (
	"context"
	"testing"
	"time"
)

func TestRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("SetAndClear", func(t *testing.T) {
		reg := New(ctx, time.Minute)

		reg.Set("a", "b", true)
		if !reg.IsTyping("a", "b") {
			t.Error("expected typing flag set")
		}

		// Pairs are directed.
		if reg.IsTyping("b", "a") {
			t.Error("reverse direction must be independent")
		}

		reg.Set("a", "b", false)
		if reg.IsTyping("a", "b") {
			t.Error("expected typing flag cleared immediately")
		}
	})

	t.Run("ExpiresAfterTTL", func(t *testing.T) {
		reg := New(ctx, 50*time.Millisecond)

		reg.Set("a", "b", true)
		if !reg.IsTyping("a", "b") {
			t.Fatal("expected typing flag set")
		}

		time.Sleep(120 * time.Millisecond)
		if reg.IsTyping("a", "b") {
			t.Error("expected typing flag expired after TTL")
		}
	})

	t.Run("RenewalResetsTTL", func(t *testing.T) {
		reg := New(ctx, 80*time.Millisecond)

		reg.Set("a", "b", true)
		time.Sleep(50 * time.Millisecond)
		reg.Set("a", "b", true)
		time.Sleep(50 * time.Millisecond)

		if !reg.IsTyping("a", "b") {
			t.Error("expected renewed flag to still be set")
		}
	})
}
