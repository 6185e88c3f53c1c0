package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"zvonok/internal/models"
)

func TestJSONFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("MissingFile", func(t *testing.T) {
		col := NewJSONFile[models.Session](filepath.Join(tmpDir, "missing.json"))
		records, err := col.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected empty collection, got %d records", len(records))
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(tmpDir, "sessions.json")
		col := NewJSONFile[models.Session](path)

		in := []models.Session{
			{SessionID: "s1", UserID: "u1", Username: "alice", LastActive: 100},
			{SessionID: "s2", UserID: "u2", Username: "bob", LastActive: 200},
		}
		if err := col.Save(in); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		out, err := col.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("expected 2 records, got %d", len(out))
		}
		if out[0].SessionID != "s1" || out[1].SessionID != "s2" {
			t.Errorf("order not preserved: %+v", out)
		}

		// A fresh handle over the same path sees the same data.
		out, err = NewJSONFile[models.Session](path).Load()
		if err != nil {
			t.Fatalf("Load via fresh handle failed: %v", err)
		}
		if len(out) != 2 {
			t.Errorf("expected 2 records via fresh handle, got %d", len(out))
		}
	})

	t.Run("CorruptFileResetsToEmpty", func(t *testing.T) {
		path := filepath.Join(tmpDir, "corrupt.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}

		col := NewJSONFile[models.Session](path)
		records, err := col.Load()
		if err != nil {
			t.Fatalf("Load should degrade, not fail: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected empty collection after corruption, got %d", len(records))
		}

		// The collection is usable again after the reset.
		if err := col.Save([]models.Session{{SessionID: "s1"}}); err != nil {
			t.Fatalf("Save after corruption failed: %v", err)
		}
		records, _ = col.Load()
		if len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
	})

	t.Run("UpdateErrorLeavesFileUntouched", func(t *testing.T) {
		path := filepath.Join(tmpDir, "update.json")
		col := NewJSONFile[models.Session](path)
		if err := col.Save([]models.Session{{SessionID: "s1"}}); err != nil {
			t.Fatal(err)
		}

		wantErr := errors.New("boom")
		err := col.Update(func(records []models.Session) ([]models.Session, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected update error, got %v", err)
		}

		records, _ := col.Load()
		if len(records) != 1 || records[0].SessionID != "s1" {
			t.Errorf("collection mutated despite failed update: %+v", records)
		}
	})

	t.Run("SaveNilWritesEmptyArray", func(t *testing.T) {
		path := filepath.Join(tmpDir, "nil.json")
		col := NewJSONFile[models.Session](path)
		if err := col.Save(nil); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "[]" {
			t.Errorf("expected empty JSON array on disk, got %q", string(data))
		}
	})
}
