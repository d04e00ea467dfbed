package badger

import (
	"context"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func setupTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Options = badgerdb.DefaultOptions(t.TempDir()).WithLogger(nil)

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatalf("Failed to open badger store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func TestBuildStorageRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	logger := arbor.NewLogger()
	storage := NewBuildStorage(db, logger)
	ctx := context.Background()

	record := &models.BuildRecord{
		ID:        "run_test-1",
		StartedAt: time.Now().Add(-time.Minute),
		Outcome:   models.RunOutcomeFailed,
		Prefix:    "/opt/toolchain",
		JobCount:  4,
		Revisions: map[string]string{"openssl": "openssl-3.3.1", "curl": "curl-8_9_1"},
		Stages: []models.StageSummary{
			{Dependency: "openssl", Outcome: models.StageOutcomeSuccess},
			{Dependency: "nghttp3", Outcome: models.StageOutcomeFailed, FailedStep: models.StageStepCompile, FailureKind: models.FailureKindCompile},
		},
		FailureKind: models.FailureKindCompile,
		Error:       "stage nghttp3 failed at step compile",
	}

	if err := storage.SaveRecord(ctx, record); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	got, err := storage.GetRecord(ctx, "run_test-1")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if got.Outcome != models.RunOutcomeFailed {
		t.Errorf("Outcome = %s, want failed", got.Outcome)
	}
	if got.Revisions["curl"] != "curl-8_9_1" {
		t.Errorf("Revisions not preserved: %v", got.Revisions)
	}
	if len(got.Stages) != 2 || got.Stages[1].FailureKind != models.FailureKindCompile {
		t.Errorf("Stages not preserved: %+v", got.Stages)
	}

	// Upsert with the same ID replaces, not duplicates
	record.Outcome = models.RunOutcomeSuccess
	if err := storage.SaveRecord(ctx, record); err != nil {
		t.Fatalf("Failed to update record: %v", err)
	}
	got, err = storage.GetRecord(ctx, "run_test-1")
	if err != nil {
		t.Fatalf("Failed to get updated record: %v", err)
	}
	if got.Outcome != models.RunOutcomeSuccess {
		t.Errorf("Outcome after update = %s, want success", got.Outcome)
	}
}

func TestBuildStorageGetMissing(t *testing.T) {
	db := setupTestDB(t)
	storage := NewBuildStorage(db, arbor.NewLogger())

	if _, err := storage.GetRecord(context.Background(), "run_missing"); err == nil {
		t.Error("Expected error for missing record")
	}
}

func TestBuildStorageListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	storage := NewBuildStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run_a", "run_b", "run_c"} {
		record := &models.BuildRecord{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Outcome:   models.RunOutcomeSuccess,
		}
		if err := storage.SaveRecord(ctx, record); err != nil {
			t.Fatalf("Failed to save %s: %v", id, err)
		}
	}

	records, err := storage.ListRecords(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "run_c" || records[1].ID != "run_b" {
		t.Errorf("Expected newest first [run_c run_b], got [%s %s]", records[0].ID, records[1].ID)
	}
}

func TestStageLogStorageOrderAndFilter(t *testing.T) {
	db := setupTestDB(t)
	storage := NewStageLogStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if err := storage.AppendLines(ctx, "run_1", "openssl", []string{"line 1", "line 2"}); err != nil {
		t.Fatalf("Failed to append openssl lines: %v", err)
	}
	if err := storage.AppendLines(ctx, "run_1", "curl", []string{"line 3"}); err != nil {
		t.Fatalf("Failed to append curl lines: %v", err)
	}
	if err := storage.AppendLines(ctx, "run_2", "openssl", []string{"other run"}); err != nil {
		t.Fatalf("Failed to append run_2 lines: %v", err)
	}

	entries, err := storage.GetLines(ctx, "run_1", "", 0)
	if err != nil {
		t.Fatalf("Failed to get lines: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries for run_1, got %d", len(entries))
	}
	for i, want := range []string{"line 1", "line 2", "line 3"} {
		if entries[i].Line != want {
			t.Errorf("entries[%d].Line = %q, want %q", i, entries[i].Line, want)
		}
	}

	// Filter by dependency
	entries, err = storage.GetLines(ctx, "run_1", "curl", 0)
	if err != nil {
		t.Fatalf("Failed to get filtered lines: %v", err)
	}
	if len(entries) != 1 || entries[0].Line != "line 3" {
		t.Errorf("Filtered entries = %+v, want only curl's line", entries)
	}

	// Delete removes only the targeted run
	if err := storage.DeleteLines(ctx, "run_1"); err != nil {
		t.Fatalf("Failed to delete lines: %v", err)
	}
	entries, err = storage.GetLines(ctx, "run_1", "", 0)
	if err != nil {
		t.Fatalf("Failed to get lines after delete: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries after delete, got %d", len(entries))
	}
	entries, err = storage.GetLines(ctx, "run_2", "", 0)
	if err != nil {
		t.Fatalf("Failed to get run_2 lines: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("run_2 lines were deleted too")
	}
}
