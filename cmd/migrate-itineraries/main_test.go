package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
	storagex "github.com/tanpawarit/Chative-Trip-Planner/agent/storage"
)

func itinerary() *statex.ItineraryOutput {
	start := civil.Date{Year: 2024, Month: 10, Day: 10}
	return &statex.ItineraryOutput{
		Destination:  "Paris",
		StartDate:    start,
		EndDate:      start.AddDays(1),
		DurationDays: 2,
		Days: []statex.DayPlan{
			{DayNumber: 1, Date: start, Location: "Paris", Activities: []string{"Louvre"}},
			{DayNumber: 2, Date: start.AddDays(1), Location: "Paris", Activities: []string{}},
		},
	}
}

func sqliteTarget(t *testing.T) *storagex.BunStore {
	t.Helper()

	db, err := storagex.OpenSQLite(storagex.SQLConfig{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	store := storagex.NewBunStore(db)
	t.Cleanup(func() { _ = store.Close() })
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return store
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return data
}

type failingTarget struct{}

func (failingTarget) Load(context.Context, string) (*statex.ItineraryOutput, error) {
	return nil, storagex.ErrItineraryNotFound
}

func (failingTarget) Save(context.Context, string, *statex.ItineraryOutput) error {
	return errors.New("db down")
}

func TestMigrateCopiesValidItineraries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	src := storagex.NewFileStore(storagex.FileConfig{BaseURL: dir})
	if err := src.Save(ctx, "paris", itinerary()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "itinerary_broken.json"), []byte(`{"destination":`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	bad := itinerary()
	bad.DurationDays = 5
	if err := os.WriteFile(filepath.Join(dir, "itinerary_inconsistent.json"), mustJSON(t, bad), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	dst := sqliteTarget(t)
	var out bytes.Buffer
	rep, err := migrate(ctx, src, dst, false, &out)
	if err != nil {
		t.Fatalf("migrate() error = %v", err)
	}
	if rep.Migrated != 1 || rep.Skipped != 2 || rep.Failed != 0 {
		t.Fatalf("migrate() = %+v\n%s", rep, out.String())
	}

	got, err := dst.Load(ctx, "paris")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Destination != "Paris" || len(got.Days) != 2 || got.Days[0].Activities[0] != "Louvre" {
		t.Fatalf("Load() = %+v", got)
	}
	if !strings.Contains(out.String(), "ok paris") || !strings.Contains(out.String(), "skip broken") {
		t.Fatalf("output = %s", out.String())
	}
}

func TestMigrateDryRunAndFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := storagex.NewFileStore(storagex.FileConfig{BaseURL: t.TempDir()})
	if err := src.Save(ctx, "rome", itinerary()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var out bytes.Buffer
	rep, err := migrate(ctx, src, failingTarget{}, true, &out)
	if err != nil || rep.Migrated != 1 || rep.Failed != 0 {
		t.Fatalf("dry run = %+v, %v", rep, err)
	}

	rep, err = migrate(ctx, src, failingTarget{}, false, &out)
	if err != nil || rep.Failed != 1 || rep.Migrated != 0 {
		t.Fatalf("migrate() = %+v, %v", rep, err)
	}
}

func TestRunMigratesIntoSQLiteFile(t *testing.T) {
	ctx := context.Background()
	srcDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "itineraries.db")
	t.Setenv("ITINERARY_FILE_BASE_URL", srcDir)
	t.Setenv("ITINERARY_DB_DSN", "file:"+dbPath)

	src := storagex.NewFileStore(storagex.FileConfig{BaseURL: srcDir})
	if err := src.Save(ctx, "lisbon", itinerary()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if code := run(ctx, "sqlite", true, false); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}

	db, err := storagex.OpenSQLite(storagex.SQLConfig{DSN: "file:" + dbPath})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	store := storagex.NewBunStore(db)
	defer store.Close()
	got, err := store.Load(ctx, "lisbon")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Destination != "Paris" || len(got.Days) != 2 {
		t.Fatalf("Load() = %+v", got)
	}

	if code := run(ctx, "mongo", false, false); code != 2 {
		t.Fatalf("run(mongo) = %d, want 2", code)
	}
}
