package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func newSQLiteStore(t *testing.T, opts ...BunStoreOption) *BunStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenSQLite(SQLConfig{DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", name)})
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	store := NewBunStore(db, opts...)
	t.Cleanup(func() { _ = store.Close() })

	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	// second call is a no-op
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() again error = %v", err)
	}
	return store
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(time.Hour)
	return now
}

func TestBunStoreRoundTrip(t *testing.T) {
	t.Parallel()

	exerciseStore(t, newSQLiteStore(t))
}

func TestBunStoreUpsertKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)}
	store := newSQLiteStore(t, WithClock(clock.Now))
	ctx := context.Background()

	if err := store.Save(ctx, "conv-ts", sampleItinerary(t)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	created, updated, err := store.Timestamps(ctx, "conv-ts")
	if err != nil {
		t.Fatalf("Timestamps() error = %v", err)
	}
	if !created.Equal(updated) {
		t.Fatalf("created=%v updated=%v, want equal on insert", created, updated)
	}

	if err := store.Save(ctx, "conv-ts", sampleItinerary(t)); err != nil {
		t.Fatalf("Save() again error = %v", err)
	}
	created2, updated2, err := store.Timestamps(ctx, "conv-ts")
	if err != nil {
		t.Fatalf("Timestamps() error = %v", err)
	}
	if !created2.Equal(created) {
		t.Fatalf("created_at changed: %v -> %v", created, created2)
	}
	if !updated2.After(updated) {
		t.Fatalf("updated_at not refreshed: %v -> %v", updated, updated2)
	}
}

func TestBunStoreKeepsDocumentAsObject(t *testing.T) {
	t.Parallel()

	store := newSQLiteStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, "conv-doc", sampleItinerary(t)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var raw string
	err := store.db.NewSelect().
		Table("itineraries").
		Column("itinerary_json").
		Where("conversation_id = ?", "conv-doc").
		Scan(ctx, &raw)
	if err != nil {
		t.Fatalf("select itinerary_json error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("itinerary_json is not an object: %v (%.60s)", err, raw)
	}
	if doc["destination"] != "Paris" {
		t.Fatalf("destination = %v, want Paris", doc["destination"])
	}
	if _, ok := doc["itinerary"].([]any); !ok {
		t.Fatalf("itinerary = %T, want array", doc["itinerary"])
	}

	got, err := store.Load(ctx, "conv-doc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Destination != "Paris" || len(got.Days) != 3 || got.Days[0].Accommodation == nil {
		t.Fatalf("Load() = %+v", got)
	}
}
