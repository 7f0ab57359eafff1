package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// SQLConfig is read with the ITINERARY_DB prefix.
type SQLConfig struct {
	DSN          string `envconfig:"DSN"`
	InitSchema   bool   `split_words:"true" default:"true"`
	MaxOpenConns int    `split_words:"true" default:"10"`
}

type itineraryRow struct {
	bun.BaseModel `bun:"table:itineraries"`

	ConversationID string                  `bun:"conversation_id,pk"`
	Itinerary      *statex.ItineraryOutput `bun:"itinerary_json,type:jsonb,notnull"`
	CreatedAt      time.Time               `bun:"created_at,notnull"`
	UpdatedAt      time.Time               `bun:"updated_at,notnull"`
}

type BunStoreOption func(*BunStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) BunStoreOption {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

// BunStore keeps itineraries in a relational table, one row per conversation.
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ ItineraryStore = (*BunStore)(nil)

func NewBunStore(db *bun.DB, opts ...BunStoreOption) *BunStore {
	s := &BunStore{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func OpenPostgres(cfg SQLConfig) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens an embedded database. SQLite allows a single writer, so
// the pool is capped at one connection.
func OpenSQLite(cfg SQLConfig) (*bun.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = "file:itineraries.db?_pragma=busy_timeout(5000)"
	}
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func (s *BunStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*itineraryRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create itineraries table: %w", err)
	}
	return nil
}

func (s *BunStore) Load(ctx context.Context, conversationID string) (*statex.ItineraryOutput, error) {
	row, err := s.row(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if row.Itinerary == nil {
		return nil, fmt.Errorf("decode itinerary %s: empty document", conversationID)
	}
	return row.Itinerary, nil
}

// Save upserts in a single statement: created_at is kept, updated_at refreshed.
func (s *BunStore) Save(ctx context.Context, conversationID string, it *statex.ItineraryOutput) error {
	if err := checkSave(conversationID, it); err != nil {
		return err
	}
	// bun encodes the jsonb column itself; the document is stored once.
	now := s.now().UTC()
	row := &itineraryRow{
		ConversationID: conversationID,
		Itinerary:      it,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (conversation_id) DO UPDATE").
		Set("itinerary_json = EXCLUDED.itinerary_json").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert itinerary %s: %w", conversationID, err)
	}
	return nil
}

// Timestamps returns created_at and updated_at for a stored itinerary.
func (s *BunStore) Timestamps(ctx context.Context, conversationID string) (time.Time, time.Time, error) {
	row, err := s.row(ctx, conversationID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return row.CreatedAt, row.UpdatedAt, nil
}

func (s *BunStore) row(ctx context.Context, conversationID string) (*itineraryRow, error) {
	if err := checkID(conversationID); err != nil {
		return nil, err
	}
	row := new(itineraryRow)
	err := s.db.NewSelect().
		Model(row).
		Where("conversation_id = ?", conversationID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrItineraryNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("select itinerary %s: %w", conversationID, err)
	}
	return row, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}
