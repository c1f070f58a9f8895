package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
)

// ErrNotFound is returned when no configuration has the requested id.
var ErrNotFound = errors.New("store: configuration not found")

type Store struct {
	DB *sql.DB
}

// ConfigRecord is one persisted dashboard configuration.
type ConfigRecord struct {
	ID                  string                   `json:"id"`
	Config              *dashboard.Configuration `json:"config"`
	PlatformTabs        []string                 `json:"platform_tabs"`
	ConversationHistory json.RawMessage          `json:"conversation_history,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// ConfigUpdate carries a partial update. Nil fields are left unchanged.
type ConfigUpdate struct {
	BusinessName *string
	BusinessType *string
	Tabs         []dashboard.Tab
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

const configColumns = `id, business_name, business_type, tabs, colors, platform_tabs, summary, conversation_history, created_at, updated_at`

// CreateConfig persists cfg with the conversation that produced it and
// returns the new id.
func (s *Store) CreateConfig(ctx context.Context, cfg *dashboard.Configuration, history json.RawMessage) (string, error) {
	if cfg == nil {
		return "", errors.New("store: nil configuration")
	}
	tabs, err := json.Marshal(nonNilTabs(cfg.Tabs))
	if err != nil {
		return "", fmt.Errorf("encode tabs: %w", err)
	}
	colors, err := json.Marshal(cfg.Colors)
	if err != nil {
		return "", fmt.Errorf("encode colors: %w", err)
	}
	if len(history) == 0 {
		history = json.RawMessage(`[]`)
	}
	id := uuid.NewString()
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO dashboard_configs (id, business_name, business_type, tabs, colors, platform_tabs, summary, conversation_history, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())`,
		id, cfg.BusinessName, cfg.BusinessType, tabs, colors, pq.Array(dashboard.PlatformTabs), cfg.Summary, []byte(history))
	if err != nil {
		return "", fmt.Errorf("insert dashboard config: %w", err)
	}
	return id, nil
}

// GetConfig loads the configuration with the given id.
func (s *Store) GetConfig(ctx context.Context, id string) (ConfigRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ConfigRecord{}, ErrNotFound
	}
	row := s.DB.QueryRowContext(ctx, `SELECT `+configColumns+` FROM dashboard_configs WHERE id = $1`, id)
	return scanConfig(row)
}

// UpdateConfig applies upd to the configuration with the given id and returns
// the stored result.
func (s *Store) UpdateConfig(ctx context.Context, id string, upd ConfigUpdate) (ConfigRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ConfigRecord{}, ErrNotFound
	}
	var tabs any
	if upd.Tabs != nil {
		data, err := json.Marshal(upd.Tabs)
		if err != nil {
			return ConfigRecord{}, fmt.Errorf("encode tabs: %w", err)
		}
		tabs = data
	}
	row := s.DB.QueryRowContext(ctx, `
UPDATE dashboard_configs SET
  business_name = COALESCE($2, business_name),
  business_type = COALESCE($3, business_type),
  tabs = COALESCE($4::jsonb, tabs),
  updated_at = NOW()
WHERE id = $1
RETURNING `+configColumns,
		id, nullString(upd.BusinessName), nullString(upd.BusinessType), tabs)
	return scanConfig(row)
}

func scanConfig(row *sql.Row) (ConfigRecord, error) {
	var (
		rec                ConfigRecord
		cfg                dashboard.Configuration
		tabs, colors, hist []byte
		platform           pq.StringArray
	)
	err := row.Scan(&rec.ID, &cfg.BusinessName, &cfg.BusinessType, &tabs, &colors, &platform, &cfg.Summary, &hist, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ConfigRecord{}, ErrNotFound
	}
	if err != nil {
		return ConfigRecord{}, fmt.Errorf("scan dashboard config: %w", err)
	}
	if len(tabs) > 0 {
		if err := json.Unmarshal(tabs, &cfg.Tabs); err != nil {
			return ConfigRecord{}, fmt.Errorf("decode tabs: %w", err)
		}
	}
	if len(colors) > 0 {
		if err := json.Unmarshal(colors, &cfg.Colors); err != nil {
			return ConfigRecord{}, fmt.Errorf("decode colors: %w", err)
		}
	}
	cfg.Tabs = nonNilTabs(cfg.Tabs)
	if cfg.Colors == nil {
		cfg.Colors = dashboard.Palette{}
	}
	rec.Config = &cfg
	rec.PlatformTabs = []string(platform)
	rec.ConversationHistory = json.RawMessage(hist)
	return rec, nil
}

func nonNilTabs(tabs []dashboard.Tab) []dashboard.Tab {
	if tabs == nil {
		return []dashboard.Tab{}
	}
	return tabs
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
