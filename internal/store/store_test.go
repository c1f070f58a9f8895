package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
)

const testID = "7b1e4c2a-9d0f-4a51-8c3e-2f6b8a9d0e11"

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func configRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "business_name", "business_type", "tabs", "colors", "platform_tabs", "summary", "conversation_history", "created_at", "updated_at"}).
		AddRow(testID, "Bella Nails", "nail_salon",
			[]byte(`[{"id":"tab_1","label":"Dashboard","icon":"home","components":[]},{"id":"tab_2","label":"Clients","icon":"users","components":[{"id":"clients","label":"Clients","view":"pipeline"}]}]`),
			[]byte(`{"buttons":"#EC4899"}`),
			[]byte(`{site,analytics,settings}`),
			"A nail salon dashboard",
			[]byte(`[{"role":"user","content":"I run a nail salon"}]`),
			now, now)
}

func TestCreateConfig(t *testing.T) {
	st, mock := newMock(t)
	cfg := &dashboard.Configuration{
		BusinessName: "Bella Nails",
		BusinessType: "nail_salon",
		Colors:       dashboard.Palette{"buttons": "#EC4899"},
		Summary:      "A nail salon dashboard",
	}
	history := json.RawMessage(`[{"role":"user","content":"hi"}]`)

	query := regexp.QuoteMeta(`INSERT INTO dashboard_configs (id, business_name, business_type, tabs, colors, platform_tabs, summary, conversation_history, created_at, updated_at)`)
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), "Bella Nails", "nail_salon", []byte(`[]`), []byte(`{"buttons":"#EC4899"}`), sqlmock.AnyArg(), "A nail salon dashboard", []byte(history)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := st.CreateConfig(context.Background(), cfg, history)
	if err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("expected uuid id, got %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateConfigDefaultsHistory(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectExec("INSERT INTO dashboard_configs").
		WithArgs(sqlmock.AnyArg(), "", "", []byte(`[]`), []byte(`{}`), sqlmock.AnyArg(), "", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if _, err := st.CreateConfig(context.Background(), &dashboard.Configuration{Colors: dashboard.Palette{}}, nil); err != nil {
		t.Fatalf("CreateConfig: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateConfigError(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectExec("INSERT INTO dashboard_configs").WillReturnError(errors.New("boom"))
	if _, err := st.CreateConfig(context.Background(), &dashboard.Configuration{}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetConfig(t *testing.T) {
	st, mock := newMock(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM dashboard_configs WHERE id = $1`)).
		WithArgs(testID).
		WillReturnRows(configRows(now))

	rec, err := st.GetConfig(context.Background(), testID)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if rec.ID != testID || rec.Config.BusinessName != "Bella Nails" || rec.Config.Summary == "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if diff := cmp.Diff(dashboard.PlatformTabs, rec.PlatformTabs); diff != "" {
		t.Fatalf("platform tabs mismatch (-want +got):\n%s", diff)
	}
	if len(rec.Config.Tabs) != 2 || rec.Config.Tabs[1].Components[0].View != dashboard.ViewPipeline {
		t.Fatalf("unexpected tabs %+v", rec.Config.Tabs)
	}
	if rec.Config.Colors["buttons"] != "#EC4899" {
		t.Fatalf("unexpected colors %+v", rec.Config.Colors)
	}
	if !rec.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at %v", rec.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetConfigNotFound(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectQuery("FROM dashboard_configs").WithArgs(testID).WillReturnError(sql.ErrNoRows)
	if _, err := st.GetConfig(context.Background(), testID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Malformed ids never reach the database.
	if _, err := st.GetConfig(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateConfig(t *testing.T) {
	st, mock := newMock(t)
	name := "Bella Nails"
	tabs := []dashboard.Tab{{ID: "tab_1", Label: "Dashboard", Icon: "home"}}
	encoded, _ := json.Marshal(tabs)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE dashboard_configs SET`)).
		WithArgs(testID, name, nil, encoded).
		WillReturnRows(configRows(time.Now()))

	rec, err := st.UpdateConfig(context.Background(), testID, ConfigUpdate{BusinessName: &name, Tabs: tabs})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if rec.Config.BusinessType != "nail_salon" {
		t.Fatalf("unexpected record %+v", rec.Config)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateConfigNotFound(t *testing.T) {
	st, mock := newMock(t)
	mock.ExpectQuery("UPDATE dashboard_configs").
		WithArgs(testID, nil, nil, nil).
		WillReturnError(sql.ErrNoRows)
	if _, err := st.UpdateConfig(context.Background(), testID, ConfigUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrateRejectsBadInput(t *testing.T) {
	if err := Migrate("", "", "up", 0); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
