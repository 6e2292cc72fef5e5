package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

func newState(userID string) *models.UserState {
	s := models.NewUserState(userID)
	s.Preferences.Email = "traveler@example.com"
	return s
}

func TestMemory_GetPut(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	s := newState("u1")
	if err := m.Put(ctx, s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if s.Version != 1 {
		t.Errorf("Put() version = %d, want 1", s.Version)
	}

	got, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Version != 1 || got.Preferences.Email != "traveler@example.com" {
		t.Errorf("Get() = %+v", got)
	}

	got.Preferences.Email = "changed@example.com"
	again, _ := m.Get(ctx, "u1")
	if again.Preferences.Email != "traveler@example.com" {
		t.Error("mutating a returned state leaked into the store")
	}
}

func TestMemory_Conflict(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Put(ctx, newState("u1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	a, _ := m.Get(ctx, "u1")
	b, _ := m.Get(ctx, "u1")
	if err := m.Put(ctx, a); err != nil {
		t.Fatalf("first writer Put() error = %v", err)
	}

	err := m.Put(ctx, b)
	var conflict *apperr.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("stale Put() error = %v, want ConflictError", err)
	}
	if conflict.ExpectedVersion != 1 || conflict.ActualVersion != 2 {
		t.Errorf("conflict = %+v, want expected 1 actual 2", conflict)
	}
	if !errors.Is(err, apperr.ErrConflict) {
		t.Error("ConflictError does not match ErrConflict")
	}
}

func TestMemory_ConcurrentWritersOneWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.Put(ctx, newState("u1"))

	const writers = 16
	states := make([]*models.UserState, writers)
	for i := range states {
		states[i], _ = m.Get(ctx, "u1")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, s := range states {
		wg.Add(1)
		go func(s *models.UserState) {
			defer wg.Done()
			if err := m.Put(ctx, s); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("winning writers = %d, want 1", wins)
	}
}

func TestMemory_RejectsInvalidState(t *testing.T) {
	m := NewMemory()
	s := newState("u1")
	s.CurrentAlerts = []models.Alert{{AlertID: "a", Priority: 9}}

	if err := m.Put(context.Background(), s); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Put() error = %v, want ErrValidation", err)
	}
	if s.Version != 0 {
		t.Errorf("failed Put() changed version to %d", s.Version)
	}
}

func TestOpen(t *testing.T) {
	b, err := Open(context.Background(), Config{Backend: "memory"})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := b.(*Memory); !ok {
		t.Errorf("Open(memory) = %T, want *Memory", b)
	}

	if _, err := Open(context.Background(), Config{Backend: "dynamo"}); err == nil {
		t.Error("Open(dynamo) expected error")
	}
}

func TestNewDB(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		wantErr bool
	}{
		{name: "invalid DSN", dsn: "invalid-dsn", wantErr: true},
		{name: "empty DSN", dsn: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDB(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDB() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if db != nil {
				db.Close()
			}
		})
	}
}

func TestDB_Close(t *testing.T) {
	db := &DB{conn: nil}
	if err := db.Close(); err != nil {
		t.Errorf("Close() with nil conn error = %v, want nil", err)
	}
}

func TestDB_Get(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer conn.Close()
	d := &DB{conn: conn}
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func()
		wantErr   error
		wantVer   int64
	}{
		{
			name: "found",
			setupMock: func() {
				mock.ExpectQuery("SELECT state, version").
					WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"state", "version"}).
						AddRow([]byte(`{"user_id":"u1","version":1,"bookings":[]}`), 3))
			},
			wantVer: 3,
		},
		{
			name: "not found",
			setupMock: func() {
				mock.ExpectQuery("SELECT state, version").
					WithArgs("u1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func() {
				mock.ExpectQuery("SELECT state, version").
					WithArgs("u1").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			got, err := d.Get(ctx, "u1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Get() error = %v", err)
			} else if got.Version != tt.wantVer || got.UserID != "u1" {
				t.Errorf("Get() = %+v, want version %d", got, tt.wantVer)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Mock expectations were not met: %v", err)
			}
		})
	}
}

func TestDB_Put(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer conn.Close()
	d := &DB{conn: conn}
	ctx := context.Background()

	tests := []struct {
		name         string
		version      int64
		setupMock    func()
		wantErr      error
		wantVersion  int64
		wantActual   int64
		wantConflict bool
	}{
		{
			name:    "insert new user",
			version: 0,
			setupMock: func() {
				mock.ExpectExec("INSERT INTO user_states").
					WithArgs("u1", int64(1), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantVersion: 1,
		},
		{
			name:    "insert races another writer",
			version: 0,
			setupMock: func() {
				mock.ExpectExec("INSERT INTO user_states").
					WithArgs("u1", int64(1), sqlmock.AnyArg()).
					WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectQuery("SELECT version FROM user_states").
					WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
			},
			wantConflict: true,
			wantActual:   1,
			wantVersion:  0,
		},
		{
			name:    "update current version",
			version: 3,
			setupMock: func() {
				mock.ExpectExec("UPDATE user_states").
					WithArgs("u1", int64(3), sqlmock.AnyArg(), int64(4)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantVersion: 4,
		},
		{
			name:    "update stale version",
			version: 3,
			setupMock: func() {
				mock.ExpectExec("UPDATE user_states").
					WithArgs("u1", int64(3), sqlmock.AnyArg(), int64(4)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT version FROM user_states").
					WithArgs("u1").
					WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))
			},
			wantConflict: true,
			wantActual:   5,
			wantVersion:  3,
		},
		{
			name:    "database error",
			version: 3,
			setupMock: func() {
				mock.ExpectExec("UPDATE user_states").
					WithArgs("u1", int64(3), sqlmock.AnyArg(), int64(4)).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr:     sql.ErrConnDone,
			wantVersion: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			s := newState("u1")
			s.Version = tt.version

			err := d.Put(ctx, s)
			switch {
			case tt.wantConflict:
				var conflict *apperr.ConflictError
				if !errors.As(err, &conflict) {
					t.Fatalf("Put() error = %v, want ConflictError", err)
				}
				if conflict.ActualVersion != tt.wantActual {
					t.Errorf("ActualVersion = %d, want %d", conflict.ActualVersion, tt.wantActual)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Put() error = %v, want %v", err, tt.wantErr)
				}
			case err != nil:
				t.Fatalf("Put() error = %v", err)
			}
			if s.Version != tt.wantVersion {
				t.Errorf("state.Version = %d, want %d", s.Version, tt.wantVersion)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Mock expectations were not met: %v", err)
			}
		})
	}
}

func TestDB_EnsureSchema(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer conn.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_states").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS notifications").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := (&DB{conn: conn}).EnsureSchema(context.Background()); err != nil {
		t.Errorf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Mock expectations were not met: %v", err)
	}
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}

	prefix := "test:user_state:" + time.Now().Format("150405.000000") + ":"
	r := NewRedisWithClient(client, prefix)
	defer r.Close()
	defer client.Del(context.Background(), prefix+"u1")

	if _, err := r.Get(ctx, "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}

	s := newState("u1")
	if err := r.Put(ctx, s); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	stale := newState("u1")
	if err := r.Put(ctx, stale); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale Put() error = %v, want ErrConflict", err)
	}

	got, err := r.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Version != 1 || got.Preferences.Email != "traveler@example.com" {
		t.Errorf("Get() = %+v", got)
	}

	alertID := "a-" + prefix
	defer client.Del(context.Background(), DefaultNotifiedPrefix+notifiedKey("u1", alertID))
	n := Notification{UserID: "u1", AlertID: alertID, AlertType: "gate_change", Priority: 4}
	if isNew, err := r.RecordNotification(ctx, n); err != nil || !isNew {
		t.Errorf("RecordNotification() = %v, %v, want true, nil", isNew, err)
	}
	if isNew, _ := r.RecordNotification(ctx, n); isNew {
		t.Error("second RecordNotification() reported a new record")
	}
	if ok, err := r.WasNotified(ctx, "u1", alertID); err != nil || !ok {
		t.Errorf("WasNotified() = %v, %v, want true, nil", ok, err)
	}
}

func TestMemory_NotificationLedger(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	n := Notification{UserID: "u1", AlertID: "a1", AlertType: "gate_change", Priority: 4}

	if ok, _ := m.WasNotified(ctx, "u1", "a1"); ok {
		t.Fatal("WasNotified() = true before any record")
	}
	if isNew, err := m.RecordNotification(ctx, n); err != nil || !isNew {
		t.Fatalf("RecordNotification() = %v, %v, want true, nil", isNew, err)
	}
	if isNew, _ := m.RecordNotification(ctx, n); isNew {
		t.Error("second RecordNotification() reported a new record")
	}
	if ok, _ := m.WasNotified(ctx, "u1", "a1"); !ok {
		t.Error("WasNotified() = false after record")
	}
	if ok, _ := m.WasNotified(ctx, "u2", "a1"); ok {
		t.Error("records must be per user")
	}
}

func TestDB_WasNotified(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	defer conn.Close()
	db := &DB{conn: conn}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := db.WasNotified(context.Background(), "u1", "a1")
	if err != nil || !ok {
		t.Errorf("WasNotified() = %v, %v, want true, nil", ok, err)
	}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", "a2").
		WillReturnError(errors.New("connection reset"))
	if _, err := db.WasNotified(context.Background(), "u1", "a2"); err == nil {
		t.Error("WasNotified() should surface query errors")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Mock expectations were not met: %v", err)
	}
}

func TestDB_RecordNotification(t *testing.T) {
	n := Notification{UserID: "u1", AlertID: "a1", AlertType: "gate_change", Priority: 4, Transports: []string{"log", "sns"}}

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		wantNew   bool
		wantErr   bool
	}{
		{
			name: "new notification",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INSERT INTO notifications").
					WithArgs("u1", "a1", "gate_change", 4, sqlmock.AnyArg()).
					WillReturnRows(sqlmock.NewRows([]string{"notification_id"}).AddRow(int64(7)))
			},
			wantNew: true,
		},
		{
			name: "already recorded",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INSERT INTO notifications").
					WithArgs("u1", "a1", "gate_change", 4, sqlmock.AnyArg()).
					WillReturnError(sql.ErrNoRows)
			},
			wantNew: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INSERT INTO notifications").
					WithArgs("u1", "a1", "gate_change", 4, sqlmock.AnyArg()).
					WillReturnError(errors.New("disk full"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("Failed to create mock: %v", err)
			}
			defer conn.Close()
			tt.setupMock(mock)

			isNew, err := (&DB{conn: conn}).RecordNotification(context.Background(), n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RecordNotification() error = %v, wantErr %v", err, tt.wantErr)
			}
			if isNew != tt.wantNew {
				t.Errorf("RecordNotification() = %v, want %v", isNew, tt.wantNew)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Mock expectations were not met: %v", err)
			}
		})
	}
}
