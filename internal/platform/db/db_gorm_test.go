package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
)

// TestBuildDSN はドライバーと設定に応じたDSN文字列が正しく生成されることを検証します。
func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit DSN is used verbatim",
			cfg:  Config{Driver: DriverPostgres, DSN: "postgres://u:p@db:5432/candles", Host: "ignored"},
			want: "postgres://u:p@db:5432/candles",
		},
		{
			name: "sqlite falls back to default path",
			cfg:  Config{Driver: DriverSQLite},
			want: DefaultSQLitePath,
		},
		{
			name: "empty driver means sqlite",
			cfg:  Config{},
			want: DefaultSQLitePath,
		},
		{
			name: "postgres from discrete fields",
			cfg: Config{
				Driver:   DriverPostgres,
				Host:     "localhost",
				Port:     "5432",
				User:     "testuser",
				Password: "testpass",
				Name:     "testdb",
			},
			want: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable TimeZone=UTC",
		},
		{
			name: "postgres with sslmode",
			cfg: Config{
				Driver:  DriverPostgres,
				Host:    "db",
				Port:    "5432",
				User:    "u",
				Name:    "n",
				SSLMode: "require",
			},
			want: "host=db port=5432 user=u password= dbname=n sslmode=require TimeZone=UTC",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BuildDSN(tt.cfg); got != tt.want {
				t.Errorf("expected DSN %q, got %q", tt.want, got)
			}
		})
	}
}

// TestOpenerFor_UnsupportedDriver は未対応ドライバー名でエラーが返されることを検証します。
func TestOpenerFor_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	if _, err := OpenerFor("mysql"); err == nil {
		t.Fatal("expected error for unsupported driver, got nil")
	}
	for _, d := range []string{"", DriverSQLite, DriverPostgres} {
		if _, err := OpenerFor(d); err != nil {
			t.Errorf("driver %q: unexpected error: %v", d, err)
		}
	}
}

// TestOpen_SQLite はSQLiteファイルに接続し、Pingが成功することを検証します。
func TestOpen_SQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candles.db")
	db, err := Open(Config{Driver: DriverSQLite, DSN: path}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sqlDB.Close()

	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("expected sqlite pool limited to 1 connection, got %d", got)
	}
	if err := Ping(db)(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
	if !db.Config.TranslateError {
		t.Error("expected TranslateError to be enabled")
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		if dsn != "test-dsn" {
			t.Errorf("expected dsn %q, got %q", "test-dsn", dsn)
		}
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, opener)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
	if attemptCount != 1 {
		t.Errorf("expected 1 attempt, got %d", attemptCount)
	}
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attemptCount := 0

	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		if attemptCount < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	}

	db, err := connectWithRetry("test-dsn", time.Second, 10*time.Millisecond, opener)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
	if attemptCount != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount)
	}
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後に最後のエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	errRefused := errors.New("connection refused")
	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		return nil, errRefused
	}

	_, err := connectWithRetry("test-dsn", 50*time.Millisecond, 10*time.Millisecond, opener)

	if !errors.Is(err, errRefused) {
		t.Fatalf("expected wrapped connection error, got %v", err)
	}
	if attemptCount < 2 {
		t.Errorf("expected retries before giving up, got %d attempts", attemptCount)
	}
}
