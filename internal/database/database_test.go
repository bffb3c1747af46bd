package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"skinscan/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		config  config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{
			name:   "discrete fields",
			config: config.DatabaseConfig{Host: "db", Port: "5432", User: "app", Password: "pw", Name: "skinscan", SSLMode: "disable"},
			want:   "postgres://app:pw@db:5432/skinscan?application_name=skinscan&sslmode=disable",
		},
		{
			name:   "no password no sslmode",
			config: config.DatabaseConfig{Host: "db", Port: "5432", User: "app", Name: "skinscan"},
			want:   "postgres://app@db:5432/skinscan?application_name=skinscan",
		},
		{
			name:   "ipv6 host",
			config: config.DatabaseConfig{Host: "::1", Port: "5432", User: "app", Name: "skinscan"},
			want:   "postgres://app@[::1]:5432/skinscan?application_name=skinscan",
		},
		{
			name: "url wins and keeps its own options",
			config: config.DatabaseConfig{
				URL:     "postgresql://postgres:pw@pooler.example.com:6543/postgres?sslmode=require",
				Host:    "ignored",
				SSLMode: "disable",
			},
			want: "postgresql://postgres:pw@pooler.example.com:6543/postgres?application_name=skinscan&sslmode=require",
		},
		{
			name:   "url keeps application_name",
			config: config.DatabaseConfig{URL: "postgres://u@h:5432/d?application_name=worker"},
			want:   "postgres://u@h:5432/d?application_name=worker",
		},
		{name: "wrong scheme", config: config.DatabaseConfig{URL: "mysql://u:p@h/d"}, wantErr: true},
		{name: "url without host", config: config.DatabaseConfig{URL: "postgres:///d"}, wantErr: true},
		{name: "missing host", config: config.DatabaseConfig{Port: "5432", User: "app", Name: "d"}, wantErr: true},
		{name: "missing port", config: config.DatabaseConfig{Host: "db", User: "app", Name: "d"}, wantErr: true},
		{name: "missing user", config: config.DatabaseConfig{Host: "db", Port: "5432", Name: "d"}, wantErr: true},
		{name: "missing name", config: config.DatabaseConfig{Host: "db", Port: "5432", User: "app"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DSN(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDSN_ErrorHidesPassword(t *testing.T) {
	_, err := DSN(config.DatabaseConfig{URL: "postgres://app:hunter2@%zz/d"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}

// stubOpen makes NewPostgres use db and restores sql.Open afterwards.
func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, err }
	t.Cleanup(func() { sqlOpen = orig })
}

func fastRetries(t *testing.T) {
	t.Helper()
	orig := pingDelay
	pingDelay = time.Millisecond
	t.Cleanup(func() { pingDelay = orig })
}

func TestNewPostgres(t *testing.T) {
	conf := config.DatabaseConfig{
		Host:               "db",
		Port:               "5432",
		User:               "app",
		Password:           "pw",
		Name:               "skinscan",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
		ConnectAttempts:    3,
	}
	ctx := context.Background()

	t.Run("first ping succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing()

		got, err := NewPostgres(ctx, conf)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database comes up on the third attempt", func(t *testing.T) {
		fastRetries(t)
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing().WillReturnError(errors.New("the database system is starting up"))
		mock.ExpectPing()

		_, err = NewPostgres(ctx, conf)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gives up after all attempts", func(t *testing.T) {
		fastRetries(t)
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		for i := 0; i < 3; i++ {
			mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		}

		got, err := NewPostgres(ctx, conf)
		assert.ErrorContains(t, err, "db ping after 3 attempt(s): connection refused")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = NewPostgres(cctx, conf)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("sql open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		got, err := NewPostgres(ctx, conf)
		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, got)
	})

	t.Run("invalid config", func(t *testing.T) {
		got, err := NewPostgres(ctx, config.DatabaseConfig{})
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}
