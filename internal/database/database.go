package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"skinscan/internal/config"
)

const (
	applicationName = "skinscan"
	pingTimeout     = 5 * time.Second
)

var (
	sqlOpen   = sql.Open
	pingDelay = time.Second
)

// DSN returns the connection string for c. A full URL (DATABASE_URL) wins over
// the discrete fields. application_name and sslmode are only added when the
// URL does not already carry them.
func DSN(c config.DatabaseConfig) (string, error) {
	var u *url.URL
	if c.URL != "" {
		parsed, err := url.Parse(c.URL)
		// the parse error echoes the URL, which may hold a password
		if err != nil || (parsed.Scheme != "postgres" && parsed.Scheme != "postgresql") || parsed.Host == "" {
			return "", errors.New("invalid database config: DATABASE_URL must be a postgres:// URL")
		}
		u = parsed
	} else {
		if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
			return "", errors.New("invalid database config: DATABASE_URL or host, port, user and name are required")
		}
		u = &url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, c.Port),
			Path:   c.Name,
			User:   url.User(c.User),
		}
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
	}

	q := u.Query()
	if q.Get("application_name") == "" {
		q.Set("application_name", applicationName)
	}
	if c.SSLMode != "" && q.Get("sslmode") == "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres opens the handle backing the postgres key-value store through
// the pgx stdlib driver wrapped by otelsql. The first ping is retried
// c.ConnectAttempts times so the API can start alongside its database.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	if err := pingWithRetry(ctx, db, c.ConnectAttempts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("db ping: %w", ctx.Err())
		case <-time.After(pingDelay):
		}
	}
	return fmt.Errorf("db ping after %d attempt(s): %w", attempts, err)
}
