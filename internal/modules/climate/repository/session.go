package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Sessions hands out a repository bound to one pooled connection for the
// duration of fn. The connection is released on every exit path.
type Sessions interface {
	WithSession(ctx context.Context, fn func(ClimateRepository) error) error
}

// ConnPool is satisfied by *sql.DB.
type ConnPool interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

type sessionsImpl struct {
	pool ConnPool
}

func NewSessions(pool ConnPool) Sessions {
	return &sessionsImpl{pool: pool}
}

func (s *sessionsImpl) WithSession(ctx context.Context, fn func(ClimateRepository) error) error {
	conn, err := s.pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("release connection", "error", err)
		}
	}()
	return fn(NewRepository(conn))
}
