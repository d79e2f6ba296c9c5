package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a new PostgresUserStore. It panics if db is nil.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Create inserts a user row. Users are owned by the platform's user service;
// this exists for seeding and tests.
func (s *PostgresUserStore) Create(ctx context.Context, id uuid.UUID, email, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`, id, email, name)
	return MapError(err)
}

// FindExistingIDs implements store.UserStore.
func (s *PostgresUserStore) FindExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	args := make([]any, len(ids))
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args[i] = id
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM users WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to look up users",
			slog.Int("id_count", len(ids)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	found := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return found, nil
}
