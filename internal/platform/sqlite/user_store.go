package sqlite

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
)

// UserStore implements store.UserStore on SQLite.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore. It panics if db is nil.
func NewUserStore(db store.DBTX, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_user_store")),
	}
}

// Create inserts a user row. Users are owned by the platform's user service;
// this exists for seeding and tests.
func (s *UserStore) Create(ctx context.Context, id uuid.UUID, email, name string) error {
	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, name, now, now)
	return MapError(err)
}

// FindExistingIDs implements store.UserStore.
func (s *UserStore) FindExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM users WHERE id IN (`+placeholders+`)`, args...)
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
