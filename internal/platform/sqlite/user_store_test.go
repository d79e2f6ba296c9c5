package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore_FindExistingIDs(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(newTestDB(t), testLogger())

	a := createUser(t, users)
	b := createUser(t, users)
	missing := uuid.New()

	tests := []struct {
		name string
		ids  []uuid.UUID
		want []uuid.UUID
	}{
		{"empty input", nil, []uuid.UUID{}},
		{"all exist", []uuid.UUID{a, b}, []uuid.UUID{a, b}},
		{"some missing", []uuid.UUID{a, missing}, []uuid.UUID{a}},
		{"duplicates ignored", []uuid.UUID{b, b, b}, []uuid.UUID{b}},
		{"none exist", []uuid.UUID{missing}, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := users.FindExistingIDs(ctx, tt.ids)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestUserStore_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(newTestDB(t), testLogger())

	require.NoError(t, users.Create(ctx, uuid.New(), "ops@example.com", "Ops"))
	err := users.Create(ctx, uuid.New(), "ops@example.com", "Ops Again")
	assert.ErrorIs(t, err, store.ErrDuplicate)
}
