package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/phrazzld/bizops-api/internal/store"
)

// generatedForDateColumns is how SQLite names the columns of the
// uq_tasks_template_generated_for_date index in a violation message.
const generatedForDateColumns = "tasks.template_id, tasks.generated_for_date"

// MapError maps a SQLite error to the matching store sentinel, wrapping the
// original error for context. Errors without a mapping are returned as is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	switch constraintCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		if strings.Contains(err.Error(), generatedForDateColumns) {
			return fmt.Errorf("%w: %v", store.ErrGeneratedTaskExists, err)
		}
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: foreign key violation: %v", store.ErrInvalidEntity, err)
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: not null violation: %v", store.ErrInvalidEntity, err)
	}

	return err
}

// constraintCode returns the extended constraint result code of err, or 0.
// Connections without extended result codes report plain SQLITE_CONSTRAINT;
// those are classified from the message.
func constraintCode(err error) int {
	var liteErr *moderncsqlite.Error
	if !errors.As(err, &liteErr) {
		return 0
	}

	code := liteErr.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return 0
	}
	if code != sqlite3.SQLITE_CONSTRAINT {
		return code
	}

	msg := liteErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_UNIQUE
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	case strings.Contains(msg, "CHECK constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_CHECK
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return sqlite3.SQLITE_CONSTRAINT_NOTNULL
	}
	return code
}
