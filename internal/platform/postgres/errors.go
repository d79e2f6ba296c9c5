package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/bizops-api/internal/store"
)

// SQLSTATE codes the stores react to.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// generatedForDateConstraint is the unique index that allows one generated
// task per template and date.
const generatedForDateConstraint = "uq_tasks_template_generated_for_date"

// integrityViolations names the constraint classes that mean the row itself
// was rejected.
var integrityViolations = map[string]string{
	foreignKeyViolationCode: "foreign key violation",
	checkViolationCode:      "check constraint violation",
	notNullViolationCode:    "not null violation",
}

// MapError translates driver errors into store sentinels. The original error
// stays in the message; anything unrecognized is returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if pgErr.Code == uniqueViolationCode {
		if pgErr.ConstraintName == generatedForDateConstraint {
			return fmt.Errorf("%w: %v", store.ErrGeneratedTaskExists, err)
		}
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	if kind, ok := integrityViolations[pgErr.Code]; ok {
		subject := pgErr.ConstraintName
		if pgErr.Code == notNullViolationCode {
			subject = pgErr.ColumnName
		}
		return fmt.Errorf("%w: %s (%s): %v", store.ErrInvalidEntity, kind, subject, err)
	}
	return err
}

// CheckRowsAffected returns notFound when result reports no affected rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("check rows affected: nil result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
