package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
)

// dateArg converts d to the midnight-UTC time pgx encodes as a DATE.
func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullDateArg(d *civil.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dateArg(*d), Valid: true}
}

func scanNullDate(nt sql.NullTime) *civil.Date {
	if !nt.Valid {
		return nil
	}
	d := civil.DateOf(nt.Time)
	return &d
}

func nullTimeArg(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func jsonArg[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanJSON[T any](raw []byte) ([]T, error) {
	var items []T
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
