package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
)

const uniqueViolation = "23505"

// mapConstraintError translates a unique-violation on a match key into the
// domain error the import job knows how to isolate.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return person.ErrPersonIDTaken
	}
	return err
}
