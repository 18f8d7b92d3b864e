package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/woimport/internal/core"
)

// ErrDuplicateWorkOrder is returned when a project already has a work order
// with the same customer work order ID.
var ErrDuplicateWorkOrder = errors.New("duplicate key: work order already exists for project")

const uniqueViolation = "23505"

// notFound maps pgx.ErrNoRows to core.ErrScheduleNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrScheduleNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
