package progress

import (
	"database/sql"
	"errors"
	"strings"

	progresserrors "go-wages/internal/progress/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return progresserrors.ErrProgressNotFound
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return progresserrors.ErrProgressStoreUnavailable.WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01") {
		return progresserrors.ErrProgressStoreUnavailable.WithCause(err)
	}

	return err
}
