package wage

import (
	"errors"
	"strings"

	wageerrors "go-wages/internal/wage/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "uq_wage_partition_employee":
			return wageerrors.ErrDuplicateWageRecord.WithCause(err)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01":
			return wageerrors.ErrWageStoreUnavailable.WithCause(err)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return wageerrors.ErrWageStoreUnavailable.WithCause(err)
	}

	return err
}
