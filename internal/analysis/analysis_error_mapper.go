package analysis

import (
	"errors"
	"strings"

	analysiserrors "go-wages/internal/analysis/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return analysiserrors.ErrArtifactNotFound
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return analysiserrors.ErrAnalysisStoreUnavailable.WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01") {
		return analysiserrors.ErrAnalysisStoreUnavailable.WithCause(err)
	}

	return err
}
