package wageerrors

import (
	"go-wages/internal/shared/apperror"
	"net/http"
)

var (
	ErrWageStoreUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Wage store is unavailable",
		http.StatusServiceUnavailable,
	)

	ErrDuplicateWageRecord = apperror.New(
		apperror.CodeConflict,
		"Wage record already exists for this employee and partition",
		http.StatusConflict,
	)
)
