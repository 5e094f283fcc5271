package progresserrors

import (
	"go-wages/internal/shared/apperror"
	"net/http"
)

var (
	ErrProgressNotFound = apperror.New(
		apperror.CodeNotFound,
		"No upload progress recorded for this partition",
		http.StatusNotFound,
	)
	ErrJobSuperseded = apperror.New(
		apperror.CodeConflict,
		"Upload was superseded by a newer job for this partition",
		http.StatusConflict,
	)
	ErrInvalidPartition = apperror.New(
		apperror.CodeInvalidInput,
		"Location and a positive year are required",
		http.StatusBadRequest,
	)
	ErrProgressStoreUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Progress ledger is unavailable",
		http.StatusServiceUnavailable,
	)
)
