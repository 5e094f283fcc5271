package wagefileerrors

import (
	"go-wages/internal/shared/apperror"
	"net/http"
)

var (
	ErrMalformedPayload = apperror.New(
		apperror.CodeMalformedPayload,
		"Wage file could not be parsed",
		http.StatusBadRequest,
	)

	ErrMissingPartition = apperror.New(
		apperror.CodeMalformedPayload,
		"Wage file is missing location or year",
		http.StatusBadRequest,
	)
)
