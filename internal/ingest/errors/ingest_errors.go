package ingesterrors

import (
	"go-wages/internal/shared/apperror"
	"net/http"
)

var (
	ErrStorageWriteFailure = apperror.New(
		apperror.CodeStorageWrite,
		"Writing wage records failed; the upload was stopped",
		http.StatusInternalServerError,
	)
	ErrUploadQueueFull = apperror.New(
		apperror.CodeServiceUnavailable,
		"Upload queue is full, try again later",
		http.StatusServiceUnavailable,
	)
	ErrMissingFile = apperror.New(
		apperror.CodeInvalidInput,
		"Multipart uploads must include a file field",
		http.StatusBadRequest,
	)
	ErrInvalidPartition = apperror.New(
		apperror.CodeInvalidInput,
		"Upload partition requires a location and a positive year",
		http.StatusBadRequest,
	)
)
