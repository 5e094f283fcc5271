package analysiserrors

import (
	"go-wages/internal/shared/apperror"
	"net/http"
)

var (
	ErrPartitionBusy = apperror.New(
		apperror.CodePartitionBusy,
		"Partition is being ingested or regenerated; try again when it is idle",
		http.StatusConflict,
	)
	ErrArtifactNotFound = apperror.New(
		apperror.CodeNotFound,
		"No analysis has been generated for this partition",
		http.StatusNotFound,
	)
	ErrInvalidPartition = apperror.New(
		apperror.CodeInvalidInput,
		"Location and a positive year are required",
		http.StatusBadRequest,
	)
	ErrAnalysisStoreUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Analysis store is unavailable",
		http.StatusServiceUnavailable,
	)
)
