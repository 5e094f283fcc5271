package progress

import (
	"net/http"

	"go-wages/internal/shared/apperror"
	"go-wages/internal/shared/response"
	"go-wages/internal/wage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("progress.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("progress.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("progress request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Get returns the partition's row when year is given, otherwise every row
// for the location.
func (h *Handler) Get(c *gin.Context) {
	var q ProgressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	if q.Year > 0 {
		res, err := h.service.GetByPartition(c.Request.Context(), wage.Partition{Location: q.Location, Year: q.Year})
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		response.Success(c, http.StatusOK, res, nil)
		return
	}

	res, err := h.service.ListByLocation(c.Request.Context(), q.Location)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}
