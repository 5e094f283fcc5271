package analysis

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
	l := zap.L().Named("analysis.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("analysis.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("analysis request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) bindPartition(c *gin.Context) (wage.Partition, bool) {
	var uri PartitionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return wage.Partition{}, false
	}
	return wage.Partition{Location: uri.Location, Year: uri.Year}, true
}

func (h *Handler) Summary(c *gin.Context) {
	p, ok := h.bindPartition(c)
	if !ok {
		return
	}

	res, err := h.service.GetSummary(c.Request.Context(), p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Pyramid(c *gin.Context) {
	p, ok := h.bindPartition(c)
	if !ok {
		return
	}

	res, err := h.service.GetPyramid(c.Request.Context(), p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Titles(c *gin.Context) {
	p, ok := h.bindPartition(c)
	if !ok {
		return
	}

	res, err := h.service.GetTitles(c.Request.Context(), p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) ListSummaries(c *gin.Context) {
	var req ListSummariesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.ListSummaries(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Regenerate(c *gin.Context) {
	p, ok := h.bindPartition(c)
	if !ok {
		return
	}

	res, err := h.service.Regenerate(c.Request.Context(), p)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}
