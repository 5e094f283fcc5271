package ingest

import (
	"io"
	"net/http"
	"strings"

	ingesterrors "go-wages/internal/ingest/errors"
	"go-wages/internal/shared/apperror"
	"go-wages/internal/shared/response"
	"go-wages/internal/wagefile"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

const maxUploadBytes = 64 << 20

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("ingest.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ingest.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("upload request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Upload accepts a wage file either as the raw JSON body or as the "file"
// part of a multipart form. location and year, given as query or form
// fields, fill in partition metadata the file leaves out.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var req UploadRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	body, closeBody, err := h.payloadReader(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer closeBody()

	payload, err := wagefile.ParseReader(body, wagefile.WithDefaultPartition(req.Location, req.Year))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.Async {
		res, err := h.service.UploadAsync(ctx, payload)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		response.Success(c, http.StatusAccepted, res, nil)
		return
	}

	res, err := h.service.Upload(ctx, payload)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) payloadReader(c *gin.Context) (io.Reader, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, func() {}, nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, ingesterrors.ErrMissingFile.WithCause(err)
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, ingesterrors.ErrMissingFile.WithCause(err)
	}
	return f, func() { _ = f.Close() }, nil
}
