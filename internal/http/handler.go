package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/service"
)

type Handler struct {
	complaintService *service.ComplaintService
	identityService  *service.IdentityService
	reportService    *service.ReportService
	maxUploadBytes   int64
	log              zerolog.Logger
}

func NewHandler(
	complaintService *service.ComplaintService,
	identityService *service.IdentityService,
	reportService *service.ReportService,
	maxUploadBytes int64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		complaintService: complaintService,
		identityService:  identityService,
		reportService:    reportService,
		maxUploadBytes:   maxUploadBytes,
		log:              log,
	}
}

var errUploadTooLarge = errors.New("uploaded file is too large")

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrStorage):
		h.log.Error().Err(err).Msg("media storage error")
		c.JSON(http.StatusInternalServerError, errorResponse("file storage failed"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

// readUpload returns nil when the form has no file under field.
func (h *Handler) readUpload(c *gin.Context, field string) (*media.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return readFileHeader(header)
}

func readFileHeader(header *multipart.FileHeader) (*media.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &media.Upload{Filename: header.Filename, Data: data}, nil
}

func principalOrAbort(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return model.Principal{}, false
	}
	return principal, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse(fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return id, true
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
