package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cmcs-backend/internal/domain/access"
	"cmcs-backend/internal/domain/claim"
	"cmcs-backend/internal/domain/document"
	"cmcs-backend/internal/usecase/report"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, claim.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, document.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, document.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, access.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, claim.ErrNotFound), errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, claim.ErrInvalidTransition),
		errors.Is(err, claim.ErrStatusConflict),
		errors.Is(err, report.ErrNotApproved):
		return http.StatusConflict
	case errors.Is(err, document.ErrDecryption), errors.Is(err, report.ErrGenerateExport):
		return http.StatusInternalServerError
	case errors.Is(err, claim.ErrStorage), errors.Is(err, document.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func writeError(c echo.Context, log *zap.Logger, err error) error {
	code := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var ve *claim.ValidationError
	if errors.As(err, &ve) {
		resp.Error = "validation failed"
		for _, f := range ve.Fields {
			resp.Details = append(resp.Details, FieldError{Field: f.Field, Message: f.Message})
		}
	}
	if code >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Int("status", code),
			zap.Error(err))
	}
	// storage details stay in the log
	if code == http.StatusServiceUnavailable {
		resp.Error = http.StatusText(code)
	}
	return c.JSON(code, resp)
}
