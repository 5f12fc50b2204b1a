package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	ucClaim "cmcs-backend/internal/usecase/claim"
	ucDocument "cmcs-backend/internal/usecase/document"
	"cmcs-backend/internal/usecase/report"
)

type ReportHandler struct {
	reports *report.Usecase
	claims  *ucClaim.Usecase
	log     *zap.Logger
}

func NewReportHandler(reports *report.Usecase, claims *ucClaim.Usecase, log *zap.Logger) *ReportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportHandler{reports: reports, claims: claims, log: log}
}

func (h *ReportHandler) Stats(c echo.Context) error {
	out, err := h.claims.Stats(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) ClaimReport(c echo.Context) error {
	claimID := c.Param("claim_id")
	if claimID == "" {
		return badRequest(c, "missing claim_id path param")
	}
	out, err := h.reports.ClaimReport(c.Request().Context(), principalFrom(c), claimID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) ExportApproved(c echo.Context) error {
	buf, name, err := h.reports.ExportApproved(c.Request().Context(), principalFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition("attachment", name))
	return c.Blob(http.StatusOK, ucDocument.MIMEXlsx, buf.Bytes())
}
