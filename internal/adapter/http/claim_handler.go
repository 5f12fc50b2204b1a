package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	ucClaim "cmcs-backend/internal/usecase/claim"
)

type ClaimHandler struct {
	uc  *ucClaim.Usecase
	log *zap.Logger
}

func NewClaimHandler(uc *ucClaim.Usecase, log *zap.Logger) *ClaimHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClaimHandler{uc: uc, log: log}
}

// Rate and lecturer name are never taken from the request.
type submitClaimReq struct {
	HoursWorked float64 `form:"hours_worked" json:"hours_worked" validate:"required,dec2"`
	Notes       string  `form:"notes"        json:"notes"        validate:"max=200"`
}

type listClaimsReq struct {
	Status  string `query:"status"`
	OwnerID string `query:"owner_id" validate:"omitempty,hex32"`
}

const documentField = "supporting_document"

func (h *ClaimHandler) SubmitClaim(c echo.Context) error {
	var req submitClaimReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	in := ucClaim.SubmitInput{HoursWorked: req.HoursWorked, Notes: req.Notes}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(documentField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return badRequest(c, "invalid "+documentField)
		case fh.Size == 0:
			// empty part: no document picked
		default:
			f, err := fh.Open()
			if err != nil {
				return badRequest(c, "invalid "+documentField)
			}
			defer f.Close()
			in.File = &ucClaim.Upload{FileName: fh.Filename, Reader: f}
		}
	}

	dto, err := h.uc.Submit(c.Request().Context(), principalFrom(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ClaimHandler) ListClaims(c echo.Context) error {
	var req listClaimsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), principalFrom(c), ucClaim.ListFilter{Status: req.Status, OwnerID: req.OwnerID})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"claims": out, "count": len(out)})
}

func (h *ClaimHandler) GetClaim(c echo.Context) error {
	claimID := c.Param("claim_id")
	if claimID == "" {
		return badRequest(c, "missing claim_id path param")
	}
	dto, err := h.uc.Get(c.Request().Context(), principalFrom(c), claimID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ClaimHandler) ApproveClaim(c echo.Context) error {
	claimID := c.Param("claim_id")
	if claimID == "" {
		return badRequest(c, "missing claim_id path param")
	}
	dto, err := h.uc.Approve(c.Request().Context(), principalFrom(c), claimID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ClaimHandler) RejectClaim(c echo.Context) error {
	claimID := c.Param("claim_id")
	if claimID == "" {
		return badRequest(c, "missing claim_id path param")
	}
	dto, err := h.uc.Reject(c.Request().Context(), principalFrom(c), claimID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ClaimHandler) DeleteClaim(c echo.Context) error {
	claimID := c.Param("claim_id")
	if claimID == "" {
		return badRequest(c, "missing claim_id path param")
	}
	if err := h.uc.Delete(c.Request().Context(), principalFrom(c), claimID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetDocument streams the decrypted supporting document. disposition is
// inline (default) or attachment.
func (h *ClaimHandler) GetDocument(c echo.Context) error {
	claimID := c.Param("claim_id")
	if claimID == "" {
		return badRequest(c, "missing claim_id path param")
	}
	disposition := strings.ToLower(c.QueryParam("disposition"))
	switch disposition {
	case "":
		disposition = "inline"
	case "inline", "attachment":
	default:
		return badRequest(c, "disposition must be inline or attachment")
	}

	f, err := h.uc.FetchDocument(c.Request().Context(), principalFrom(c), claimID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(disposition, f.FileName))
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, f.ContentType, f.Reader)
}
