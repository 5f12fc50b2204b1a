package http

import "github.com/labstack/echo/v4"

// RegisterRoutes mounts every endpoint. idem guards the mutating claim routes
// and may be nil when no redis is configured.
func RegisterRoutes(e *echo.Echo, h *Handler, claims *ClaimHandler, reports *ReportHandler, idem echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if idem != nil {
		mw = append(mw, idem)
	}

	e.GET("/health", h.Health)

	g := e.Group("/claims")
	g.POST("", claims.SubmitClaim, mw...)
	g.GET("", claims.ListClaims)
	g.GET("/:claim_id", claims.GetClaim)
	g.POST("/:claim_id/approve", claims.ApproveClaim, mw...)
	g.POST("/:claim_id/reject", claims.RejectClaim, mw...)
	g.DELETE("/:claim_id", claims.DeleteClaim, mw...)
	g.GET("/:claim_id/document", claims.GetDocument)

	r := e.Group("/reports")
	r.GET("/stats", reports.Stats)
	r.GET("/claims/:claim_id", reports.ClaimReport)
	r.GET("/approved.xlsx", reports.ExportApproved)
}
