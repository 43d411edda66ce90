package orchestrator

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/documents"
	"compliance-backend/internal/shared/server/respond"
)

// Handler exposes the analysis entrypoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/analyze", h.analyze)
}

type analyzeRequest struct {
	Frameworks []string `json:"frameworks"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	c.Set("documentId", c.Param("id"))
	report, err := h.Svc.Analyze(c.Request.Context(), c.Param("id"), req.Frameworks)
	if err != nil {
		var cfgErr ConfigurationError
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.As(err, &cfgErr):
			respond.Error(c, http.StatusBadRequest, "configuration_error", cfgErr.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis failed to start", nil)
		}
		return
	}
	c.Set("runId", report.RunID)
	respond.JSON(c, http.StatusOK, report)
}
