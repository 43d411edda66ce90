package scores

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/respond"
)

// Handler exposes score rows read-only.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches score routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/scores", h.latest)
	rg.GET("/documents/:id/scores/history", h.history)
}

func (h *Handler) latest(c *gin.Context) {
	items, err := h.Repo.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch scores", nil)
		return
	}
	if items == nil {
		items = []ComplianceScore{}
	}
	respond.JSON(c, http.StatusOK, items)
}

func (h *Handler) history(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := h.Repo.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch score history", nil)
		return
	}
	if items == nil {
		items = []ComplianceScore{}
	}
	respond.JSON(c, http.StatusOK, items)
}
