package alerts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the alert service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches alert routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/alerts", h.list)
	rg.POST("/alerts/:id/acknowledge", h.acknowledge)
}

func (h *Handler) list(c *gin.Context) {
	filter := Filter{
		DocumentID: c.Query("documentId"),
		Status:     c.Query("status"),
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown alert status", nil)
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), filter, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list alerts", nil)
		return
	}
	if items == nil {
		items = []Alert{}
	}
	respond.JSON(c, http.StatusOK, items)
}

func (h *Handler) acknowledge(c *gin.Context) {
	alert, err := h.Svc.Acknowledge(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "alert not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to acknowledge alert", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, alert)
}
