package findings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the finding service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches finding routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/findings", h.listByDocument)
	rg.GET("/findings/:id", h.get)
	rg.POST("/findings/:id/feedback", h.feedback)
}

func (h *Handler) listByDocument(c *gin.Context) {
	filter := Filter{
		Framework: c.Query("framework"),
		Severity:  c.Query("severity"),
	}
	if filter.Severity != "" && !ValidSeverity(filter.Severity) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown severity", nil)
		return
	}

	items, err := h.Svc.ListByDocument(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list findings", nil)
		}
		return
	}
	if items == nil {
		items = []Finding{}
	}
	respond.JSON(c, http.StatusOK, items)
}

func (h *Handler) get(c *gin.Context) {
	finding, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "finding not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch finding", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, finding)
}

type feedbackRequest struct {
	Feedback    string `json:"feedback"`
	ActionTaken string `json:"actionTaken"`
}

func (h *Handler) feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	err := h.Svc.AttachFeedback(c.Request.Context(), c.Param("id"), req.Feedback, req.ActionTaken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "feedback must be accepted, rejected, or false_positive", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "finding not found", nil)
		case errors.Is(err, ErrAlreadyResolved):
			respond.Error(c, http.StatusConflict, "already_resolved", "finding already has feedback", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record feedback", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"findingId": c.Param("id"), "feedback": req.Feedback})
}
