package points

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/points", h.GetSummary)
}

// GetSummary godoc
// @Summary  Loyalty point balance of the caller
// @Tags     points
// @Security BearerAuth
// @Success  200 {object} SummaryResponse
// @Router   /points [get]
func (h *Handler) GetSummary(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "code": "UNAUTHENTICATED"})
		return
	}
	res, err := h.svc.Summary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
		return
	}
	c.JSON(http.StatusOK, res)
}
