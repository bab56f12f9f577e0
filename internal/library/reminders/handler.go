package reminders

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/library/circulation"
	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
)

type Handler struct{ d *Dispatcher }

func RegisterRoutes(r gin.IRoutes, d *Dispatcher, secret []byte) {
	h := &Handler{d: d}

	// One-off reminder for a single loan, librarian only.
	r.POST("/library/books/borrower/manager/:id", auth.RequireAuth(secret), auth.RequireRole(auth.RoleLibrarian), h.SendOne)
}

func (h *Handler) SendOne(c *gin.Context) {
	status, err := h.d.SendOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		var api *circulation.APIError
		if errors.As(err, &api) && api.Code == circulation.CodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": api.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if status == circulation.StatusCurrent {
		c.JSON(http.StatusOK, gin.H{"detail": "loan is not due soon or late, no reminder necessary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "reminder sent"})
}
