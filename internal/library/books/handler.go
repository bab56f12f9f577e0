package books

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, secret []byte) {
	h := &Handler{svc: svc}

	// Catalogue; projection depends on who is asking.
	r.GET("/library/books", auth.OptionalAuth(secret), h.List)
	r.GET("/library/books/manager", auth.RequireAuth(secret), auth.RequireManager(), h.ListAsManager)
	r.GET("/library/books/search", auth.OptionalAuth(secret), h.Search)
	r.GET("/library/books/search/manager", auth.RequireAuth(secret), auth.RequireManager(), h.SearchAsManager)
	r.GET("/library/books/id/:id", auth.OptionalAuth(secret), h.Get)

	// Inventory mutations.
	r.POST("/library/books", auth.RequireAuth(secret), auth.RequireRole(auth.RoleProprietor), h.Create)
	r.PATCH("/library/books/details", auth.RequireAuth(secret), auth.RequireManager(), h.EditDetails)
	r.PATCH("/library/books/quantity", auth.RequireAuth(secret), auth.RequireRole(auth.RoleProprietor), h.EditQuantity)
	r.DELETE("/library/books/:id", auth.RequireAuth(secret), auth.RequireManager(), h.Delete)
}

func viewerFrom(c *gin.Context) Viewer {
	if role, ok := auth.CallerRole(c); ok {
		return ViewerFor(role)
	}
	return AnonymousViewer()
}

// bindStrictJSON decodes with unknown fields disallowed, so a quantity field
// smuggled into a details patch is an error rather than a silent no-op.
func bindStrictJSON(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ---------- handlers ----------

func (h *Handler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), viewerFrom(c))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) ListAsManager(c *gin.Context) {
	h.List(c)
}

func (h *Handler) Search(c *gin.Context) {
	views, err := h.svc.Search(c.Request.Context(), viewerFrom(c), c.Query("query"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) SearchAsManager(c *gin.Context) {
	h.Search(c)
}

func (h *Handler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), viewerFrom(c), c.Param("id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	proprietorID, _ := auth.CallerID(c)
	view, err := h.svc.Create(c.Request.Context(), proprietorID, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/library/books/id/"+view.ID)
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) EditDetails(c *gin.Context) {
	var req EditBookDetailsRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or unknown field"))
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "id is required"))
		return
	}

	if err := h.svc.EditDetails(c.Request.Context(), req); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "book details updated"})
}

func (h *Handler) EditQuantity(c *gin.Context) {
	var req EditBookQuantityRequest
	if err := bindStrictJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or unknown field"))
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "id is required"))
		return
	}

	if err := h.svc.EditQuantities(c.Request.Context(), req); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "book quantity updated"})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "book deleted"})
}

// ---------- error body ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	code := CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errorBody(code, msg)
}
