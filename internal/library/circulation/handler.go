package circulation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JosephAyo/bibliotheque-e-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, secret []byte) {
	h := &Handler{svc: svc}

	// Borrower circulation. The original API hangs these off the books
	// prefix; kept for client compatibility.
	r.PUT("/library/books/borrower", auth.RequireAuth(secret), auth.RequireRole(auth.RoleBorrower), h.CheckOut)
	r.PATCH("/library/books/borrower", auth.RequireAuth(secret), auth.RequireRole(auth.RoleBorrower), h.CheckIn)
	r.GET("/library/books/borrower", auth.RequireAuth(secret), auth.RequireRole(auth.RoleBorrower), h.ListOwn)
	r.GET("/library/books/borrower/reminders", auth.RequireAuth(secret), auth.RequireRole(auth.RoleBorrower), h.ReminderFlags)

	// Librarian oversight.
	r.GET("/library/books/borrower/manager", auth.RequireAuth(secret), auth.RequireRole(auth.RoleLibrarian), h.ListAll)
}

func (h *Handler) CheckOut(c *gin.Context) {
	var req CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	borrowerID, _ := auth.CallerID(c)
	resp, err := h.svc.CheckOut(c.Request.Context(), borrowerID, req.BookID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	borrowerID, _ := auth.CallerID(c)
	resp, err := h.svc.CheckIn(c.Request.Context(), borrowerID, req.ID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListOwn(c *gin.Context) {
	borrowerID, _ := auth.CallerID(c)
	resp, err := h.svc.ListForBorrower(c.Request.Context(), borrowerID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListAll(c *gin.Context) {
	filter, ok := ParseListFilter(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "status must be one of ALL, DUE_SOON, LATE"))
		return
	}

	resp, err := h.svc.ListAll(c.Request.Context(), filter)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ReminderFlags(c *gin.Context) {
	borrowerID, _ := auth.CallerID(c)
	resp, err := h.svc.ReminderFlags(c.Request.Context(), borrowerID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, resp)
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
