package user

import (
	"net/http"
	"strconv"

	midsec "PulseChat/middleware/security"
	usersvc "PulseChat/module/user/service"
	"PulseChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// Handler exposes the account endpoints over gin.
type Handler struct {
	svc *usersvc.UserService
}

func NewHandler(svc *usersvc.UserService) *Handler {
	return &Handler{svc: svc}
}

func fail(c *gin.Context, status int, err error) {
	var ce *errs.CodeError
	if errs.As(err, &ce) {
		c.JSON(status, ce)
		return
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var in usersvc.RegisterParams
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		status := http.StatusBadRequest
		if errs.ErrRecordExists.Is(err) {
			status = http.StatusConflict
		}
		fail(c, status, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /auth/login — username field also accepts an email address.
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, pair, err := h.svc.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		fail(c, http.StatusUnauthorized, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"user":          u,
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var in refreshReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// GET /users/me
func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// GET /users/:id
func (h *Handler) Get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, u.Public())
}

// GET /users/username/:name
func (h *Handler) GetByUsername(c *gin.Context) {
	u, err := h.svc.GetByUsername(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, u.Public())
}

// GET /users/search?query=&limit=
func (h *Handler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	users, err := h.svc.Search(c.Request.Context(), c.Query("query"), limit)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	out := make([]any, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	c.JSON(http.StatusOK, out)
}

// PUT /users/:id — self only.
func (h *Handler) Update(c *gin.Context) {
	if c.Param("id") != midsec.UserID(c) {
		fail(c, http.StatusForbidden, errs.ErrForbidden.Wrap())
		return
	}
	var in usersvc.UpdateParams
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /users/:id — self only, soft deactivate.
func (h *Handler) Deactivate(c *gin.Context) {
	if c.Param("id") != midsec.UserID(c) {
		fail(c, http.StatusForbidden, errs.ErrForbidden.Wrap())
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, http.StatusNotFound, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}
