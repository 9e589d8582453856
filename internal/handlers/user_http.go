package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"example.com/storefront/internal/model"
	"example.com/storefront/internal/service"
)

type UserHTTP struct {
	S   service.AuthService
	Log *zap.Logger
	// SecureCookie marks the session cookie HTTPS-only.
	SecureCookie bool
	// CookieMaxAge is the session cookie lifetime in seconds.
	CookieMaxAge int
}

func NewUserHTTP(s service.AuthService, log *zap.Logger) *UserHTTP {
	return &UserHTTP{S: s, Log: log, CookieMaxAge: 3600}
}

type registerReq struct {
	UserName string `json:"userName"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateUserReq struct {
	UserName string `json:"userName"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type userView struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

func viewOf(u model.User) userView {
	return userView{ID: u.ID, UserName: u.UserName, Email: u.Email}
}

// bindMessage turns a binding failure into the message the storefront shows.
func bindMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if fe.Field() == "Email" && fe.Tag() == "email" {
				return "Invalid email format"
			}
		}
		return ve[0].Field() + " is required"
	}
	return "Invalid request body"
}

func (h *UserHTTP) userError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		fail(c, http.StatusBadRequest, "This email already registered")
	case errors.Is(err, service.ErrInvalidEmail):
		fail(c, http.StatusBadRequest, "Invalid email format")
	case errors.Is(err, service.ErrEmptyPassword):
		fail(c, http.StatusBadRequest, "Password is required")
	case errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrBadPassword):
		fail(c, http.StatusUnauthorized, "Invalid password")
	default:
		serverError(c, h.Log, msg, err)
	}
}

func (h *UserHTTP) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindMessage(err))
		return
	}
	u, err := h.S.Register(c.Request.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		h.userError(c, "Failed to create a new user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": viewOf(u)})
}

func (h *UserHTTP) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindMessage(err))
		return
	}
	tok, u, err := h.S.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.userError(c, "Failed to login", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, tok, h.CookieMaxAge, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "User Logged in", "token": tok, "user": viewOf(u)})
}

func (h *UserHTTP) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.SecureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *UserHTTP) Me(c *gin.Context) {
	u, err := h.S.GetUser(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.userError(c, "Something went wrong", err)
		return
	}
	c.JSON(http.StatusOK, viewOf(u))
}

func (h *UserHTTP) GetAll(c *gin.Context) {
	us, err := h.S.ListUsers(c.Request.Context())
	if err != nil {
		serverError(c, h.Log, "Something went wrong", err)
		return
	}
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, viewOf(u))
	}
	c.JSON(http.StatusOK, out)
}

func (h *UserHTTP) GetUser(c *gin.Context) {
	u, err := h.S.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.userError(c, "Something went wrong", err)
		return
	}
	c.JSON(http.StatusOK, viewOf(u))
}

func (h *UserHTTP) Update(c *gin.Context) {
	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, bindMessage(err))
		return
	}
	u, err := h.S.UpdateUser(c.Request.Context(), c.Param("id"), req.UserName, req.Email)
	if err != nil {
		h.userError(c, "Something went wrong", err)
		return
	}
	c.JSON(http.StatusOK, viewOf(u))
}

func (h *UserHTTP) Delete(c *gin.Context) {
	if err := h.S.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.userError(c, "Something went wrong", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
