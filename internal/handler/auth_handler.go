package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"grab-a-time/internal/account"
	"grab-a-time/internal/api"
	"grab-a-time/internal/auth"
	"grab-a-time/internal/middleware"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

type sessionResponse struct {
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var in account.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	sess, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.startSession(c, http.StatusCreated, sess)
}

func (h *Handler) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.startSession(c, http.StatusOK, sess)
}

// refresh reads the refresh token from its cookie and rotates it.
func (h *Handler) refresh(c *gin.Context) {
	raw, _ := c.Cookie(refreshCookie)
	sess, err := h.accounts.Refresh(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.startSession(c, http.StatusOK, sess)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.OwnerID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshCookie, "", -1, "/owner/refresh", "", false, true)
	c.JSON(http.StatusOK, api.Success(gin.H{"logged_out": true}))
}

func (h *Handler) startSession(c *gin.Context, code int, sess *account.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, sess.AccessToken, int(auth.AccessTTL/time.Second), "/", "", false, true)
	c.SetCookie(refreshCookie, sess.RefreshToken, int(time.Until(sess.RefreshUntil)/time.Second), "/owner/refresh", "", false, true)
	c.JSON(code, api.Success(sessionResponse{
		OwnerID:     sess.Owner.ID,
		Name:        sess.Owner.Name,
		AccessToken: sess.AccessToken,
	}))
}
