package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wome-online/server/audit"
	"github.com/wome-online/server/cache"
	"github.com/wome-online/server/config"
	"github.com/wome-online/server/game/account"
	mw "github.com/wome-online/server/middleware"
)

// AuthHandler handles registration and session REST endpoints.
type AuthHandler struct {
	accounts *account.Service
	cache    cache.Cache
	sec      config.SecurityConfig
	audit    *audit.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *account.Service, c cache.Cache, sec config.SecurityConfig, aud *audit.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts, cache: c, sec: sec, audit: aud}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.accounts.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &acc.ID,
		Action:    audit.ActionRegister,
		Detail:    gin.H{"username": acc.Username},
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusCreated, gin.H{"account_id": acc.ID, "username": acc.Username})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}

	token, err := mw.GenerateToken(acc.ID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Set(ctx, mw.SessionKeyPrefix+token, strconv.FormatInt(acc.ID, 10), h.sec.JWTTTLH)

	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &acc.ID,
		Action:    audit.ActionLogin,
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"account_id":   acc.ID,
		"character_id": acc.CharacterID,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKeyPrefix+tokenStr)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
