package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aq2208/stockroom-api/internal/logging"
	"github.com/aq2208/stockroom-api/internal/security"
)

type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type TokenHandler struct {
	cfg   TokenConfig
	users *security.UserStore
	now   func() time.Time
}

func NewTokenHandler(cfg TokenConfig, users *security.UserStore) *TokenHandler {
	return &TokenHandler{cfg: cfg, users: users, now: time.Now}
}

type tokenReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// POST /v1/token (form or JSON)
// Accepts: email, password of a dashboard user.
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	u, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		logging.From(c).Warn("login rejected", "email", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := h.now()
	claims := jwt.MapClaims{
		"iss":   h.cfg.Issuer,
		"aud":   h.cfg.Audience,
		"sub":   u.Email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(h.cfg.TTL).Unix(),
		"name":  u.FullName,
		"role":  u.Role,
		"perms": u.Perms,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Secret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int(h.cfg.TTL.Seconds()),
		"role":         u.Role,
	})
}
