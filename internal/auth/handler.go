package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/authgate/internal/apperrors"
	"github.com/skillsenselab/authgate/internal/server"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "token"

// CookieConfig controls how the session cookie is delivered.
type CookieConfig struct {
	// MaxAge is the cookie lifetime; keep it aligned with the token TTL.
	MaxAge time.Duration
	// Secure marks the cookie HTTPS-only. Enable outside local development.
	Secure bool
}

// Handler exposes the auth flows over HTTP.
type Handler struct {
	svc    *Service
	cookie CookieConfig
}

// NewHandler creates the HTTP handler for the auth service.
func NewHandler(svc *Service, cookie CookieConfig) *Handler {
	return &Handler{svc: svc, cookie: cookie}
}

// RegisterRoutes mounts the auth endpoints on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.GET("/verify", h.Verify)
	r.POST("/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON").WithCause(err))
		return
	}

	authID, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	server.RespondOK(c, gin.H{
		"message": "User created successfully",
		"auth_id": authID,
	})
}

// Login handles POST /login. On success the session token is delivered as
// an HttpOnly cookie so scripts on the caller's page cannot read it.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("request body must be valid JSON").WithCause(err))
		return
	}

	profile, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.cookie.MaxAge.Seconds()))
	server.RespondOK(c, gin.H{
		"message": "Login successful",
		"user":    profile,
	})
}

// Verify handles GET /verify. Every rejection carries valid:false so
// clients can branch on a single field.
func (h *Handler) Verify(c *gin.Context) {
	token, err := c.Cookie(SessionCookieName)
	if err != nil || token == "" {
		h.respondVerifyError(c, apperrors.Unauthorized("No token provided"))
		return
	}

	profile, err := h.svc.Verify(c.Request.Context(), token)
	if err != nil {
		h.respondVerifyError(c, err)
		return
	}

	server.RespondOK(c, gin.H{
		"valid": true,
		"user":  profile,
	})
}

// Logout handles POST /logout. Sessions are stateless, so the only action
// is instructing the caller to discard its cookie.
func (h *Handler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	server.RespondOK(c, gin.H{
		"message": "Logged out successfully",
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *Handler) respondVerifyError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	c.JSON(appErr.HTTPStatus, gin.H{
		"valid": false,
		"error": appErr.ToResponse().Error,
	})
}
