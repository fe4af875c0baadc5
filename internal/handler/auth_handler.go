package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/study-assistant/internal/middleware"
	"github.com/study-assistant/internal/service"
	"github.com/study-assistant/internal/session"
	"github.com/study-assistant/pkg/response"
)

// AuthHandler handles authentication API requests
type AuthHandler struct {
	authService *service.AuthService
	sessions    *session.Manager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
	}
}

// currentOrNewSession returns the session resolved by the middleware, or
// begins a fresh anonymous one. The token is non-empty only for a fresh
// session; clients must carry it on subsequent requests. Fresh sessions are
// persisted by the service only when the operation succeeds.
func (h *AuthHandler) currentOrNewSession(c *gin.Context) (*session.Session, string, error) {
	if sess := middleware.GetSession(c); sess != nil {
		return sess, "", nil
	}
	return h.sessions.Begin()
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sess, token, err := h.currentOrNewSession(c)
	if err != nil {
		response.InternalError(c, "failed to create session")
		return
	}

	if err := h.authService.Login(c.Request.Context(), sess, &req); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		if errors.Is(err, session.ErrInvalidTransition) {
			response.BadRequest(c, "already logged in")
			return
		}
		response.InternalError(c, "failed to login")
		return
	}

	data := gin.H{"username": sess.Username}
	if token != "" {
		data["session_token"] = token
	}
	response.Success(c, data)
}

// StartRegistration sends a one-time code to the given email address
// POST /api/v1/auth/register/otp
func (h *AuthHandler) StartRegistration(c *gin.Context) {
	var req service.StartRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sess, token, err := h.currentOrNewSession(c)
	if err != nil {
		response.InternalError(c, "failed to create session")
		return
	}

	if err := h.authService.StartRegistration(c.Request.Context(), sess, &req); err != nil {
		if errors.Is(err, service.ErrEmailDelivery) {
			response.BadGateway(c, "failed to send verification email")
			return
		}
		if errors.Is(err, session.ErrInvalidTransition) {
			response.BadRequest(c, "already logged in")
			return
		}
		response.InternalError(c, "failed to start registration")
		return
	}

	data := gin.H{"otp_sent": true}
	if token != "" {
		data["session_token"] = token
	}
	response.Success(c, data)
}

// CompleteRegistration verifies the candidate code and creates the account
// POST /api/v1/auth/register/verify
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sess := middleware.GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "missing or invalid session")
		return
	}

	user, err := h.authService.CompleteRegistration(c.Request.Context(), sess, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOTP) {
			response.BadRequest(c, "invalid or expired code")
			return
		}
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Conflict(c, "username already taken")
			return
		}
		response.InternalError(c, "failed to complete registration")
		return
	}

	response.Created(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Logout handles user logout
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Unauthorized(c, "missing or invalid session")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), sess); err != nil {
		response.InternalError(c, "failed to logout")
		return
	}
	response.Success(c, nil)
}

// Me reports the session state
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Success(c, gin.H{"state": session.StateAnonymous})
		return
	}

	data := gin.H{"state": sess.State}
	if sess.Username != "" {
		data["username"] = sess.Username
	}
	response.Success(c, data)
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, sessionMiddleware gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.Use(sessionMiddleware)
	{
		auth.POST("/login", h.Login)
		auth.POST("/register/otp", h.StartRegistration)
		auth.POST("/register/verify", h.CompleteRegistration)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}
}
