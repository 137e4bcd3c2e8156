package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adilzhan/auth-core/internal/auth"
	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/repo"
	"github.com/adilzhan/auth-core/internal/security"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Auth    *auth.Service
	Tokens  *security.TokenService
	Keys    *security.KeyManager
	Limiter *repo.RateLimiter
	Health  []Pinger
}

func NewHandler(svc *auth.Service, tokens *security.TokenService, keys *security.KeyManager,
	limiter *repo.RateLimiter, health ...Pinger) *Handler {
	return &Handler{Auth: svc, Tokens: tokens, Keys: keys, Limiter: limiter, Health: health}
}

func (h *Handler) metadata(c *gin.Context) auth.Metadata {
	return auth.Metadata{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: c.ClientIP(),
	}
}

func (h *Handler) allow(c *gin.Context, bucket string) bool {
	if h.Limiter == nil {
		return true
	}
	return h.Limiter.Allow(c.Request.Context(), bucket+":"+c.ClientIP())
}

type registerReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// Register godoc
// @Summary Register with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "registration"
// @Success 201 {object} ApiResponse
// @Failure 400 {object} ApiError
// @Failure 409 {object} ApiError
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	if !h.allow(c, "register") {
		fail(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, slow down")
		return
	}
	var in registerReq
	if !bindJSON(c, &in) {
		return
	}
	resp, err := h.Auth.Register(c.Request.Context(), in.Email, in.Password, in.Name, h.metadata(c))
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, resp)
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "credentials"
// @Success 200 {object} ApiResponse
// @Failure 401 {object} ApiError
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	if !h.allow(c, "login") {
		fail(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, slow down")
		return
	}
	var in loginReq
	if !bindJSON(c, &in) {
		return
	}
	resp, err := h.Auth.Login(c.Request.Context(), in.Email, in.Password, h.metadata(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, resp)
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh godoc
// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body refreshReq true "refresh token"
// @Success 200 {object} ApiResponse
// @Failure 401 {object} ApiError
// @Router /api/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var in refreshReq
	if !bindJSON(c, &in) {
		return
	}
	resp, err := h.Auth.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, resp)
}

// OAuthURL godoc
// @Summary Start an OAuth login flow
// @Tags oauth
// @Produce json
// @Param provider path string true "google|facebook|twitter"
// @Success 200 {object} ApiResponse
// @Failure 404 {object} ApiError
// @Router /api/auth/oauth/{provider}/url [get]
func (h *Handler) OAuthURL(c *gin.Context) {
	provider := domain.OAuthProvider(c.Param("provider"))
	if !provider.Valid() {
		fail(c, http.StatusNotFound, "NOT_FOUND", "unknown provider")
		return
	}
	resp, err := h.Auth.OAuthURL(c.Request.Context(), provider)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, resp)
}

// OAuthCallback godoc
// @Summary Complete an OAuth login flow
// @Tags oauth
// @Produce json
// @Param provider path string true "google|facebook|twitter"
// @Param code query string true "authorization code"
// @Param state query string true "anti-forgery state"
// @Success 200 {object} ApiResponse
// @Failure 400 {object} ApiError
// @Router /api/auth/oauth/{provider}/callback [get]
func (h *Handler) OAuthCallback(c *gin.Context) {
	provider := domain.OAuthProvider(c.Param("provider"))
	if !provider.Valid() {
		fail(c, http.StatusNotFound, "NOT_FOUND", "unknown provider")
		return
	}
	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "code and state are required")
		return
	}
	resp, err := h.Auth.LoginWithOAuth(c.Request.Context(), provider, code, state, h.metadata(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, resp)
}

type logoutReq struct {
	SessionID string `json:"sessionId"`
}

// Logout godoc
// @Summary End the current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ApiResponse
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	claims := claimsFrom(c)

	var in logoutReq
	_ = c.ShouldBindJSON(&in)
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = claims.SessionID
	}
	if err := h.Auth.Logout(c.Request.Context(), claims.Subject, sessionID); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ApiResponse{Success: true, Message: "logged out"})
}

// LogoutAll godoc
// @Summary End every session for the current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ApiResponse
// @Router /api/auth/logout-all [post]
func (h *Handler) LogoutAll(c *gin.Context) {
	claims := claimsFrom(c)
	if err := h.Auth.LogoutAll(c.Request.Context(), claims.Subject); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ApiResponse{Success: true, Message: "all sessions revoked"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ApiResponse
// @Failure 401 {object} ApiError
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	claims := claimsFrom(c)
	u, err := h.Auth.User(c.Request.Context(), claims.Subject)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, u)
}

// Sessions godoc
// @Summary List the current user's active sessions
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Param page query int false "page, 1-based"
// @Param limit query int false "page size"
// @Success 200 {object} PaginatedResponse
// @Router /api/auth/sessions [get]
func (h *Handler) Sessions(c *gin.Context) {
	claims := claimsFrom(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, total, err := h.Auth.Sessions(c.Request.Context(), claims.Subject, page, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	paginated(c, sessions, page, limit, total)
}

// JWKS serves the RS256 public keys; 404 when running on HS256 only.
func (h *Handler) JWKS(c *gin.Context) {
	if h.Keys == nil {
		fail(c, http.StatusNotFound, "NOT_FOUND", "jwks not enabled")
		return
	}
	c.JSON(http.StatusOK, h.Keys.JWKS())
}

func (h *Handler) Healthz(c *gin.Context) {
	for _, p := range h.Health {
		if p == nil {
			continue
		}
		if err := p.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
