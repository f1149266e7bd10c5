package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/competency-advisor/internal/http/response"
	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

// POST /auth/login
// body (JSON or form): { "email": "...", "password": "..." }
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" form:"email" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondServiceError(c, err, "login_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"expires_in": int(ah.authService.SessionTTL().Seconds()),
		"employee":   res.Employee,
	})
}

// POST /auth/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TokenString == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if err := ah.authService.Logout(c.Request.Context(), rd.TokenString); err != nil {
		response.RespondServiceError(c, err, "logout_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /me
func (ah *AuthHandler) Me(c *gin.Context) {
	me, err := ah.authService.GetEmployee(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err, "load_employee_failed")
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}
