package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email" example:"user@example.com"`
	Password   string `json:"password" binding:"required" example:"password123"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
}

// loginHandler godoc
// @Summary Login
// @Description Authenticate and get a JWT token, optionally with a remember-me cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (s *Server) loginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := s.authService.Authenticate(ctx, req.Email, req.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many failed login attempts, try again later"})
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		s.respondError(c, err)
		return
	}

	expiresAt := time.Now().Add(s.config.JWT.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWT.Secret))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate JWT token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate token"})
		return
	}

	if req.RememberMe {
		raw, rememberExpiry, err := s.authService.CreateRememberToken(ctx, user.ID)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to create remember token")
		} else {
			maxAge := int(time.Until(rememberExpiry).Seconds())
			c.SetCookie(rememberCookieName, raw, maxAge, "/", "", false, true)
		}
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User: UserInfo{
			ID:      user.ID,
			Email:   user.Email,
			IsAdmin: user.IsAdmin,
		},
	})
}

// logoutHandler godoc
// @Summary Logout
// @Description Revoke the remember-me cookie, if present
// @Tags auth
// @Produce json
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logoutHandler(c *gin.Context) {
	cookie, err := c.Cookie(rememberCookieName)
	if err == nil && cookie != "" {
		if err := s.authService.RevokeRememberToken(c.Request.Context(), cookie); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to revoke remember token")
		}
		c.SetCookie(rememberCookieName, "", -1, "/", "", false, true)
	}
	c.Status(http.StatusNoContent)
}

// meHandler godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} UserInfo
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (s *Server) meHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}
	c.JSON(http.StatusOK, UserInfo{
		ID:      user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}

// createUserHandler godoc
// @Summary Create user
// @Description Register a user account. Administrators only.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User details"
// @Success 201 {object} UserInfo
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/users [post]
func (s *Server) createUserHandler(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := s.authService.CreateUser(c.Request.Context(), req.Email, req.Password, req.IsAdmin)
	if err != nil {
		if err.Error() == "email already exists" {
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, UserInfo{
		ID:      user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}
