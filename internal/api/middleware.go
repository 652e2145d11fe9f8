package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/skyhook-org/dronelog/internal/models"
	"github.com/skyhook-org/dronelog/pkg/metrics"
)

const (
	userContextKey     = "user"
	rememberCookieName = "remember_token"
	requestIDHeader    = "X-Request-ID"
)

// authMiddleware resolves the caller from a JWT bearer token, falling back to
// the remember-me cookie. The resolved user is loaded fresh from the database
// on every request so deactivations take effect immediately.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}

			user, err := s.userFromJWT(c, parts[1])
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				c.Abort()
				return
			}
			c.Set(userContextKey, user)
			c.Next()
			return
		}

		cookie, err := c.Cookie(rememberCookieName)
		if err == nil && cookie != "" {
			user, err := s.authService.ValidateRememberToken(c.Request.Context(), cookie)
			if err == nil {
				c.Set(userContextKey, user)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		c.Abort()
	}
}

func (s *Server) userFromJWT(c *gin.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	var user models.User
	if err := s.db.DB().WithContext(c.Request.Context()).First(&user, uint(userID)).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// adminMiddleware gates routes to administrators. It must run after
// authMiddleware.
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := getUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Administrator access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// idempotencyMiddleware replays mutating requests that repeat a recent
// X-Request-ID instead of executing them twice. Requests without the header
// pass through untouched.
func (s *Server) idempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		entry, err := s.services.Idempotency.Lookup(ctx, requestID)
		if err != nil {
			s.logger.Error().Err(err).Str("request_id", requestID).Msg("Idempotency lookup failed")
			c.Next()
			return
		}
		if entry != nil {
			metrics.IdempotentReplays.Inc()
			s.logger.Info().
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Msg("Replaying cached response")
			c.Header(requestIDHeader, requestID)
			c.Data(entry.StatusCode, "application/json", entry.Response)
			c.Abort()
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		// 5xx responses are not cached so the client can retry the operation.
		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		err = s.services.Idempotency.Record(ctx, requestID, c.Request.Method, c.Request.URL.Path, status, recorder.body.Bytes())
		if err != nil {
			s.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to record response")
		}
	}
}

// metricsMiddleware feeds the HTTP latency histogram. The route template is
// used instead of the raw path to keep label cardinality bounded.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func getUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}

	u, ok := user.(*models.User)
	return u, ok
}
