package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skyhook-org/dronelog/internal/utils"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps the service error taxonomy onto HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case utils.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case utils.IsConflictError(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// pathID parses a numeric path parameter. A second return of false means the
// 400 response has already been written.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
