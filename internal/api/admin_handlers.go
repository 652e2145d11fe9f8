package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skyhook-org/dronelog/pkg/metrics"
)

// listMigrationsHandler godoc
// @Summary List schema migrations
// @Description Every known migration unit with its executed/pending state, newest first
// @Tags admin
// @Produce json
// @Success 200 {array} database.Status
// @Router /admin/migrations [get]
func (s *Server) listMigrationsHandler(c *gin.Context) {
	statuses, err := s.migrations.Status()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// runMigrationHandler godoc
// @Summary Run a schema migration
// @Description Apply a single named migration unit. Re-running an applied unit is a no-op.
// @Tags admin
// @Produce json
// @Param name path string true "Migration unit name, e.g. 002_battery_number_default_one"
// @Success 200 {object} database.RunResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/migrations/{name}/run [post]
func (s *Server) runMigrationHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	name := c.Param("name")
	result, err := s.migrations.Run(c.Request.Context(), name, user.Email)
	if err != nil {
		metrics.MigrationRuns.WithLabelValues("failed").Inc()
		s.respondError(c, err)
		return
	}

	if result.AlreadyExecuted {
		metrics.MigrationRuns.WithLabelValues("skipped").Inc()
	} else {
		metrics.MigrationRuns.WithLabelValues("applied").Inc()
	}
	c.JSON(http.StatusOK, result)
}
