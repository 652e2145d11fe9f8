package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// dashboardHandler godoc
// @Summary Unit dashboard
// @Description Per-pilot currency overview: minutes flown, next due date and flying state
// @Tags dashboard
// @Produce json
// @Success 200 {array} services.DashboardEntry
// @Router /dashboard [get]
func (s *Server) dashboardHandler(c *gin.Context) {
	entries, err := s.services.Dashboard.Entries(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) dashboardEntryHandler(c *gin.Context) {
	pilotID, ok := pathID(c, "pilotID")
	if !ok {
		return
	}
	entry, err := s.services.Dashboard.Entry(c.Request.Context(), pilotID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
