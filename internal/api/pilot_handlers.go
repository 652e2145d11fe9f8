package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skyhook-org/dronelog/internal/flighttime"
	"github.com/skyhook-org/dronelog/internal/services"
)

// listPilotsHandler godoc
// @Summary List pilots
// @Tags pilots
// @Produce json
// @Success 200 {array} models.Pilot
// @Router /pilots [get]
func (s *Server) listPilotsHandler(c *gin.Context) {
	pilots, err := s.services.Pilots.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pilots)
}

// createPilotHandler godoc
// @Summary Create pilot
// @Tags pilots
// @Accept json
// @Produce json
// @Param request body services.CreatePilotRequest true "Pilot details"
// @Success 201 {object} models.Pilot
// @Failure 400 {object} ErrorResponse
// @Router /pilots [post]
func (s *Server) createPilotHandler(c *gin.Context) {
	var req services.CreatePilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	pilot, err := s.services.Pilots.Create(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pilot)
}

func (s *Server) getPilotHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pilot, err := s.services.Pilots.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pilot)
}

func (s *Server) updatePilotHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	pilot, err := s.services.Pilots.Update(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pilot)
}

func (s *Server) deletePilotHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Pilots.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pilotFlightsHandler returns the pilot's flights from the trailing candidate
// window, newest first.
func (s *Server) pilotFlightsHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := s.services.Pilots.Get(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}

	since := time.Now().UTC().AddDate(0, -flighttime.CandidateWindowMonths, 0)
	flights, err := s.services.Pilots.FlightsSince(c.Request.Context(), id, since)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}
