package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skyhook-org/dronelog/internal/services"
)

// listFlightsHandler godoc
// @Summary List flights
// @Description Flight log, newest first. Filterable by pilot, drone and state.
// @Tags flights
// @Produce json
// @Param pilot_id query int false "Filter by pilot"
// @Param drone_id query int false "Filter by drone"
// @Param in_progress query bool false "Only in-progress or only completed flights"
// @Param since query string false "RFC 3339 lower bound on the start time"
// @Success 200 {array} models.Flight
// @Router /flights [get]
func (s *Server) listFlightsHandler(c *gin.Context) {
	var filter services.ListFlightsFilter

	if raw := c.Query("pilot_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid pilot_id"})
			return
		}
		filter.PilotID = uint(id)
	}
	if raw := c.Query("drone_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid drone_id"})
			return
		}
		filter.DroneID = uint(id)
	}
	if raw := c.Query("in_progress"); raw != "" {
		inProgress, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid in_progress"})
			return
		}
		filter.InProgress = &inProgress
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since, expected RFC 3339"})
			return
		}
		filter.Since = since
	}

	flights, err := s.services.Flights.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (s *Server) getFlightHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := s.services.Flights.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

// startFlightHandler godoc
// @Summary Start flight
// @Description Open a flight for a pilot. Fails with 409 when the pilot is already flying.
// @Tags flights
// @Accept json
// @Produce json
// @Param X-Request-ID header string false "Idempotency key for retry-safe submission"
// @Param request body services.StartFlightRequest true "Flight details"
// @Success 201 {object} models.Flight
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /flights [post]
func (s *Server) startFlightHandler(c *gin.Context) {
	var req services.StartFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	flight, err := s.services.Flights.Start(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

// endFlightHandler godoc
// @Summary End flight
// @Description Close an in-progress flight. A second end attempt gets 409.
// @Tags flights
// @Produce json
// @Param id path int true "Flight ID"
// @Param X-Request-ID header string false "Idempotency key for retry-safe submission"
// @Success 200 {object} models.Flight
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /flights/{id}/end [post]
func (s *Server) endFlightHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := s.services.Flights.End(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (s *Server) deleteFlightHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Flights.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
