package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skyhook-org/dronelog/internal/services"
)

func (s *Server) listLocationsHandler(c *gin.Context) {
	locations, err := s.services.Locations.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (s *Server) createLocationHandler(c *gin.Context) {
	var req services.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	location, err := s.services.Locations.Create(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (s *Server) getLocationHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	location, err := s.services.Locations.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (s *Server) updateLocationHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	location, err := s.services.Locations.Update(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

func (s *Server) deleteLocationHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Locations.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
