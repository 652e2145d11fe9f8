package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skyhook-org/dronelog/internal/services"
)

func (s *Server) listEventsHandler(c *gin.Context) {
	events, err := s.services.Events.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) createEventHandler(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event, err := s.services.Events.Create(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (s *Server) getEventHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	event, err := s.services.Events.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) updateEventHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event, err := s.services.Events.Update(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) deleteEventHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Events.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) assignPilotHandler(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	pilotID, ok := pathID(c, "pilotID")
	if !ok {
		return
	}

	if err := s.services.Events.AssignPilot(c.Request.Context(), eventID, pilotID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) unassignPilotHandler(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	pilotID, ok := pathID(c, "pilotID")
	if !ok {
		return
	}

	if err := s.services.Events.UnassignPilot(c.Request.Context(), eventID, pilotID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
