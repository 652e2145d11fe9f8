package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/skyhook-org/dronelog/internal/services"
)

func (s *Server) listDronesHandler(c *gin.Context) {
	drones, err := s.services.Drones.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drones)
}

func (s *Server) createDroneHandler(c *gin.Context) {
	var req services.CreateDroneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	drone, err := s.services.Drones.Create(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, drone)
}

func (s *Server) getDroneHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	drone, err := s.services.Drones.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drone)
}

func (s *Server) updateDroneHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateDroneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	drone, err := s.services.Drones.Update(c.Request.Context(), id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drone)
}

func (s *Server) deleteDroneHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Drones.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// droneQRCodeHandler godoc
// @Summary Drone label QR code
// @Description PNG QR code for printed fleet labels, linking back to the drone record
// @Tags drones
// @Produce png
// @Param id path int true "Drone ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /drones/{id}/qrcode [get]
func (s *Server) droneQRCodeHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	drone, err := s.services.Drones.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	content := fmt.Sprintf("dronelog://drones/%d?sn=%s", drone.ID, drone.SerialNumber)
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		s.logger.Error().Err(err).Uint("drone_id", drone.ID).Msg("Failed to render QR code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to render QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
