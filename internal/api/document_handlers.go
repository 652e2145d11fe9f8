package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listDocumentsHandler(c *gin.Context) {
	docs, err := s.services.Documents.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// uploadDocumentHandler godoc
// @Summary Upload document
// @Description Store a file encrypted at rest. Multipart field name: file.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "The file to store"
// @Success 201 {object} models.Document
// @Failure 400 {object} ErrorResponse
// @Router /documents [post]
func (s *Server) uploadDocumentHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	doc, err := s.services.Documents.Upload(c.Request.Context(), fileHeader.Filename, contentType, data, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) getDocumentHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := s.services.Documents.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) downloadDocumentHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, plaintext, err := s.services.Documents.Download(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Data(http.StatusOK, contentType, plaintext)
}

func (s *Server) deleteDocumentHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.services.Documents.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
