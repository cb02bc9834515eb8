package media

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// multipart framing allowance on top of the file size limit
const formOverheadBytes = 1 << 20

// RegisterRoutes mounts media operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/media", handler.upload)
	group.GET("/media", handler.list)
	group.GET("/media/:id", handler.get)
	group.DELETE("/media/:id", handler.delete)
	group.POST("/media/batch-delete", handler.batchDelete)
	group.PATCH("/media/:id/tags", handler.updateTags)
	// :id carries a tag name; gin needs one wildcard name per path segment and
	// /tags/:id is already taken by the tag routes.
	group.GET("/tags/:id/media", handler.listForTag)
}

type httpHandler struct {
	service *Service
}

type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (h *httpHandler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxUploadBytes()+formOverheadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrFileTooLarge.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrNoFile.Error()})
		}
		return
	}

	tags, err := parseTagsField(c.PostForm("tags"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := h.service.Upload(c.Request.Context(), UploadInput{File: fileHeader, Tags: tags})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFile), errors.Is(err, ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		}
		return
	}

	c.JSON(http.StatusCreated, asset)
}

func (h *httpHandler) list(c *gin.Context) {
	list, err := h.service.ListByTag(c.Request.Context(), c.Query("tag"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *httpHandler) listForTag(c *gin.Context) {
	list, err := h.service.ListByTag(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	asset, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch media"})
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (h *httpHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete media"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) batchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must not be empty"})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id " + raw})
			return
		}
		ids = append(ids, id)
	}

	result := h.service.BatchDelete(c.Request.Context(), ids)
	switch {
	case result.Succeeded(), result.Partial():
		c.JSON(http.StatusOK, result)
	case result.AllNotFound():
		c.JSON(http.StatusNotFound, result)
	default:
		c.JSON(http.StatusInternalServerError, result)
	}
}

func (h *httpHandler) updateTags(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidTags.Error()})
		return
	}

	asset, err := h.service.UpdateTags(c.Request.Context(), id, req.Tags)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTags):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrMediaNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update tags"})
		}
		return
	}
	c.JSON(http.StatusOK, asset)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media id"})
		return uuid.Nil, false
	}
	return id, true
}

// parseTagsField decodes the optional JSON array sent alongside an upload.
func parseTagsField(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, ErrInvalidTags
	}
	return tags, nil
}
