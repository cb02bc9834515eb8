package server

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/krsnavtr-code/gallery/internal/blob"
	"go.uber.org/zap"
)

// registerStaticRoutes serves stored blobs read-only under prefix, one path
// segment per blob name.
func registerStaticRoutes(router *gin.Engine, prefix string, store blob.Store, log *zap.Logger) {
	prefix = "/" + strings.Trim(prefix, "/")
	handler := &staticHandler{store: store, log: log}
	router.GET(prefix+"/:name", handler.serve)
	router.HEAD(prefix+"/:name", handler.serve)
}

type staticHandler struct {
	store blob.Store
	log   *zap.Logger
}

func (h *staticHandler) serve(c *gin.Context) {
	name := c.Param("name")
	if !blob.ValidName(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	if presigner, ok := h.store.(blob.Presigner); ok {
		url, err := presigner.PresignedURL(c.Request.Context(), name)
		if err != nil {
			h.log.Error("presign blob", zap.String("name", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serve file"})
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}

	rc, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.log.Error("open blob", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to serve file"})
		return
	}
	defer rc.Close()

	if rs, ok := rc.(io.ReadSeeker); ok {
		var modTime time.Time
		if st, ok := rc.(interface{ Stat() (fs.FileInfo, error) }); ok {
			if info, err := st.Stat(); err == nil {
				modTime = info.ModTime()
			}
		}
		http.ServeContent(c.Writer, c.Request, name, modTime, rs)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
