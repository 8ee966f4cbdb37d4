package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/shell"
	"github.com/ciphernotes/shell/internal/storage/shared"
	"github.com/gin-gonic/gin"
)

// Version is reported by the root and health endpoints.
const Version = "3.0.0"

// Shell is what the handlers need from the embedding shell.
type Shell interface {
	Export(payload, filename string) error
	ShouldOverride(url string) bool
	LaunchURL(url string) string
	Status() (shell.Status, error)
	Downloads(ctx context.Context) ([]shared.Entry, error)
	OpenDownload(ctx context.Context, id int64) (shared.Entry, io.ReadCloser, error)
	Capabilities() platform.Capabilities
}

// Handlers contains all HTTP handlers
type Handlers struct {
	shell   Shell
	metrics *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(s Shell, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{shell: s, metrics: metrics}
}

// ExportRequest is the page bridge's export call.
type ExportRequest struct {
	Payload  string `json:"payload"`
	Filename string `json:"filename"`
}

// Export hands a page export to the download broker. The caller only learns
// that it was accepted; the outcome reaches the user as a host notification.
func (h *Handlers) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.shell.Export(req.Payload, req.Filename); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

// Navigation reports whether a URL leaves the shell.
func (h *Handlers) Navigation(c *gin.Context) {
	target, ok := queryURL(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":      target,
		"external": h.shell.ShouldOverride(target),
	})
}

// Launch maps a deep link to the URL the browsing surface loads. Without a
// url parameter it returns the index.
func (h *Handlers) Launch(c *gin.Context) {
	incoming := c.Query("url")
	c.JSON(http.StatusOK, gin.H{
		"incoming": incoming,
		"url":      h.shell.LaunchURL(incoming),
	})
}

// Downloads lists completed exports in shared storage.
func (h *Handlers) Downloads(c *gin.Context) {
	entries, err := h.shell.Downloads(c.Request.Context())
	if errors.Is(err, shell.ErrNoCatalog) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		items = append(items, gin.H{
			"uri":           e.URI(),
			"display_name":  e.DisplayName,
			"mime_type":     e.MimeType,
			"relative_path": e.RelativePath,
			"size":          e.Size,
			"created_at":    e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"downloads": items, "count": len(items)})
}

// Download streams one completed export.
func (h *Handlers) Download(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid download id"})
		return
	}

	entry, body, err := h.shell.OpenDownload(c.Request.Context(), id)
	switch {
	case errors.Is(err, shell.ErrNoCatalog), errors.Is(err, shared.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer body.Close()

	contentType := entry.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, entry.Size, contentType, body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": entry.DisplayName}),
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status, err := h.shell.Status()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "stopping",
			"error":  err.Error(),
		})
		return
	}

	caps := h.shell.Capabilities()
	snap := h.metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": Version,
		"shell":   status,
		"capabilities": gin.H{
			"storage":                     caps.StorageStrategy.String(),
			"explicit_storage_permission": caps.RequiresExplicitStoragePermission,
			"camera":                      caps.CameraAvailable,
			"persistable_grants":          caps.PersistableGrants,
		},
		"stats": gin.H{
			"requests":      snap.TotalRequests,
			"errors":        snap.TotalErrors,
			"exports":       snap.Exports,
			"export_errors": snap.ExportErrors,
			"uploads":       snap.Uploads,
		},
	})
}

func queryURL(c *gin.Context) (string, bool) {
	raw := c.Query("url")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return "", false
	}
	if _, err := url.Parse(raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url"})
		return "", false
	}
	return raw, true
}
