package assets

import (
	"io"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
)

// Handler serves the bundle over HTTP. It answers both page loads and
// service-worker update checks, so it is the only asset entry point.
func (r *Router) Handler() http.Handler {
	return gzhttp.GzipHandler(http.HandlerFunc(r.serveHTTP))
}

func (r *Router) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resp, ok := r.Resolve(req.URL.Path)
	if !ok {
		http.NotFound(w, req)
		return
	}
	defer resp.Close()

	contentType := resp.MimeType
	if resp.Encoding != "" {
		contentType += "; charset=" + resp.Encoding
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if rs, ok := resp.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, req, "", resp.ModTime, rs)
		return
	}

	if req.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		r.logger.Debug("asset write interrupted", zap.String("path", req.URL.Path), zap.Error(err))
	}
}
