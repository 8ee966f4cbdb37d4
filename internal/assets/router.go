package assets

import (
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Response is a resolved bundled resource. The caller owns Body and must
// close it.
type Response struct {
	MimeType string
	Encoding string
	Body     io.ReadCloser
	Size     int64
	ModTime  time.Time
}

// Close releases the body.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Router maps request paths onto files in a read-only bundle.
type Router struct {
	fsys    fs.FS
	root    string
	index   string
	generic TypeTable
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu    sync.RWMutex
	types map[string]string
}

// Option configures a Router.
type Option func(*Router)

// WithRoot sets the bundle directory prefixed to every lookup.
func WithRoot(root string) Option {
	return func(r *Router) { r.root = strings.Trim(root, "/") }
}

// WithIndex sets the document served for "" and directory paths.
func WithIndex(index string) Option {
	return func(r *Router) { r.index = index }
}

// WithTypeTable replaces the generic extension table.
func WithTypeTable(t TypeTable) Option {
	return func(r *Router) { r.generic = t }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithMetrics records lookups.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// NewRouter creates a router over fsys. Defaults: root "www", index
// "index.html", generic table SystemTypes.
func NewRouter(fsys fs.FS, opts ...Option) *Router {
	r := &Router{
		fsys:    fsys,
		root:    "www",
		index:   "index.html",
		generic: SystemTypes,
		logger:  zap.NewNop(),
		types:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve opens the bundled file for requestPath. The second return is false
// when nothing is bundled there; no error ever crosses this boundary.
func (r *Router) Resolve(requestPath string) (*Response, bool) {
	relative := r.relative(requestPath)

	name := relative
	if r.root != "" {
		name = r.root + "/" + relative
	}
	if !fs.ValidPath(name) {
		r.metrics.RecordAsset(false, "")
		return nil, false
	}

	f, err := r.fsys.Open(name)
	if err != nil {
		r.metrics.RecordAsset(false, "")
		return nil, false
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		r.metrics.RecordAsset(false, "")
		return nil, false
	}

	mimeType := r.MimeType(relative)
	r.metrics.RecordAsset(true, mimeType)
	r.logger.Debug("asset resolved",
		zap.String("path", relative),
		zap.String("mime", mimeType),
	)

	return &Response{
		MimeType: mimeType,
		Encoding: EncodingFor(mimeType),
		Body:     f,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, true
}

// MimeType returns the type for a bundle-relative path. Results are memoised
// per extension for the router's lifetime.
func (r *Router) MimeType(relative string) string {
	ext := path.Ext(relative)

	r.mu.RLock()
	mimeType, ok := r.types[ext]
	r.mu.RUnlock()
	if ok {
		return mimeType
	}

	mimeType = r.lookup(ext, relative)

	r.mu.Lock()
	r.types[ext] = mimeType
	r.mu.Unlock()
	return mimeType
}

func (r *Router) lookup(ext, relative string) string {
	if ext != "" && r.generic != nil {
		if mimeType := r.generic(ext); mimeType != "" {
			return mimeType
		}
	}
	return FallbackType(relative)
}

// relative normalises a request path into a bundle-relative file name.
func (r *Router) relative(requestPath string) string {
	relative := strings.TrimPrefix(requestPath, "/")
	if relative == "" {
		return r.index
	}
	if strings.HasSuffix(relative, "/") {
		return relative + r.index
	}
	return relative
}
