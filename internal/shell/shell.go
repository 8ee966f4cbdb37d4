package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ciphernotes/shell/internal/assets"
	"github.com/ciphernotes/shell/internal/download"
	"github.com/ciphernotes/shell/internal/hostlink"
	"github.com/ciphernotes/shell/internal/infrastructure/config"
	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/infrastructure/tracing"
	"github.com/ciphernotes/shell/internal/navigation"
	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/shell/looper"
	"github.com/ciphernotes/shell/internal/storage"
	"github.com/ciphernotes/shell/internal/storage/downloads"
	"github.com/ciphernotes/shell/internal/storage/shared"
	"github.com/ciphernotes/shell/internal/upload"
	"go.uber.org/zap"
)

// ErrNoCatalog is returned by Downloads when exports go straight to the
// filesystem.
var ErrNoCatalog = errors.New("shell: no shared storage catalog")

// Options carries the shell's dependencies.
type Options struct {
	Config  *config.Config
	Bundle  fs.FS
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Tracer  *tracing.Tracer
}

// Shell owns every component of the embedding shell and the interactive
// loop they run on.
type Shell struct {
	cfg     *config.Config
	caps    platform.Capabilities
	logger  *zap.Logger
	metrics *monitoring.Metrics

	loop    *looper.Looper
	link    *hostlink.Link
	router  *assets.Router
	policy  *navigation.Policy
	gate    *permission.Gate
	web     *permission.WebRequests
	uploads *upload.Broker
	exports *download.Broker

	store   storage.Writer
	catalog *shared.Store
}

// New wires a shell. The host link is created unattached; hosts connect
// through Link().Handler().
func New(opts Options) (*Shell, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	caps := platform.Resolve(cfg.Platform.APILevel, cfg.Platform.CameraAvailable)
	logger.Info("platform capabilities resolved",
		zap.Int("api_level", cfg.Platform.APILevel),
		zap.Stringer("storage", caps.StorageStrategy),
		zap.Bool("explicit_storage_permission", caps.RequiresExplicitStoragePermission),
		zap.Bool("camera", caps.CameraAvailable),
		zap.Bool("persistable_grants", caps.PersistableGrants),
	)

	policy, err := navigation.NewPolicy(cfg.Shell.LocalHost,
		navigation.WithInternalHosts(cfg.Shell.InternalHosts...),
		navigation.WithIndex(cfg.Shell.IndexDocument),
		navigation.WithLogger(logger.Named("navigation")),
		navigation.WithMetrics(opts.Metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build navigation policy: %w", err)
	}

	router, err := newRouter(cfg.Shell, opts.Bundle, logger.Named("assets"), opts.Metrics)
	if err != nil {
		return nil, err
	}

	s := &Shell{
		cfg:     cfg,
		caps:    caps,
		logger:  logger,
		metrics: opts.Metrics,
		router:  router,
		policy:  policy,
	}

	linkOpts := []hostlink.Option{
		hostlink.WithMetrics(opts.Metrics),
		hostlink.WithUserAgentSuffix(cfg.Shell.UserAgentSuffix),
	}
	if opts.Tracer != nil {
		linkOpts = append(linkOpts, hostlink.WithTracer(opts.Tracer))
	}
	s.link = hostlink.New(logger.Named("hostlink"), linkOpts...)

	switch caps.StorageStrategy {
	case platform.ManagedInsertion:
		catalog, err := shared.Open(cfg.Platform.StorageRoot, cfg.Shell.DownloadsSubdir, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		s.catalog = catalog
		s.store = catalog
	default:
		dir := filepath.Join(cfg.Platform.StorageRoot, shared.DownloadsDirectory)
		s.store = downloads.NewWriter(dir, cfg.Shell.DownloadsSubdir, s.link, logger.Named("storage"))
	}

	s.loop = looper.New(logger.Named("loop"))
	s.gate = permission.NewGate(s.link, logger.Named("permission"), opts.Metrics)
	s.web = permission.NewWebRequests(s.gate, s.link, logger.Named("permission"))
	s.uploads = upload.NewBroker(upload.Deps{
		Capabilities: caps,
		Gate:         s.gate,
		Launcher:     s.link,
		Capture:      platform.DirCaptureAllocator{Dir: cfg.Platform.CaptureDir},
		Grants:       s.link,
		Logger:       logger.Named("upload"),
		Metrics:      opts.Metrics,
	})
	s.exports = download.NewBroker(download.Deps{
		Capabilities: caps,
		Gate:         s.gate,
		Store:        s.store,
		Notifier:     s.link,
		Loop:         s.loop,
		Logger:       logger.Named("download"),
		Metrics:      opts.Metrics,
	})

	s.link.Bind(s)
	return s, nil
}

func newRouter(cfg config.ShellConfig, bundle fs.FS, logger *zap.Logger, metrics *monitoring.Metrics) (*assets.Router, error) {
	opts := []assets.Option{
		assets.WithRoot(cfg.AssetRoot),
		assets.WithIndex(cfg.IndexDocument),
		assets.WithLogger(logger),
		assets.WithMetrics(metrics),
	}

	if cfg.AssetDir == "" {
		if bundle == nil {
			return nil, fmt.Errorf("no asset bundle configured")
		}
		return assets.NewRouter(bundle, opts...), nil
	}

	if _, err := os.Stat(filepath.Join(cfg.AssetDir, cfg.AssetRoot)); err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	router := assets.NewRouter(os.DirFS(cfg.AssetDir), opts...)

	inv, err := assets.TakeInventory(filepath.Join(cfg.AssetDir, cfg.AssetRoot), router)
	if err != nil {
		logger.Warn("bundle inventory failed", zap.Error(err))
	} else {
		logger.Info("serving bundle from disk",
			zap.String("dir", cfg.AssetDir),
			zap.Int("files", inv.Files),
			zap.Int64("bytes", inv.Bytes),
		)
	}
	return router, nil
}

// Capabilities returns the descriptor resolved at startup.
func (s *Shell) Capabilities() platform.Capabilities {
	return s.caps
}

// Link is the native host connection.
func (s *Shell) Link() *hostlink.Link {
	return s.link
}

// Assets is the bundle router.
func (s *Shell) Assets() *assets.Router {
	return s.router
}

// Policy is the navigation policy.
func (s *Shell) Policy() *navigation.Policy {
	return s.policy
}

// Export queues a page export onto the interactive loop. The outcome is only
// ever reported to the host as a notification.
func (s *Shell) Export(payload, filename string) error {
	return s.loop.Post(func() {
		s.exports.Export(payload, filename)
	})
}

// Status is a point-in-time view of the interactive state.
type Status struct {
	HostConnected      bool   `json:"host_connected"`
	Storage            string `json:"storage"`
	UploadState        string `json:"upload_state"`
	UploadToken        string `json:"upload_token,omitempty"`
	PendingExport      string `json:"pending_export,omitempty"`
	PendingCamera      int    `json:"pending_camera"`
	PendingStorage     int    `json:"pending_storage"`
	PendingWebRequests int    `json:"pending_web_requests"`
}

// Status reads the interactive state on the loop.
func (s *Shell) Status() (Status, error) {
	st := Status{
		HostConnected: s.link.Connected(),
		Storage:       s.caps.StorageStrategy.String(),
	}
	err := s.loop.Sync(func() {
		st.UploadState = s.uploads.State().String()
		st.UploadToken = s.uploads.Token()
		st.PendingExport, _ = s.exports.Pending()
		st.PendingCamera = s.gate.Pending(platform.CapabilityCamera)
		st.PendingStorage = s.gate.Pending(platform.CapabilityStorageWrite)
		st.PendingWebRequests = s.web.Pending()
	})
	return st, err
}

// Downloads lists completed exports in the shared storage catalog.
func (s *Shell) Downloads(ctx context.Context) ([]shared.Entry, error) {
	if s.catalog == nil {
		return nil, ErrNoCatalog
	}
	return s.catalog.List(ctx)
}

// OpenDownload opens a completed export by catalog id. The caller closes the
// reader.
func (s *Shell) OpenDownload(ctx context.Context, id int64) (shared.Entry, io.ReadCloser, error) {
	if s.catalog == nil {
		return shared.Entry{}, nil, ErrNoCatalog
	}
	e, f, err := s.catalog.Open(ctx, id)
	if err != nil {
		return shared.Entry{}, nil, err
	}
	return e, f, nil
}

// Close disconnects the host, drains pending exports and stops the loop.
func (s *Shell) Close() error {
	s.link.Close()
	s.exports.Close()
	s.loop.Close()

	if s.catalog != nil {
		if err := s.catalog.Close(); err != nil {
			return fmt.Errorf("failed to close catalog: %w", err)
		}
	}
	return nil
}
