package navigation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// inPageSchemes never leave the browsing surface.
var inPageSchemes = map[string]struct{}{
	"blob":  {},
	"data":  {},
	"about": {},
}

// Policy decides where navigations go and what URL a launch opens.
type Policy struct {
	localHost string
	index     string
	patterns  []string
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// Option configures a Policy.
type Option func(*Policy)

// WithInternalHosts adds host glob patterns (doublestar syntax) that are
// treated like the local origin.
func WithInternalHosts(patterns ...string) Option {
	return func(p *Policy) {
		for _, pattern := range patterns {
			if pattern = strings.TrimSpace(pattern); pattern != "" {
				p.patterns = append(p.patterns, strings.ToLower(pattern))
			}
		}
	}
}

// WithIndex sets the document launches open.
func WithIndex(index string) Option {
	return func(p *Policy) { p.index = strings.TrimPrefix(index, "/") }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Policy) { p.logger = logger }
}

// WithMetrics records decisions.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Policy) { p.metrics = m }
}

// NewPolicy creates a policy for the given local origin host.
func NewPolicy(localHost string, opts ...Option) (*Policy, error) {
	if localHost == "" {
		return nil, fmt.Errorf("navigation: local host required")
	}
	p := &Policy{
		localHost: localHost,
		index:     "index.html",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, pattern := range p.patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("navigation: invalid host pattern %q", pattern)
		}
	}
	return p, nil
}

// LocalHost returns the local origin host.
func (p *Policy) LocalHost() string {
	return p.localHost
}

// ShouldHandleExternally reports whether a navigation to rawURL must leave the
// browsing surface and go to the OS. Local-origin and in-page scheme URLs
// stay; everything else, including URLs that do not parse, goes out.
func (p *Policy) ShouldHandleExternally(rawURL string) bool {
	external := !p.isInternal(rawURL)
	p.metrics.RecordNavigation(external)
	p.logger.Debug("navigation decision",
		zap.String("url", rawURL),
		zap.Bool("external", external),
	)
	return external
}

func (p *Policy) isInternal(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if _, ok := inPageSchemes[strings.ToLower(u.Scheme)]; ok {
		return true
	}

	host := u.Hostname()
	if host == "" {
		return false
	}
	if strings.EqualFold(host, p.localHost) {
		return true
	}

	host = strings.ToLower(host)
	for _, pattern := range p.patterns {
		if ok, _ := doublestar.Match(pattern, host); ok {
			return true
		}
	}
	return false
}
