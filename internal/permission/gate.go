package permission

import (
	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/platform"
	"go.uber.org/zap"
)

// Callback receives the outcome of a permission request exactly once.
type Callback func(granted bool)

// Gate serialises OS permission prompts. Concurrent requests for the same
// capability share one prompt and are all resolved by its result.
//
// Gate is not safe for concurrent use; it must only be called from the
// interactive loop.
type Gate struct {
	perms   platform.PermissionSystem
	logger  *zap.Logger
	metrics *monitoring.Metrics

	waiters map[platform.Capability][]Callback
}

// NewGate creates a gate over the OS permission system.
func NewGate(perms platform.PermissionSystem, logger *zap.Logger, metrics *monitoring.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		perms:   perms,
		logger:  logger,
		metrics: metrics,
		waiters: make(map[platform.Capability][]Callback),
	}
}

// Granted reports whether the OS currently grants c. The gate never caches
// or assumes a grant.
func (g *Gate) Granted(c platform.Capability) bool {
	return g.perms.State(c) == platform.PermissionGranted
}

// Request invokes cb with true immediately when c is already granted.
// Otherwise cb is queued and, if no prompt for c is in flight, one is issued.
// A prompt that cannot be issued resolves every waiter with false.
func (g *Gate) Request(c platform.Capability, cb Callback) {
	if g.Granted(c) {
		g.metrics.RecordPermissionOutcome(string(c), true)
		cb(true)
		return
	}

	g.waiters[c] = append(g.waiters[c], cb)
	if len(g.waiters[c]) > 1 {
		g.logger.Debug("joining in-flight permission prompt",
			zap.String("capability", string(c)),
			zap.Int("waiters", len(g.waiters[c])),
		)
		return
	}

	g.metrics.RecordPermissionPrompt(string(c))
	if err := g.perms.Request(c); err != nil {
		g.logger.Warn("permission prompt failed",
			zap.String("capability", string(c)),
			zap.Error(err),
		)
		g.Resolve(c, false)
	}
}

// Resolve delivers the OS answer for c to every queued waiter. Results with
// no waiters are ignored.
func (g *Gate) Resolve(c platform.Capability, granted bool) {
	waiters := g.waiters[c]
	if len(waiters) == 0 {
		g.logger.Debug("ignoring unmatched permission result",
			zap.String("capability", string(c)),
			zap.Bool("granted", granted),
		)
		return
	}
	delete(g.waiters, c)

	g.logger.Info("permission resolved",
		zap.String("capability", string(c)),
		zap.Bool("granted", granted),
		zap.Int("waiters", len(waiters)),
	)
	for _, cb := range waiters {
		g.metrics.RecordPermissionOutcome(string(c), granted)
		cb(granted)
	}
}

// Pending reports how many callbacks wait on c.
func (g *Gate) Pending(c platform.Capability) int {
	return len(g.waiters[c])
}

// DenyAll resolves every waiter with false. Used when the host detaches and
// no prompt result can arrive.
func (g *Gate) DenyAll() {
	for c := range g.waiters {
		g.Resolve(c, false)
	}
}
