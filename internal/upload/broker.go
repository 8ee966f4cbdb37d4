package upload

import (
	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/shared/id"
	"go.uber.org/zap"
)

// State is where the pending selection is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingCapturePermission
	StateLaunching
	StateAwaitingResult
)

func (s State) String() string {
	switch s {
	case StateAwaitingCapturePermission:
		return "awaiting_capture_permission"
	case StateLaunching:
		return "launching"
	case StateAwaitingResult:
		return "awaiting_result"
	default:
		return "idle"
	}
}

// Selection is a page's request to pick files.
type Selection struct {
	Accept         []string
	AllowMultiple  bool
	CaptureAllowed bool
	// Legacy marks the single-value callback shape. Legacy selections never
	// offer capture and never allow multiple picks.
	Legacy bool
	Sink   Sink
}

// ActivityResult is the OS answer to a launched chooser.
type ActivityResult struct {
	OK    bool
	Items []platform.Ref
}

type pending struct {
	token      string
	sel        Selection
	state      State
	captureRef platform.Ref
	resolved   bool
}

// Broker owns the single in-flight file selection.
//
// Broker is not safe for concurrent use; it must only be called from the
// interactive loop.
type Broker struct {
	caps     platform.Capabilities
	gate     *permission.Gate
	launcher platform.Launcher
	capture  platform.CaptureAllocator
	grants   platform.Grants
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	newToken func() string
	pending  *pending
}

// Deps are the collaborators of a Broker.
type Deps struct {
	Capabilities platform.Capabilities
	Gate         *permission.Gate
	Launcher     platform.Launcher
	Capture      platform.CaptureAllocator
	Grants       platform.Grants
	Logger       *zap.Logger
	Metrics      *monitoring.Metrics
}

// NewBroker creates an upload broker.
func NewBroker(deps Deps) *Broker {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		caps:     deps.Capabilities,
		gate:     deps.Gate,
		launcher: deps.Launcher,
		capture:  deps.Capture,
		grants:   deps.Grants,
		logger:   logger,
		metrics:  deps.Metrics,
		newToken: func() string { return id.NewUploadToken().String() },
	}
}

// State reports the pending selection's state, or StateIdle.
func (b *Broker) State() State {
	if b.pending == nil {
		return StateIdle
	}
	return b.pending.state
}

// Token returns the pending selection's token, or "".
func (b *Broker) Token() string {
	if b.pending == nil {
		return ""
	}
	return b.pending.token
}

// Begin starts a selection and returns its correlation token. Any unresolved
// earlier selection is resolved with NoResult first.
func (b *Broker) Begin(sel Selection) string {
	if b.pending != nil {
		b.logger.Debug("superseding pending selection", zap.String("token", b.pending.token))
		b.resolve(b.pending, NoResult())
	}

	if sel.Legacy {
		sel.AllowMultiple = false
		sel.CaptureAllowed = false
	}

	p := &pending{token: b.newToken(), sel: sel}
	b.pending = p

	offerCapture := sel.CaptureAllowed && b.caps.CameraAvailable && b.capture != nil
	if offerCapture && !b.gate.Granted(platform.CapabilityCamera) {
		p.state = StateAwaitingCapturePermission
		b.gate.Request(platform.CapabilityCamera, func(granted bool) {
			if b.pending != p {
				return
			}
			if !granted {
				b.logger.Info("camera denied, offering picker only", zap.String("token", p.token))
			}
			b.launch(p, granted)
		})
		return p.token
	}

	b.launch(p, offerCapture)
	return p.token
}

func (b *Broker) launch(p *pending, includeCapture bool) {
	p.state = StateLaunching

	intent := platform.ChooserIntent{
		Picker: platform.BuildPicker(p.sel.Accept, p.sel.AllowMultiple),
	}
	if includeCapture {
		ref, err := b.capture.Allocate()
		if err != nil {
			b.logger.Warn("capture destination unavailable", zap.String("token", p.token), zap.Error(err))
		} else {
			p.captureRef = ref
			intent.Capture = &platform.CaptureIntent{Output: ref}
		}
	}

	p.state = StateAwaitingResult
	if err := b.launcher.Launch(p.token, intent); err != nil {
		b.logger.Warn("file chooser launch failed", zap.String("token", p.token), zap.Error(err))
		b.resolve(p, NoResult())
		return
	}
	b.logger.Debug("file chooser launched",
		zap.String("token", p.token),
		zap.Bool("capture", intent.Composite()),
		zap.String("primary_type", intent.Picker.PrimaryType),
	)
}

// OnActivityResult completes the selection identified by token. Results for
// any other token are stale and ignored.
func (b *Broker) OnActivityResult(token string, res ActivityResult) {
	p := b.pending
	if p == nil || p.token != token || p.state != StateAwaitingResult {
		b.logger.Debug("ignoring stale activity result", zap.String("token", token))
		return
	}

	result := NoResult()
	if res.OK {
		switch {
		case len(res.Items) > 0:
			for _, ref := range res.Items {
				b.grant(ref)
			}
			result = Multiple(res.Items)
		case p.captureRef != "":
			result = Single(p.captureRef)
		}
	}
	b.resolve(p, result)
}

// Abandon resolves any pending selection with NoResult.
func (b *Broker) Abandon() {
	if b.pending != nil {
		b.resolve(b.pending, NoResult())
	}
}

func (b *Broker) grant(ref platform.Ref) {
	if !b.caps.PersistableGrants || b.grants == nil || ref == "" {
		return
	}
	if err := b.grants.TakePersistable(ref); err != nil {
		b.logger.Debug("durable grant refused", zap.String("ref", string(ref)), zap.Error(err))
	}
}

func (b *Broker) resolve(p *pending, r Result) {
	if p.resolved {
		return
	}
	p.resolved = true
	p.state = StateIdle
	if b.pending == p {
		b.pending = nil
	}

	b.metrics.RecordUpload(r.Kind().String())
	b.logger.Info("selection resolved",
		zap.String("token", p.token),
		zap.Stringer("kind", r.Kind()),
		zap.Int("items", len(r.refs)),
	)
	if p.sel.Sink != nil {
		p.sel.Sink.Deliver(r)
	}
}
