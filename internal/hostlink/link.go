package hostlink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/infrastructure/tracing"
	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when no host is attached.
var ErrNotConnected = errors.New("hostlink: no host attached")

const (
	writeTimeout = 10 * time.Second
	readLimit    = 1 << 20
)

// Events receives host messages. Implementations must not block; anything
// that touches shell state should be handed to the interactive loop.
type Events interface {
	HostAttached()
	HostDetached()
	PermissionResult(c platform.Capability, granted bool)
	ShowFileChooser(token string, req ShowFileChooser)
	ActivityResult(token string, res ActivityResult)
	WebPermissionRequest(req permission.WebRequest)
	WebPermissionCanceled(id string)
	ShouldOverride(url string) bool
	LaunchURL(url string) string
}

// Link is the WebSocket connection to the native embedding host. At most one
// host is attached; a new connection replaces the previous one.
type Link struct {
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	upgrader websocket.Upgrader
	uaSuffix string

	events Events

	mu      sync.Mutex
	current *hostConn

	permMu sync.RWMutex
	perms  map[platform.Capability]platform.PermissionState
}

type hostConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Option configures a Link.
type Option func(*Link)

// WithMetrics records host link traffic.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(l *Link) { l.metrics = m }
}

// WithTracer traces inbound messages.
func WithTracer(t *tracing.Tracer) Option {
	return func(l *Link) { l.tracer = t }
}

// WithUserAgentSuffix sets the user agent suffix announced in welcome.
func WithUserAgentSuffix(suffix string) Option {
	return func(l *Link) { l.uaSuffix = strings.TrimSpace(suffix) }
}

// New creates a link. Bind must be called before hosts connect.
func New(logger *zap.Logger, opts ...Option) *Link {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Link{
		logger: logger,
		perms:  make(map[platform.Capability]platform.PermissionState),
	}
	l.upgrader = websocket.Upgrader{
		// Only native hosts connect here. Browsers always send Origin, so
		// the page itself can never attach.
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == ""
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Bind sets the receiver of host messages.
func (l *Link) Bind(events Events) {
	l.events = events
}

// Connected reports whether a host is attached.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}

// Handler upgrades GET /hostlink to a WebSocket and serves the host.
func (l *Link) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := l.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			l.logger.Warn("host link upgrade failed", zap.Error(err))
			return
		}
		l.Serve(c.Request.Context(), ws)
	}
}

// Serve runs the read loop for ws until it closes.
func (l *Link) Serve(ctx context.Context, ws *websocket.Conn) {
	ws.SetReadLimit(readLimit)
	hc := &hostConn{ws: ws}
	l.attach(hc)
	defer l.detach(hc)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.logger.Warn("host link read error", zap.Error(err))
			}
			return
		}

		env, err := Decode(data)
		if err != nil {
			l.logger.Warn("malformed host message", zap.Error(err))
			_ = l.write(hc, TypeError, "", ErrorMessage{Message: err.Error()})
			continue
		}
		l.metrics.RecordHostMessage("in", env.Type)
		l.handle(ctx, hc, env)
	}
}

func (l *Link) attach(hc *hostConn) {
	l.mu.Lock()
	previous := l.current
	l.current = hc
	l.mu.Unlock()

	if previous != nil {
		// The old host's reader sees current != previous and stays quiet,
		// so its pending work is released here before the new host starts.
		l.logger.Info("replacing attached host")
		_ = previous.ws.Close()
		l.release()
	}
	l.metrics.SetHostConnected(true)
	l.logger.Info("host attached", zap.String("remote", hc.ws.RemoteAddr().String()))
	if l.events != nil {
		l.events.HostAttached()
	}
}

func (l *Link) detach(hc *hostConn) {
	_ = hc.ws.Close()

	l.mu.Lock()
	if l.current != hc {
		l.mu.Unlock()
		return
	}
	l.current = nil
	l.mu.Unlock()

	l.metrics.SetHostConnected(false)
	l.release()
}

// release forgets the departed host's permission states and tells the shell
// its outstanding requests will never be answered.
func (l *Link) release() {
	l.permMu.Lock()
	l.perms = make(map[platform.Capability]platform.PermissionState)
	l.permMu.Unlock()

	l.logger.Info("host detached")
	if l.events != nil {
		l.events.HostDetached()
	}
}

// Close disconnects the attached host.
func (l *Link) Close() {
	l.mu.Lock()
	hc := l.current
	l.mu.Unlock()
	if hc == nil {
		return
	}
	hc.writeMu.Lock()
	_ = hc.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shell shutting down"),
		time.Now().Add(time.Second))
	hc.writeMu.Unlock()
	_ = hc.ws.Close()
}

func (l *Link) handle(ctx context.Context, hc *hostConn, env Envelope) {
	if l.tracer != nil {
		span, _ := l.tracer.StartSpan(ctx, "hostlink", env.Type)
		if env.Token != "" {
			span.SetTag("token", env.Token)
		}
		defer func() {
			span.Finish()
			l.tracer.Submit(span)
		}()
	}

	if err := l.dispatch(hc, env); err != nil {
		l.logger.Warn("host message rejected", zap.String("type", env.Type), zap.Error(err))
		_ = l.write(hc, TypeError, env.Token, ErrorMessage{Message: err.Error()})
	}
}

func (l *Link) dispatch(hc *hostConn, env Envelope) error {
	if l.events == nil {
		return errors.New("shell not ready")
	}

	switch env.Type {
	case TypeHello:
		var msg Hello
		if len(env.Data) > 0 {
			if err := env.Payload(&msg); err != nil {
				return err
			}
		}
		for name, state := range msg.Permissions {
			l.setPermission(platform.Capability(name), platform.ParsePermissionState(state))
		}
		l.logger.Info("host hello", zap.String("platform", msg.Platform), zap.Int("permissions", len(msg.Permissions)))
		return l.write(hc, TypeWelcome, env.Token, Welcome{
			UserAgentSuffix: l.uaSuffix,
			LaunchURL:       l.events.LaunchURL(""),
		})

	case TypePermissionState:
		var msg PermissionState
		if err := env.Payload(&msg); err != nil {
			return err
		}
		l.setPermission(msg.Capability, platform.ParsePermissionState(msg.State))

	case TypePermissionResult:
		var msg PermissionResult
		if err := env.Payload(&msg); err != nil {
			return err
		}
		if !msg.Capability.Valid() {
			return fmt.Errorf("unknown capability %q", msg.Capability)
		}
		state := platform.PermissionDenied
		if msg.Granted {
			state = platform.PermissionGranted
		}
		l.setPermission(msg.Capability, state)
		l.events.PermissionResult(msg.Capability, msg.Granted)

	case TypeShowFileChooser:
		var msg ShowFileChooser
		if len(env.Data) > 0 {
			if err := env.Payload(&msg); err != nil {
				return err
			}
		}
		if env.Token == "" {
			return fmt.Errorf("%s: missing token", env.Type)
		}
		l.events.ShowFileChooser(env.Token, msg)

	case TypeActivityResult:
		var msg ActivityResult
		if err := env.Payload(&msg); err != nil {
			return err
		}
		l.events.ActivityResult(env.Token, msg)

	case TypeWebPermissionRequest:
		var msg WebPermissionRequest
		if err := env.Payload(&msg); err != nil {
			return err
		}
		if env.Token == "" {
			return fmt.Errorf("%s: missing token", env.Type)
		}
		l.events.WebPermissionRequest(permission.WebRequest{
			ID:        env.Token,
			Origin:    msg.Origin,
			Resources: msg.Resources,
		})

	case TypeWebPermissionCanceled:
		l.events.WebPermissionCanceled(env.Token)

	case TypeShouldOverride:
		var msg URLMessage
		if err := env.Payload(&msg); err != nil {
			return err
		}
		return l.write(hc, TypeOverrideDecision, env.Token, OverrideDecision{
			External: l.events.ShouldOverride(msg.URL),
		})

	case TypeLaunch:
		var msg URLMessage
		if len(env.Data) > 0 {
			if err := env.Payload(&msg); err != nil {
				return err
			}
		}
		return l.write(hc, TypeLoadURL, env.Token, URLMessage{URL: l.events.LaunchURL(msg.URL)})

	default:
		return fmt.Errorf("unknown message type %q", env.Type)
	}
	return nil
}

func (l *Link) setPermission(c platform.Capability, state platform.PermissionState) {
	if !c.Valid() {
		l.logger.Debug("ignoring unknown capability", zap.String("capability", string(c)))
		return
	}
	l.permMu.Lock()
	l.perms[c] = state
	l.permMu.Unlock()
}

// send writes to the attached host.
func (l *Link) send(msgType, token string, data any) error {
	l.mu.Lock()
	hc := l.current
	l.mu.Unlock()
	if hc == nil {
		return ErrNotConnected
	}
	return l.write(hc, msgType, token, data)
}

func (l *Link) write(hc *hostConn, msgType, token string, data any) error {
	b, err := Encode(msgType, token, data)
	if err != nil {
		return err
	}

	hc.writeMu.Lock()
	defer hc.writeMu.Unlock()
	if err := hc.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	if err := hc.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	l.metrics.RecordHostMessage("out", msgType)
	return nil
}
