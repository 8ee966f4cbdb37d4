package permission

import (
	"github.com/ciphernotes/shell/internal/platform"
	"go.uber.org/zap"
)

// ResourceVideoCapture is the media resource that needs the camera
// capability.
const ResourceVideoCapture = "android.webkit.resource.VIDEO_CAPTURE"

// WebRequest is a page's request for media resources (getUserMedia and
// friends).
type WebRequest struct {
	ID        string
	Origin    string
	Resources []string
}

func (r WebRequest) needsCamera() bool {
	for _, res := range r.Resources {
		if res == ResourceVideoCapture {
			return true
		}
	}
	return false
}

// Decider answers web requests back to the browsing surface.
type Decider interface {
	Grant(req WebRequest)
	Deny(req WebRequest)
}

// WebRequests routes page media-permission requests through the gate. Only
// video capture needs an OS grant; everything else is granted directly.
type WebRequests struct {
	gate    *Gate
	decider Decider
	logger  *zap.Logger

	pending map[string]WebRequest
}

// NewWebRequests creates a web request handler.
func NewWebRequests(gate *Gate, decider Decider, logger *zap.Logger) *WebRequests {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebRequests{
		gate:    gate,
		decider: decider,
		logger:  logger,
		pending: make(map[string]WebRequest),
	}
}

// Handle answers req, prompting for the camera when video capture is asked
// for and not yet granted.
func (w *WebRequests) Handle(req WebRequest) {
	if !req.needsCamera() {
		w.decider.Grant(req)
		return
	}

	w.pending[req.ID] = req
	w.gate.Request(platform.CapabilityCamera, func(granted bool) {
		if _, ok := w.pending[req.ID]; !ok {
			w.logger.Debug("web permission request canceled before result", zap.String("request_id", req.ID))
			return
		}
		delete(w.pending, req.ID)
		if granted {
			w.decider.Grant(req)
		} else {
			w.decider.Deny(req)
		}
	})
}

// Cancel drops a pending request without answering it.
func (w *WebRequests) Cancel(requestID string) {
	if _, ok := w.pending[requestID]; !ok {
		return
	}
	delete(w.pending, requestID)
	w.logger.Debug("web permission request canceled", zap.String("request_id", requestID))
}

// Pending reports how many requests await a camera result.
func (w *WebRequests) Pending() int {
	return len(w.pending)
}
