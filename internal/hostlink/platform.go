package hostlink

import (
	"fmt"

	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/shared/id"
	"go.uber.org/zap"
)

// The attached host is the platform.
var (
	_ platform.PermissionSystem = (*Link)(nil)
	_ platform.Launcher         = (*Link)(nil)
	_ platform.Grants           = (*Link)(nil)
	_ platform.Notifier         = (*Link)(nil)
	_ platform.Scanner          = (*Link)(nil)
	_ permission.Decider        = (*Link)(nil)
)

// State returns the host-reported permission state. Without a host every
// capability is unknown.
func (l *Link) State(c platform.Capability) platform.PermissionState {
	l.permMu.RLock()
	defer l.permMu.RUnlock()
	return l.perms[c]
}

// Request asks the host to prompt for c. The answer arrives as a
// permission_result message.
func (l *Link) Request(c platform.Capability) error {
	token := id.NewPermissionToken()
	if err := l.send(TypeRequestPermission, token.String(), RequestPermission{Capability: c}); err != nil {
		return err
	}
	l.logger.Debug("permission prompt sent", zap.String("capability", string(c)), zap.String("token", token.String()))
	return nil
}

// Launch starts a chooser on the host.
func (l *Link) Launch(token string, intent platform.ChooserIntent) error {
	if err := l.send(TypeStartActivity, token, StartActivity{Intent: intent}); err != nil {
		return fmt.Errorf("%w: %w", platform.ErrNoHandler, err)
	}
	return nil
}

// TakePersistable asks the host for durable access to ref.
func (l *Link) TakePersistable(ref platform.Ref) error {
	return l.send(TypeTakeGrant, "", TakeGrant{URI: string(ref)})
}

// Notify shows a toast on the host. Without a host the message is logged.
func (l *Link) Notify(message string) {
	if err := l.send(TypeToast, "", Toast{Message: message}); err != nil {
		l.logger.Warn("notification not delivered", zap.String("message", message), zap.Error(err))
	}
}

// Scan asks the host to index a written file.
func (l *Link) Scan(path, mimeType string) error {
	return l.send(TypeScanFile, "", ScanFile{Path: path, MimeType: mimeType})
}

// Grant answers a web permission request positively.
func (l *Link) Grant(req permission.WebRequest) {
	l.decide(req, true)
}

// Deny answers a web permission request negatively.
func (l *Link) Deny(req permission.WebRequest) {
	l.decide(req, false)
}

func (l *Link) decide(req permission.WebRequest, granted bool) {
	msg := WebPermissionDecision{Granted: granted}
	if granted {
		msg.Resources = req.Resources
	}
	if err := l.send(TypeWebPermissionDecision, req.ID, msg); err != nil {
		l.logger.Warn("web permission decision not delivered", zap.String("request_id", req.ID), zap.Error(err))
	}
}

// DeliverSelection hands a file selection back to the page callback
// identified by token.
func (l *Link) DeliverSelection(token string, refs []platform.Ref) {
	var uris []string
	if refs != nil {
		uris = make([]string, 0, len(refs))
		for _, ref := range refs {
			if ref != "" {
				uris = append(uris, string(ref))
			}
		}
		if len(uris) == 0 {
			uris = nil
		}
	}
	if err := l.send(TypeFileChooserResult, token, FileChooserResult{URIs: uris}); err != nil {
		l.logger.Warn("file chooser result not delivered", zap.String("token", token), zap.Error(err))
	}
}
