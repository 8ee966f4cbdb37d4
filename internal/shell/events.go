package shell

import (
	"github.com/ciphernotes/shell/internal/hostlink"
	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/ciphernotes/shell/internal/upload"
	"go.uber.org/zap"
)

var _ hostlink.Events = (*Shell)(nil)

// post runs fn on the interactive loop. Events arriving after shutdown are
// dropped.
func (s *Shell) post(event string, fn func()) {
	if err := s.loop.Post(fn); err != nil {
		s.logger.Debug("dropping host event", zap.String("event", event), zap.Error(err))
	}
}

// HostAttached implements hostlink.Events.
func (s *Shell) HostAttached() {
	s.logger.Debug("host attached")
}

// HostDetached resolves everything that was waiting on the host: prompts
// resolve denied and the open selection resolves with no result.
func (s *Shell) HostDetached() {
	s.post("detached", func() {
		s.gate.DenyAll()
		s.uploads.Abandon()
	})
}

// PermissionResult implements hostlink.Events.
func (s *Shell) PermissionResult(c platform.Capability, granted bool) {
	s.post("permission_result", func() {
		s.gate.Resolve(c, granted)
	})
}

// ShowFileChooser starts a selection whose result goes back to the page
// callback named by token.
func (s *Shell) ShowFileChooser(token string, req hostlink.ShowFileChooser) {
	sel := upload.Selection{
		Accept:         req.Accept,
		AllowMultiple:  req.AllowMultiple,
		CaptureAllowed: !req.NoCapture,
		Legacy:         req.Legacy,
		Sink:           s.chooserSink(token, req.Legacy),
	}
	s.post("show_file_chooser", func() {
		s.uploads.Begin(sel)
	})
}

func (s *Shell) chooserSink(token string, legacy bool) upload.Sink {
	if legacy {
		return upload.LegacySink(func(ref platform.Ref) {
			if ref == "" {
				s.link.DeliverSelection(token, nil)
				return
			}
			s.link.DeliverSelection(token, []platform.Ref{ref})
		})
	}
	return upload.ListSink(func(refs []platform.Ref) {
		s.link.DeliverSelection(token, refs)
	})
}

// ActivityResult implements hostlink.Events.
func (s *Shell) ActivityResult(token string, res hostlink.ActivityResult) {
	items := make([]platform.Ref, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, platform.Ref(item))
	}
	s.post("activity_result", func() {
		s.uploads.OnActivityResult(token, upload.ActivityResult{OK: res.OK, Items: items})
	})
}

// WebPermissionRequest implements hostlink.Events.
func (s *Shell) WebPermissionRequest(req permission.WebRequest) {
	s.post("web_permission_request", func() {
		s.web.Handle(req)
	})
}

// WebPermissionCanceled implements hostlink.Events.
func (s *Shell) WebPermissionCanceled(id string) {
	s.post("web_permission_canceled", func() {
		s.web.Cancel(id)
	})
}

// ShouldOverride implements hostlink.Events.
func (s *Shell) ShouldOverride(url string) bool {
	return s.policy.ShouldHandleExternally(url)
}

// LaunchURL implements hostlink.Events.
func (s *Shell) LaunchURL(url string) string {
	return s.policy.LaunchURL(url)
}
