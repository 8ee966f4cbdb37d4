package hostlink

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/ciphernotes/shell/internal/platform"
)

// Inbound message types (host to shell).
const (
	TypeHello                 = "hello"
	TypePermissionState       = "permission_state"
	TypePermissionResult      = "permission_result"
	TypeShowFileChooser       = "show_file_chooser"
	TypeActivityResult        = "activity_result"
	TypeWebPermissionRequest  = "web_permission_request"
	TypeWebPermissionCanceled = "web_permission_canceled"
	TypeShouldOverride        = "should_override"
	TypeLaunch                = "launch"
)

// Outbound message types (shell to host).
const (
	TypeWelcome               = "welcome"
	TypeRequestPermission     = "request_permission"
	TypeStartActivity         = "start_activity"
	TypeFileChooserResult     = "file_chooser_result"
	TypeWebPermissionDecision = "web_permission_decision"
	TypeTakeGrant             = "take_grant"
	TypeToast                 = "toast"
	TypeScanFile              = "scan_file"
	TypeOverrideDecision      = "override_decision"
	TypeLoadURL               = "load_url"
	TypeError                 = "error"
)

// Envelope frames every message on the link.
type Envelope struct {
	Type  string          `json:"type"`
	Token string          `json:"token,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hello is the first message a host sends.
type Hello struct {
	Platform    string            `json:"platform,omitempty"`
	Permissions map[string]string `json:"permissions,omitempty"`
}

// Welcome answers hello. The host appends UserAgentSuffix, after a space, to
// the WebView's user agent and loads LaunchURL.
type Welcome struct {
	UserAgentSuffix string `json:"user_agent_suffix,omitempty"`
	LaunchURL       string `json:"launch_url"`
}

// PermissionState reports a capability's current state.
type PermissionState struct {
	Capability platform.Capability `json:"capability"`
	State      string              `json:"state"`
}

// PermissionResult answers a request_permission prompt.
type PermissionResult struct {
	Capability platform.Capability `json:"capability"`
	Granted    bool                `json:"granted"`
}

// ShowFileChooser is the page asking for files. Token identifies the page
// callback and is echoed on file_chooser_result. Camera capture is offered
// unless NoCapture is set.
type ShowFileChooser struct {
	Accept        []string `json:"accept,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`
	NoCapture     bool     `json:"no_capture,omitempty"`
	Legacy        bool     `json:"legacy,omitempty"`
}

// ActivityResult answers start_activity. Token is the launch token.
type ActivityResult struct {
	OK    bool     `json:"ok"`
	Items []string `json:"items,omitempty"`
}

// WebPermissionRequest is a page media request. Token is the request id.
type WebPermissionRequest struct {
	Origin    string   `json:"origin,omitempty"`
	Resources []string `json:"resources"`
}

// URLMessage carries a single URL (should_override, launch, load_url).
type URLMessage struct {
	URL string `json:"url"`
}

// RequestPermission asks the host to prompt for a capability.
type RequestPermission struct {
	Capability platform.Capability `json:"capability"`
}

// StartActivity asks the host to launch a chooser.
type StartActivity struct {
	Intent platform.ChooserIntent `json:"intent"`
}

// FileChooserResult hands the selection back to the page callback. URIs is
// null when nothing was selected.
type FileChooserResult struct {
	URIs []string `json:"uris"`
}

// WebPermissionDecision answers a web_permission_request.
type WebPermissionDecision struct {
	Granted   bool     `json:"granted"`
	Resources []string `json:"resources,omitempty"`
}

// TakeGrant asks the host for durable access to a selected resource.
type TakeGrant struct {
	URI string `json:"uri"`
}

// Toast shows a message.
type Toast struct {
	Message string `json:"message"`
}

// ScanFile asks the host to index a written file.
type ScanFile struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
}

// OverrideDecision answers should_override.
type OverrideDecision struct {
	External bool `json:"external"`
}

// ErrorMessage reports a protocol problem to the host.
type ErrorMessage struct {
	Message string `json:"message"`
}

// Encode frames data under msgType.
func Encode(msgType, token string, data any) ([]byte, error) {
	env := Envelope{Type: msgType, Token: token}
	if data != nil {
		raw, err := sonic.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", msgType, err)
		}
		env.Data = raw
	}
	return sonic.Marshal(env)
}

// Decode parses an envelope.
func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// Payload decodes the envelope's data into v.
func (e Envelope) Payload(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: missing data", e.Type)
	}
	if err := sonic.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}
