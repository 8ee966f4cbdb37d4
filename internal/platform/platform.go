package platform

import (
	"errors"
)

// ErrNoHandler is returned when the OS cannot satisfy an intent, either
// because nothing handles it or because no host is attached.
var ErrNoHandler = errors.New("platform: no handler available")

// Capability names an OS-mediated permission.
type Capability string

const (
	CapabilityCamera       Capability = "camera"
	CapabilityStorageWrite Capability = "storage_write"
)

// Valid reports whether c is a capability the shell knows about.
func (c Capability) Valid() bool {
	return c == CapabilityCamera || c == CapabilityStorageWrite
}

// PermissionState is the OS's current answer for a capability.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (s PermissionState) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// ParsePermissionState maps the wire form back to a state.
func ParsePermissionState(s string) PermissionState {
	switch s {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionUnknown
	}
}

// Ref is an opaque content reference handed out by the OS (a content or
// file URI). The shell never dereferences it.
type Ref string

// PermissionSystem reads and prompts for OS permissions. Prompt results
// arrive asynchronously and are fed to the permission gate.
type PermissionSystem interface {
	State(c Capability) PermissionState
	Request(c Capability) error
}

// Launcher starts an OS activity whose result is correlated by token.
type Launcher interface {
	Launch(token string, intent ChooserIntent) error
}

// CaptureAllocator reserves a destination for a camera capture.
type CaptureAllocator interface {
	Allocate() (Ref, error)
}

// Grants takes durable read/write access to a selected resource.
type Grants interface {
	TakePersistable(ref Ref) error
}

// Notifier shows a short user-visible message.
type Notifier interface {
	Notify(message string)
}

// Scanner tells the OS media index about a newly written file.
type Scanner interface {
	Scan(path, mimeType string) error
}
