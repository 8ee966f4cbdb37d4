// Package id provides prefixed ULID generation for correlation tokens.
//
// Every OS round trip (permission prompt, picker launch, HTTP request) carries
// a token so the reply can be matched to the request that caused it:
//   - upl_*  file chooser launches
//   - perm_* permission prompts
//   - req_*  HTTP requests
//   - exp_*  export jobs
//
// ULIDs sort by creation time, which keeps host-link traces readable.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// UploadToken correlates a file chooser launch with its activity result.
type UploadToken string

// PermissionToken correlates a permission prompt with its result.
type PermissionToken string

// RequestID identifies an HTTP request.
type RequestID string

// ExportID identifies a queued export job.
type ExportID string

const (
	UploadPrefix     = "upl"
	PermissionPrefix = "perm"
	RequestPrefix    = "req"
	ExportPrefix     = "exp"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewUploadToken generates a file chooser token.
func NewUploadToken() UploadToken {
	return UploadToken(Default().GenerateWithPrefix(UploadPrefix))
}

// NewPermissionToken generates a permission prompt token.
func NewPermissionToken() PermissionToken {
	return PermissionToken(Default().GenerateWithPrefix(PermissionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewExportID generates an export job ID.
func NewExportID() ExportID {
	return ExportID(Default().GenerateWithPrefix(ExportPrefix))
}

func (id UploadToken) String() string     { return string(id) }
func (id PermissionToken) String() string { return string(id) }
func (id RequestID) String() string       { return string(id) }
func (id ExportID) String() string        { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Split separates a prefixed ID into its prefix and ULID parts.
func Split(prefixed string) (prefix string, raw string, ok bool) {
	prefix, raw, ok = strings.Cut(prefixed, "_")
	if !ok || prefix == "" || !IsValid(raw) {
		return "", "", false
	}
	return prefix, raw, true
}

// HasPrefix reports whether prefixed is a well-formed ID carrying prefix.
func HasPrefix(prefixed, prefix string) bool {
	p, _, ok := Split(prefixed)
	return ok && p == prefix
}

// Timestamp extracts the timestamp from a ULID or prefixed ID.
func Timestamp(id string) (time.Time, error) {
	if _, raw, ok := Split(id); ok {
		id = raw
	}
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
