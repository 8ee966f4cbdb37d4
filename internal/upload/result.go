package upload

import (
	"github.com/ciphernotes/shell/internal/platform"
)

// Kind tags a Result.
type Kind int

const (
	KindNone Kind = iota
	KindSingle
	KindMultiple
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// Result is the outcome of one file selection.
type Result struct {
	kind Kind
	refs []platform.Ref
}

// NoResult is a cancelled or empty selection.
func NoResult() Result {
	return Result{kind: KindNone}
}

// Single is a selection of exactly one resource.
func Single(ref platform.Ref) Result {
	return Result{kind: KindSingle, refs: []platform.Ref{ref}}
}

// Multiple is a selection of several resources. Fewer than two refs collapse
// to Single or NoResult.
func Multiple(refs []platform.Ref) Result {
	switch len(refs) {
	case 0:
		return NoResult()
	case 1:
		return Single(refs[0])
	}
	return Result{kind: KindMultiple, refs: append([]platform.Ref(nil), refs...)}
}

// Kind returns the variant.
func (r Result) Kind() Kind {
	return r.kind
}

// Refs returns the selected resources, or nil for NoResult.
func (r Result) Refs() []platform.Ref {
	if r.kind == KindNone {
		return nil
	}
	return append([]platform.Ref(nil), r.refs...)
}

// First returns the first selected resource.
func (r Result) First() (platform.Ref, bool) {
	if r.kind == KindNone {
		return "", false
	}
	return r.refs[0], true
}

// Sink receives a selection result. Deliver is called exactly once per
// selection.
type Sink interface {
	Deliver(Result)
}

// ListSink is the modern callback shape: all refs, or nil when nothing was
// selected.
type ListSink func(refs []platform.Ref)

// Deliver implements Sink.
func (s ListSink) Deliver(r Result) {
	s(r.Refs())
}

// LegacySink is the single-value callback shape: the first ref, or "" when
// nothing was selected.
type LegacySink func(ref platform.Ref)

// Deliver implements Sink.
func (s LegacySink) Deliver(r Result) {
	ref, _ := r.First()
	s(ref)
}
