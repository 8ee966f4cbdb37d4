package upload

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/permission"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePermissions struct {
	states   map[platform.Capability]platform.PermissionState
	requests []platform.Capability
	err      error
}

func (f *fakePermissions) State(c platform.Capability) platform.PermissionState {
	return f.states[c]
}

func (f *fakePermissions) Request(c platform.Capability) error {
	f.requests = append(f.requests, c)
	return f.err
}

type launch struct {
	token  string
	intent platform.ChooserIntent
}

type fakeLauncher struct {
	launches []launch
	err      error
}

func (f *fakeLauncher) Launch(token string, intent platform.ChooserIntent) error {
	if f.err != nil {
		return f.err
	}
	f.launches = append(f.launches, launch{token, intent})
	return nil
}

func (f *fakeLauncher) last(t *testing.T) launch {
	t.Helper()
	require.NotEmpty(t, f.launches)
	return f.launches[len(f.launches)-1]
}

type fakeCapture struct {
	n   int
	err error
}

func (f *fakeCapture) Allocate() (platform.Ref, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return platform.Ref(fmt.Sprintf("file:///cache/camera/capture_%d.jpg", f.n)), nil
}

type mockGrants struct {
	mock.Mock
}

func (m *mockGrants) TakePersistable(ref platform.Ref) error {
	return m.Called(ref).Error(0)
}

type fixture struct {
	perms    *fakePermissions
	gate     *permission.Gate
	launcher *fakeLauncher
	capture  *fakeCapture
	grants   *mockGrants
	metrics  *monitoring.Metrics
	broker   *Broker
}

func newFixture(camera platform.PermissionState) *fixture {
	f := &fixture{
		perms: &fakePermissions{states: map[platform.Capability]platform.PermissionState{
			platform.CapabilityCamera: camera,
		}},
		launcher: &fakeLauncher{},
		capture:  &fakeCapture{},
		grants:   new(mockGrants),
		metrics:  monitoring.NewMetrics(),
	}
	f.gate = permission.NewGate(f.perms, nil, nil)
	f.broker = NewBroker(Deps{
		Capabilities: platform.Resolve(29, true),
		Gate:         f.gate,
		Launcher:     f.launcher,
		Capture:      f.capture,
		Grants:       f.grants,
		Metrics:      f.metrics,
	})
	return f
}

// listResults collects ListSink deliveries.
type listResults struct {
	calls [][]platform.Ref
}

func (l *listResults) sink() ListSink {
	return func(refs []platform.Ref) { l.calls = append(l.calls, refs) }
}

func TestPickerWithCaptureWhenCameraGranted(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	var got listResults

	token := f.broker.Begin(Selection{
		Accept:         []string{"image/*", "application/pdf"},
		AllowMultiple:  true,
		CaptureAllowed: true,
		Sink:           got.sink(),
	})

	l := f.launcher.last(t)
	assert.Equal(t, token, l.token)
	assert.Equal(t, "image/*", l.intent.Picker.PrimaryType)
	assert.Equal(t, []string{"image/*", "application/pdf"}, l.intent.Picker.MimeTypes)
	assert.True(t, l.intent.Picker.AllowMultiple)
	require.True(t, l.intent.Composite())
	assert.Equal(t, platform.Ref("file:///cache/camera/capture_1.jpg"), l.intent.Capture.Output)
	assert.Equal(t, StateAwaitingResult, f.broker.State())
	assert.Empty(t, f.perms.requests)

	// OK with no items returns the capture destination
	f.broker.OnActivityResult(token, ActivityResult{OK: true})
	assert.Equal(t, [][]platform.Ref{{"file:///cache/camera/capture_1.jpg"}}, got.calls)
	assert.Equal(t, StateIdle, f.broker.State())
}

func TestCameraDeniedStillOpensPicker(t *testing.T) {
	f := newFixture(platform.PermissionDenied)
	var got listResults

	token := f.broker.Begin(Selection{CaptureAllowed: true, Sink: got.sink()})

	assert.Equal(t, StateAwaitingCapturePermission, f.broker.State())
	assert.Equal(t, []platform.Capability{platform.CapabilityCamera}, f.perms.requests)
	assert.Empty(t, f.launcher.launches)

	f.gate.Resolve(platform.CapabilityCamera, false)

	l := f.launcher.last(t)
	assert.Equal(t, token, l.token)
	assert.False(t, l.intent.Composite())
	assert.Equal(t, "*/*", l.intent.Picker.PrimaryType)
	assert.Zero(t, f.capture.n)
	assert.Equal(t, StateAwaitingResult, f.broker.State())
	assert.Empty(t, got.calls)
}

func TestCameraGrantedAfterPrompt(t *testing.T) {
	f := newFixture(platform.PermissionUnknown)

	f.broker.Begin(Selection{CaptureAllowed: true, Sink: ListSink(func([]platform.Ref) {})})
	f.gate.Resolve(platform.CapabilityCamera, true)

	assert.True(t, f.launcher.last(t).intent.Composite())
}

func TestCaptureNotOfferedWithoutCamera(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.broker.caps.CameraAvailable = false

	f.broker.Begin(Selection{CaptureAllowed: true, Sink: ListSink(func([]platform.Ref) {})})

	assert.False(t, f.launcher.last(t).intent.Composite())
	assert.Empty(t, f.perms.requests)
}

func TestCaptureAllocationFailureFallsBackToPicker(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.capture.err = errors.New("disk full")
	var got listResults

	token := f.broker.Begin(Selection{CaptureAllowed: true, Sink: got.sink()})
	assert.False(t, f.launcher.last(t).intent.Composite())

	// Without a capture destination an empty OK result is no result
	f.broker.OnActivityResult(token, ActivityResult{OK: true})
	assert.Equal(t, [][]platform.Ref{nil}, got.calls)
}

func TestMultipleItemsDeliveredWithGrants(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	items := []platform.Ref{"content://a", "content://b", "content://c"}
	f.grants.On("TakePersistable", platform.Ref("content://a")).Return(nil)
	f.grants.On("TakePersistable", platform.Ref("content://b")).Return(errors.New("not persistable"))
	f.grants.On("TakePersistable", platform.Ref("content://c")).Return(nil)

	var got listResults
	var legacy []platform.Ref

	token := f.broker.Begin(Selection{AllowMultiple: false, Sink: got.sink()})
	f.broker.OnActivityResult(token, ActivityResult{OK: true, Items: items})
	assert.Equal(t, [][]platform.Ref{items}, got.calls)
	f.grants.AssertNumberOfCalls(t, "TakePersistable", 3)

	token = f.broker.Begin(Selection{Legacy: true, Sink: LegacySink(func(ref platform.Ref) { legacy = append(legacy, ref) })})
	f.broker.OnActivityResult(token, ActivityResult{OK: true, Items: items})
	assert.Equal(t, []platform.Ref{"content://a"}, legacy)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.UploadResults.WithLabelValues("multiple")))
}

func TestSingleItem(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.grants.On("TakePersistable", platform.Ref("content://doc/1")).Return(nil).Once()
	var got listResults

	token := f.broker.Begin(Selection{Sink: got.sink()})
	f.broker.OnActivityResult(token, ActivityResult{OK: true, Items: []platform.Ref{"content://doc/1"}})

	assert.Equal(t, [][]platform.Ref{{"content://doc/1"}}, got.calls)
	f.grants.AssertExpectations(t)
}

func TestNoGrantsWithoutPersistableSupport(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.broker.caps.PersistableGrants = false

	token := f.broker.Begin(Selection{Sink: ListSink(func([]platform.Ref) {})})
	f.broker.OnActivityResult(token, ActivityResult{OK: true, Items: []platform.Ref{"content://doc/1"}})

	f.grants.AssertNotCalled(t, "TakePersistable", mock.Anything)
}

func TestCancelledResult(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	var got listResults
	var legacy []platform.Ref

	token := f.broker.Begin(Selection{CaptureAllowed: true, Sink: got.sink()})
	f.broker.OnActivityResult(token, ActivityResult{OK: false, Items: []platform.Ref{"content://x"}})
	assert.Equal(t, [][]platform.Ref{nil}, got.calls)

	token = f.broker.Begin(Selection{Legacy: true, Sink: LegacySink(func(ref platform.Ref) { legacy = append(legacy, ref) })})
	f.broker.OnActivityResult(token, ActivityResult{})
	assert.Equal(t, []platform.Ref{""}, legacy)
}

func TestLegacySelectionNeverOffersCapture(t *testing.T) {
	f := newFixture(platform.PermissionDenied)

	f.broker.Begin(Selection{
		Accept:         []string{"image/*"},
		AllowMultiple:  true,
		CaptureAllowed: true,
		Legacy:         true,
		Sink:           LegacySink(func(platform.Ref) {}),
	})

	l := f.launcher.last(t)
	assert.False(t, l.intent.Composite())
	assert.False(t, l.intent.Picker.AllowMultiple)
	assert.Equal(t, "image/*", l.intent.Picker.PrimaryType)
	assert.Nil(t, l.intent.Picker.MimeTypes)
	assert.Empty(t, f.perms.requests)
}

func TestNewSelectionSupersedesPending(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.grants.On("TakePersistable", mock.Anything).Return(nil)
	var first, second listResults

	oldToken := f.broker.Begin(Selection{Sink: first.sink()})
	newToken := f.broker.Begin(Selection{Sink: second.sink()})
	require.NotEqual(t, oldToken, newToken)
	assert.Equal(t, [][]platform.Ref{nil}, first.calls)

	// The superseded launch's result is stale
	f.broker.OnActivityResult(oldToken, ActivityResult{OK: true, Items: []platform.Ref{"content://old"}})
	assert.Empty(t, second.calls)
	assert.Len(t, first.calls, 1)

	f.broker.OnActivityResult(newToken, ActivityResult{OK: true, Items: []platform.Ref{"content://new"}})
	assert.Equal(t, [][]platform.Ref{{"content://new"}}, second.calls)
}

func TestSupersededWhileAwaitingPermission(t *testing.T) {
	f := newFixture(platform.PermissionUnknown)
	var first, second listResults

	f.broker.Begin(Selection{CaptureAllowed: true, Sink: first.sink()})
	f.broker.Begin(Selection{CaptureAllowed: true, Sink: second.sink()})

	// one prompt shared by both selections
	assert.Len(t, f.perms.requests, 1)
	assert.Equal(t, [][]platform.Ref{nil}, first.calls)

	f.gate.Resolve(platform.CapabilityCamera, true)
	require.Len(t, f.launcher.launches, 1)
	assert.Equal(t, f.broker.Token(), f.launcher.launches[0].token)
	assert.Len(t, first.calls, 1)
}

func TestLaunchFailureResolvesEmpty(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.launcher.err = platform.ErrNoHandler
	var got listResults

	f.broker.Begin(Selection{Sink: got.sink()})

	assert.Equal(t, [][]platform.Ref{nil}, got.calls)
	assert.Equal(t, StateIdle, f.broker.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.UploadResults.WithLabelValues("none")))
}

func TestStaleAndDuplicateResultsIgnored(t *testing.T) {
	f := newFixture(platform.PermissionGranted)
	f.grants.On("TakePersistable", mock.Anything).Return(nil)
	var got listResults

	token := f.broker.Begin(Selection{Sink: got.sink()})
	f.broker.OnActivityResult("upl_unknown", ActivityResult{OK: true, Items: []platform.Ref{"content://x"}})
	assert.Empty(t, got.calls)

	f.broker.OnActivityResult(token, ActivityResult{OK: true, Items: []platform.Ref{"content://y"}})
	f.broker.OnActivityResult(token, ActivityResult{OK: true, Items: []platform.Ref{"content://z"}})
	assert.Equal(t, [][]platform.Ref{{"content://y"}}, got.calls)
}

func TestResultWhileAwaitingPermissionIsIgnored(t *testing.T) {
	f := newFixture(platform.PermissionUnknown)
	var got listResults

	token := f.broker.Begin(Selection{CaptureAllowed: true, Sink: got.sink()})
	f.broker.OnActivityResult(token, ActivityResult{OK: true})

	assert.Empty(t, got.calls)
	assert.Equal(t, StateAwaitingCapturePermission, f.broker.State())
}

func TestAbandon(t *testing.T) {
	f := newFixture(platform.PermissionUnknown)
	var got listResults

	f.broker.Begin(Selection{CaptureAllowed: true, Sink: got.sink()})
	f.broker.Abandon()
	assert.Equal(t, [][]platform.Ref{nil}, got.calls)

	// the late permission answer must not launch anything
	f.gate.Resolve(platform.CapabilityCamera, true)
	assert.Empty(t, f.launcher.launches)
	assert.Len(t, got.calls, 1)

	f.broker.Abandon()
	assert.Len(t, got.calls, 1)
}
