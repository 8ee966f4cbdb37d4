package permission

import (
	"errors"
	"testing"

	"github.com/ciphernotes/shell/internal/infrastructure/monitoring"
	"github.com/ciphernotes/shell/internal/platform"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPermissions struct {
	mock.Mock
}

func (m *mockPermissions) State(c platform.Capability) platform.PermissionState {
	args := m.Called(c)
	return args.Get(0).(platform.PermissionState)
}

func (m *mockPermissions) Request(c platform.Capability) error {
	args := m.Called(c)
	return args.Error(0)
}

type recorder struct {
	calls []bool
}

func (r *recorder) cb(granted bool) {
	r.calls = append(r.calls, granted)
}

func TestRequestAlreadyGranted(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", platform.CapabilityCamera).Return(platform.PermissionGranted)

	gate := NewGate(perms, nil, nil)
	var rec recorder
	gate.Request(platform.CapabilityCamera, rec.cb)

	assert.Equal(t, []bool{true}, rec.calls)
	assert.Zero(t, gate.Pending(platform.CapabilityCamera))
	perms.AssertNotCalled(t, "Request", mock.Anything)
}

func TestConcurrentRequestsShareOnePrompt(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", platform.CapabilityCamera).Return(platform.PermissionUnknown)
	perms.On("Request", platform.CapabilityCamera).Return(nil).Once()

	m := monitoring.NewMetrics()
	gate := NewGate(perms, nil, m)
	var a, b, c recorder
	gate.Request(platform.CapabilityCamera, a.cb)
	gate.Request(platform.CapabilityCamera, b.cb)
	gate.Request(platform.CapabilityCamera, c.cb)

	require.Equal(t, 3, gate.Pending(platform.CapabilityCamera))
	assert.Empty(t, a.calls)

	gate.Resolve(platform.CapabilityCamera, true)

	assert.Equal(t, []bool{true}, a.calls)
	assert.Equal(t, []bool{true}, b.calls)
	assert.Equal(t, []bool{true}, c.calls)
	assert.Zero(t, gate.Pending(platform.CapabilityCamera))
	perms.AssertNumberOfCalls(t, "Request", 1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PermissionPrompts.WithLabelValues("camera")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.PermissionOutcomes.WithLabelValues("camera", "granted")))

	// A duplicate OS callback finds no waiters
	gate.Resolve(platform.CapabilityCamera, false)
	assert.Equal(t, []bool{true}, a.calls)
}

func TestCapabilitiesAreIndependent(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", mock.Anything).Return(platform.PermissionDenied)
	perms.On("Request", mock.Anything).Return(nil)

	gate := NewGate(perms, nil, nil)
	var cam, store recorder
	gate.Request(platform.CapabilityCamera, cam.cb)
	gate.Request(platform.CapabilityStorageWrite, store.cb)
	perms.AssertNumberOfCalls(t, "Request", 2)

	gate.Resolve(platform.CapabilityStorageWrite, false)
	assert.Empty(t, cam.calls)
	assert.Equal(t, []bool{false}, store.calls)

	gate.Resolve(platform.CapabilityCamera, true)
	assert.Equal(t, []bool{true}, cam.calls)
}

func TestPromptFailureDenies(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", platform.CapabilityStorageWrite).Return(platform.PermissionUnknown)
	perms.On("Request", platform.CapabilityStorageWrite).Return(errors.New("host detached"))

	gate := NewGate(perms, nil, nil)
	var rec recorder
	gate.Request(platform.CapabilityStorageWrite, rec.cb)

	assert.Equal(t, []bool{false}, rec.calls)
	assert.Zero(t, gate.Pending(platform.CapabilityStorageWrite))
}

func TestWaiterMayRequestAgain(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", platform.CapabilityCamera).Return(platform.PermissionDenied)
	perms.On("Request", platform.CapabilityCamera).Return(nil)

	gate := NewGate(perms, nil, nil)
	var second recorder
	gate.Request(platform.CapabilityCamera, func(granted bool) {
		gate.Request(platform.CapabilityCamera, second.cb)
	})
	gate.Resolve(platform.CapabilityCamera, false)

	assert.Equal(t, 1, gate.Pending(platform.CapabilityCamera))
	perms.AssertNumberOfCalls(t, "Request", 2)

	gate.Resolve(platform.CapabilityCamera, true)
	assert.Equal(t, []bool{true}, second.calls)
}

func TestDenyAll(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", mock.Anything).Return(platform.PermissionUnknown)
	perms.On("Request", mock.Anything).Return(nil)

	gate := NewGate(perms, nil, nil)
	var cam, store recorder
	gate.Request(platform.CapabilityCamera, cam.cb)
	gate.Request(platform.CapabilityStorageWrite, store.cb)

	gate.DenyAll()

	assert.Equal(t, []bool{false}, cam.calls)
	assert.Equal(t, []bool{false}, store.calls)
}
