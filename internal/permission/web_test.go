package permission

import (
	"testing"

	"github.com/ciphernotes/shell/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockDecider struct {
	mock.Mock
}

func (m *mockDecider) Grant(req WebRequest) { m.Called(req) }
func (m *mockDecider) Deny(req WebRequest)  { m.Called(req) }

func TestWebRequestWithoutCameraIsGranted(t *testing.T) {
	perms := new(mockPermissions)
	decider := new(mockDecider)
	req := WebRequest{ID: "w1", Resources: []string{"android.webkit.resource.AUDIO_CAPTURE"}}
	decider.On("Grant", req).Return().Once()

	web := NewWebRequests(NewGate(perms, nil, nil), decider, nil)
	web.Handle(req)

	decider.AssertExpectations(t)
	perms.AssertNotCalled(t, "State", mock.Anything)
}

func TestWebRequestWaitsForCamera(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", platform.CapabilityCamera).Return(platform.PermissionUnknown)
	perms.On("Request", platform.CapabilityCamera).Return(nil).Once()

	decider := new(mockDecider)
	granted := WebRequest{ID: "w1", Resources: []string{ResourceVideoCapture}}
	denied := WebRequest{ID: "w2", Resources: []string{ResourceVideoCapture}}

	gate := NewGate(perms, nil, nil)
	web := NewWebRequests(gate, decider, nil)
	web.Handle(granted)
	web.Handle(denied)
	assert.Equal(t, 2, web.Pending())

	web.Cancel("w2")
	decider.On("Grant", granted).Return().Once()
	gate.Resolve(platform.CapabilityCamera, true)

	decider.AssertExpectations(t)
	decider.AssertNotCalled(t, "Deny", mock.Anything)
	decider.AssertNotCalled(t, "Grant", denied)
	assert.Zero(t, web.Pending())
}

func TestWebRequestDenied(t *testing.T) {
	perms := new(mockPermissions)
	perms.On("State", platform.CapabilityCamera).Return(platform.PermissionDenied)
	perms.On("Request", platform.CapabilityCamera).Return(nil)

	decider := new(mockDecider)
	req := WebRequest{ID: "w1", Resources: []string{ResourceVideoCapture}}
	decider.On("Deny", req).Return().Once()

	gate := NewGate(perms, nil, nil)
	web := NewWebRequests(gate, decider, nil)
	web.Handle(req)
	gate.Resolve(platform.CapabilityCamera, false)

	decider.AssertExpectations(t)
}

func TestCancelUnknownIsNoop(t *testing.T) {
	web := NewWebRequests(NewGate(new(mockPermissions), nil, nil), new(mockDecider), nil)
	web.Cancel("missing")
	assert.Zero(t, web.Pending())
}
