package modelrouter

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRouteSensitiveContentStaysLocal(t *testing.T) {
	d := Route("report", "管理员密码重置流程", "")
	assert.Equal(t, ProviderLocal, d.Provider)
	assert.False(t, d.Isolation.Network)
	assert.True(t, d.Isolation.Persistence)
	assert.True(t, d.Isolation.RedactSecrets)
}

func TestRouteNeutralContentGoesOnline(t *testing.T) {
	d := Route("report", "如何优化前端加载速度", "")
	assert.Equal(t, ProviderOnline, d.Provider)
	assert.True(t, d.Isolation.Network)
	assert.False(t, d.Isolation.Persistence)
	assert.True(t, d.Isolation.RedactSecrets)
}

func TestRouteExplicitInternalSensitivity(t *testing.T) {
	d := Route("summarize", "nothing sensitive here", "internal")
	assert.Equal(t, ProviderLocal, d.Provider)
}

func TestRouteKeywordsAreCaseInsensitive(t *testing.T) {
	d := Route("report", "rotate the API TOKEN for the gateway", "")
	assert.Equal(t, ProviderLocal, d.Provider)
}

func TestRegistrySeedsOneActivePerProvider(t *testing.T) {
	r := NewRegistry(quietLogger())

	local, err := r.Active(ProviderLocal)
	require.NoError(t, err)
	assert.True(t, local.Active)

	online, err := r.Active(ProviderOnline)
	require.NoError(t, err)
	assert.True(t, online.Active)
}

func TestRegisterActiveDeactivatesSiblings(t *testing.T) {
	r := NewRegistry(quietLogger())

	_, err := r.Register(Descriptor{ID: "local-a", Provider: ProviderLocal, Name: "a", Version: "1", Active: true})
	require.NoError(t, err)
	_, err = r.Register(Descriptor{ID: "local-b", Provider: ProviderLocal, Name: "b", Version: "2", Active: true})
	require.NoError(t, err)

	active, err := r.Active(ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, "local-b", active.ID)

	activeCount := 0
	for _, d := range r.List(ProviderLocal) {
		if d.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestActivateFlipsSiblings(t *testing.T) {
	r := NewRegistry(quietLogger())
	_, err := r.Register(Descriptor{ID: "online-new", Provider: ProviderOnline, Name: "n", Version: "1"})
	require.NoError(t, err)

	activated, err := r.Activate(ProviderOnline, "online-new")
	require.NoError(t, err)
	assert.True(t, activated.Active)

	active, err := r.Active(ProviderOnline)
	require.NoError(t, err)
	assert.Equal(t, "online-new", active.ID)
}

func TestActivateUnknownModel(t *testing.T) {
	r := NewRegistry(quietLogger())
	_, err := r.Activate(ProviderLocal, "nope")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestRegisterRejectsInvalidProvider(t *testing.T) {
	r := NewRegistry(quietLogger())
	_, err := r.Register(Descriptor{ID: "x", Provider: "cloud"})
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestActiveFallsBackWithoutActiveDescriptor(t *testing.T) {
	r := &Registry{logger: quietLogger()}

	d, err := r.Active(ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, "local-unknown", d.ID)

	_, err = r.Register(Descriptor{ID: "local-x", Provider: ProviderLocal, Name: "x", Version: "1"})
	require.NoError(t, err)
	d, err = r.Active(ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, "local-x", d.ID, "inactive entry still resolves as fallback")
}

func TestListFiltersByProvider(t *testing.T) {
	r := NewRegistry(quietLogger())
	assert.Len(t, r.List(""), 2)
	assert.Len(t, r.List(ProviderLocal), 1)
	assert.Len(t, r.List(ProviderOnline), 1)
}

func TestRegistryBounded(t *testing.T) {
	r := NewRegistry(quietLogger())
	for i := 0; i < maxDescriptors+10; i++ {
		_, err := r.Register(Descriptor{ID: "local-bulk", Provider: ProviderLocal, Name: "bulk", Version: "1"})
		require.NoError(t, err)
	}
	assert.Len(t, r.List(""), maxDescriptors)
}
