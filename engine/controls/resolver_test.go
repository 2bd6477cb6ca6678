package controls

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverBuiltins(t *testing.T) {
	for _, workers := range []int{0, 2} {
		r := NewResolver(WithResolveWorkers(workers))
		assert.ElementsMatch(t, Modes, r.Modes())

		f := newFixture(overview)
		for _, mode := range Modes {
			factory, err := r.Resolve(t.Context(), mode)
			require.NoError(t, err, "workers=%d mode=%s", workers, mode)
			p, err := factory(f.bindings())
			require.NoError(t, err)
			assert.Equal(t, mode, p.Mode())
		}
	}
}

func TestResolverUnknownMode(t *testing.T) {
	r := NewResolver()
	factory, err := r.Resolve(t.Context(), Mode("fly"))
	assert.Nil(t, factory)
	require.ErrorIs(t, err, ErrConfiguration)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, Mode("fly"), cfgErr.Mode)
	assert.Contains(t, err.Error(), `"fly"`)
}

func TestResolverCancelledContext(t *testing.T) {
	r := NewResolver()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := r.Resolve(ctx, ModeOrbit)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolverRegister(t *testing.T) {
	r := NewResolver(WithResolveWorkers(0))
	called := false
	r.Register("custom", func(b Bindings) (Provider, error) {
		called = true
		return NewOrbit("custom", b, DefaultOrbitConfig())
	})
	factory, err := r.Resolve(t.Context(), "custom")
	require.NoError(t, err)
	_, err = factory(newFixture(overview).bindings())
	require.NoError(t, err)
	assert.True(t, called)

	r.Register(ModeTrackball, nil)
	_, err = r.Resolve(t.Context(), ModeTrackball)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResolverPassesSettings(t *testing.T) {
	mv := DefaultMovementConfig()
	mv.WalkSpeed = 3
	r := NewResolver(WithMovement(mv), WithResolveWorkers(0))

	factory, err := r.Resolve(t.Context(), ModePointerLock)
	require.NoError(t, err)
	p, err := factory(newFixture(overview).bindings())
	require.NoError(t, err)
	pl, ok := p.(*PointerLock)
	require.True(t, ok)
	assert.Equal(t, float32(3), pl.cfg.WalkSpeed)
}

func TestResolverStop(t *testing.T) {
	r := NewResolver(WithResolveWorkers(2))
	r.Stop()
	r.Stop()
	assert.Nil(t, r.(*resolverImpl).pool)

	factory, err := r.Resolve(t.Context(), ModeMap)
	require.NoError(t, err, "lookups complete inline once the workers are gone")
	p, err := factory(newFixture(overview).bindings())
	require.NoError(t, err)
	assert.Equal(t, ModeMap, p.Mode())
}
