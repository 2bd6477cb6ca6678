package controls

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/surface"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cam     camera.Camera
	surf    *surface.Virtual
	scene   scene.Scene
	changes int
	locks   []bool
}

func newFixture(camOpts []camera.CameraBuilderOption, surfOpts ...surface.VirtualBuilderOption) *fixture {
	return &fixture{
		cam:  camera.NewCamera(camOpts...),
		surf: surface.NewVirtual(surfOpts...),
		scene: scene.NewScene("test",
			scene.WithRaycastWorkers(1),
			scene.WithNodes(&scene.Node{Name: DefaultGroundName, Mesh: scene.NewGrid(200, 10, 0)}),
		),
	}
}

func (f *fixture) bindings() Bindings {
	return Bindings{
		Camera:       f.cam,
		Surface:      f.surf,
		Scene:        f.scene,
		OnChange:     func() { f.changes++ },
		OnLockChange: func(locked bool) { f.locks = append(f.locks, locked) },
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

var allTypes = []event.Type{
	event.TypeKeyDown, event.TypeKeyUp,
	event.TypePointerDown, event.TypePointerMove, event.TypePointerUp,
	event.TypeWheel, event.TypePointerLockChange, event.TypePointerLockError,
}

// listeners counts live subscriptions of every type on the surface.
func (f *fixture) listeners() int {
	n := 0
	for _, typ := range allTypes {
		n += f.surf.Count(typ)
	}
	return n
}

func TestMissingDependencies(t *testing.T) {
	f := newFixture(nil)

	b := f.bindings()
	b.Camera = nil
	_, err := NewPointerLock(b, DefaultMovementConfig())
	require.ErrorIs(t, err, ErrMissingDependency)
	var missing *MissingDependencyError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "camera", missing.Dependency)
	assert.Equal(t, ModePointerLock, missing.Mode)

	b = f.bindings()
	b.Surface = nil
	_, err = NewOrbit(ModeOrbit, b, DefaultOrbitConfig())
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewTrackball(b, DefaultTrackballConfig())
	assert.ErrorIs(t, err, ErrMissingDependency)

	b = f.bindings()
	b.Scene = nil
	_, err = NewPointerLock(b, DefaultMovementConfig())
	assert.ErrorIs(t, err, ErrMissingDependency, "pointer-lock needs a scene")
	_, err = NewOrbit(ModeMap, b, DefaultMapConfig())
	assert.NoError(t, err, "map works without a scene")
}

func TestDestroyBeforeCreate(t *testing.T) {
	f := newFixture([]camera.CameraBuilderOption{camera.WithPosition(mgl32.Vec3{0, 10, 20})})
	r := NewResolver(WithResolveWorkers(0))

	for _, mode := range Modes {
		factory, err := r.Resolve(t.Context(), mode)
		require.NoError(t, err)
		p, err := factory(f.bindings())
		require.NoError(t, err)
		assert.Equal(t, mode, p.Mode())

		assert.NotPanics(t, p.Destroy, "%s", mode)
		assert.NotPanics(t, p.Destroy, "%s twice", mode)
		assert.ErrorIs(t, p.CreateControls(), ErrDestroyed, "%s", mode)
	}
	assert.Zero(t, f.listeners())
}
