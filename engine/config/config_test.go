package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, string(controls.ModeOrbit), cfg.Viewer.Mode)
	assert.Equal(t, float32(180), cfg.Movement.MaxPolarDegrees)
	assert.Zero(t, cfg.Orbit.MaxDistance, "unbounded distances are written as 0")
}

func TestDecodeKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
[viewer]
mode = "pointer-lock"
model = "city.glb"

[movement]
walk_speed = 20

[orbit]
max_distance = 500

[[objects]]
file = "a.ply"
position = [1, 2, 3]
scale = 2

[[places]]
abbr = "hq"
name = "Headquarters"
position = [10, 0, -4]
`))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "pointer-lock", cfg.Viewer.Mode)
	assert.Equal(t, "city.glb", cfg.Viewer.Model)
	assert.Equal(t, def.Viewer.Ground, cfg.Viewer.Ground)
	assert.Equal(t, def.Window, cfg.Window)
	assert.Equal(t, float32(20), cfg.Movement.WalkSpeed)
	assert.Equal(t, def.Movement.Gravity, cfg.Movement.Gravity)

	require.Len(t, cfg.Objects, 1)
	assert.Equal(t, []float32{1, 2, 3}, cfg.Objects[0].Position)
	p, ok := cfg.FindPlace("HQ")
	require.True(t, ok)
	assert.Equal(t, [3]float32{10, 0, -4}, p.Position)
	_, ok = cfg.FindPlace("headquarters")
	assert.True(t, ok)
	_, ok = cfg.FindPlace("nowhere")
	assert.False(t, ok)

	assert.Equal(t, float32(500), cfg.OrbitSettings().MaxDistance)
	assert.True(t, math32.IsInf(cfg.TrackballSettings().MaxDistance, 1))
}

func TestDecodeRejectsInvalidValues(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown mode":     "[viewer]\nmode = \"fly\"",
		"zero width":       "[window]\nwidth = 0",
		"negative minimum": "[window]\nmin_width = -1",
		"near beyond far":  "[camera]\nnear = 10\nfar = 5",
		"fov":              "[camera]\nfov_degrees = 180",
		"negative gravity": "[movement]\ngravity = -1",
		"polar order":      "[orbit]\nmin_polar_degrees = 100\nmax_polar_degrees = 10",
		"damping":          "[map]\ndamping_factor = 0",
		"clear color":      "[renderer]\nclear_color = \"red\"",
		"log level":        "[viewer]\nlog_level = \"loud\"",
		"missing place":    "[viewer]\nplace = \"hq\"",
		"duplicate place":  "[[places]]\nabbr = \"a\"\n[[places]]\nabbr = \"A\"",
		"object matrix":    "[[objects]]\nfile = \"a.ply\"\nmatrix = [1, 0]",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestValidateReportsFirstInvalidFieldInOrder(t *testing.T) {
	doc := "[movement]\nwalk_speed = -1\ngravity = -1\nlook_sensitivity = -1\n" +
		"[orbit]\ndamping_factor = 0\n[map]\ndamping_factor = 0\n"
	for range 20 {
		_, err := Decode(strings.NewReader(doc))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "movement.walk_speed", verr.Field)
	}

	for range 20 {
		_, err := Decode(strings.NewReader("[orbit]\ndamping_factor = 0\n[map]\ndamping_factor = 0\n"))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "orbit.damping_factor", verr.Field)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[viewer]\nmodle = \"x.glb\""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle")

	_, err = Decode(strings.NewReader("[viewer\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte("[viewer]\nlog_level = \"debug\"\n[renderer]\nclear_color = \"#0073b6\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	color, err := cfg.ClearColor()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0073b6), color)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettingsConversions(t *testing.T) {
	cfg := Default()
	cfg.Viewer.Ground = "terrain"
	cfg.Movement.MaxPolarDegrees = 90

	mv := cfg.MovementSettings()
	assert.InDelta(t, math32.Pi/2, mv.MaxPolarAngle, 1e-6)
	assert.Equal(t, "terrain", mv.GroundName)

	def := controls.DefaultMapConfig()
	mp := cfg.MapSettings()
	assert.Equal(t, def.Buttons, mp.Buttons)
	assert.Equal(t, def.EnableDamping, mp.EnableDamping)
	assert.Equal(t, def.ScreenSpacePanning, mp.ScreenSpacePanning)
	assert.Equal(t, "terrain", mp.GroundName)

	orbit := cfg.OrbitSettings()
	assert.InDelta(t, controls.DefaultOrbitConfig().MaxPolarAngle, orbit.MaxPolarAngle, 1e-6)
	assert.True(t, math32.IsInf(orbit.MaxDistance, 1))

	assert.Len(t, cfg.ResolverOptions(), 4)
	assert.Len(t, cfg.CameraOptions(16.0/9), 6, "look_at differs from position")
	cfg.Camera.LookAt = cfg.Camera.Position
	assert.Len(t, cfg.CameraOptions(1), 5)
}
