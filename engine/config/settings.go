package config

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MovementSettings converts [movement] into controls.MovementConfig.
func (c *Config) MovementSettings() controls.MovementConfig {
	cfg := controls.DefaultMovementConfig()
	m := c.Movement
	cfg.WalkSpeed = m.WalkSpeed
	cfg.SprintFactor = m.SprintFactor
	cfg.Gravity = m.Gravity
	cfg.JumpImpulse = m.JumpImpulse
	cfg.TerminalVelocity = m.TerminalVelocity
	cfg.GroundOffset = m.GroundOffset
	cfg.StepMargin = m.StepMargin
	cfg.LookSensitivity = m.LookSensitivity
	cfg.MinPolarAngle = mgl32.DegToRad(m.MinPolarDegrees)
	cfg.MaxPolarAngle = mgl32.DegToRad(m.MaxPolarDegrees)
	cfg.GroundName = c.Viewer.Ground
	return cfg
}

// OrbitSettings converts [orbit] into controls.OrbitConfig.
func (c *Config) OrbitSettings() controls.OrbitConfig {
	return c.Orbit.apply(controls.DefaultOrbitConfig(), c.Viewer.Ground)
}

// MapSettings converts [map] into controls.OrbitConfig. Button bindings keep the map layout.
func (c *Config) MapSettings() controls.OrbitConfig {
	return c.Map.apply(controls.DefaultMapConfig(), c.Viewer.Ground)
}

// TrackballSettings converts [trackball] into controls.TrackballConfig.
func (c *Config) TrackballSettings() controls.TrackballConfig {
	cfg := controls.DefaultTrackballConfig()
	t := c.Trackball
	cfg.RotateSpeed = t.RotateSpeed
	cfg.ZoomSpeed = t.ZoomSpeed
	cfg.PanSpeed = t.PanSpeed
	cfg.NoRotate = t.NoRotate
	cfg.NoZoom = t.NoZoom
	cfg.NoPan = t.NoPan
	cfg.StaticMoving = t.StaticMoving
	cfg.DynamicDampingFactor = t.DynamicDampingFactor
	cfg.MinDistance = t.MinDistance
	cfg.MaxDistance = unbounded(t.MaxDistance)
	cfg.GroundName = c.Viewer.Ground
	return cfg
}

// ResolverOptions returns the resolver options carrying every mode's settings.
//
// Returns:
//   - []controls.ResolverBuilderOption: options for controls.NewResolver
func (c *Config) ResolverOptions() []controls.ResolverBuilderOption {
	return []controls.ResolverBuilderOption{
		controls.WithMovement(c.MovementSettings()),
		controls.WithOrbit(c.OrbitSettings()),
		controls.WithMap(c.MapSettings()),
		controls.WithTrackball(c.TrackballSettings()),
	}
}

// CameraOptions returns the camera options for [camera]. The camera looks at look_at
// unless it coincides with position.
//
// Parameters:
//   - aspect: the initial viewport aspect ratio
//
// Returns:
//   - []camera.CameraBuilderOption: options for camera.NewCamera
func (c *Config) CameraOptions(aspect float32) []camera.CameraBuilderOption {
	pos := mgl32.Vec3(c.Camera.Position)
	target := mgl32.Vec3(c.Camera.LookAt)
	opts := []camera.CameraBuilderOption{
		camera.WithFov(mgl32.DegToRad(c.Camera.FovDegrees)),
		camera.WithNear(c.Camera.Near),
		camera.WithFar(c.Camera.Far),
		camera.WithAspect(aspect),
		camera.WithPosition(pos),
	}
	if !pos.ApproxEqual(target) {
		opts = append(opts, camera.WithLookAt(target))
	}
	return opts
}

func (o OrbitConfig) apply(cfg controls.OrbitConfig, ground string) controls.OrbitConfig {
	cfg.EnableDamping = o.EnableDamping
	cfg.DampingFactor = o.DampingFactor
	cfg.RotateSpeed = o.RotateSpeed
	cfg.ZoomSpeed = o.ZoomSpeed
	cfg.PanSpeed = o.PanSpeed
	cfg.KeyPanSpeed = o.KeyPanSpeed
	cfg.MinDistance = o.MinDistance
	cfg.MaxDistance = unbounded(o.MaxDistance)
	cfg.MinPolarAngle = mgl32.DegToRad(o.MinPolarDegrees)
	cfg.MaxPolarAngle = mgl32.DegToRad(o.MaxPolarDegrees)
	cfg.ScreenSpacePanning = o.ScreenSpacePanning
	cfg.GroundName = ground
	return cfg
}

func orbitFrom(cfg controls.OrbitConfig) OrbitConfig {
	return OrbitConfig{
		EnableDamping:      cfg.EnableDamping,
		DampingFactor:      cfg.DampingFactor,
		RotateSpeed:        cfg.RotateSpeed,
		ZoomSpeed:          cfg.ZoomSpeed,
		PanSpeed:           cfg.PanSpeed,
		KeyPanSpeed:        cfg.KeyPanSpeed,
		MinDistance:        cfg.MinDistance,
		MaxDistance:        bounded(cfg.MaxDistance),
		MinPolarDegrees:    degrees(cfg.MinPolarAngle),
		MaxPolarDegrees:    degrees(cfg.MaxPolarAngle),
		ScreenSpacePanning: cfg.ScreenSpacePanning,
	}
}

func trackballFrom(cfg controls.TrackballConfig) TrackballConfig {
	return TrackballConfig{
		RotateSpeed:          cfg.RotateSpeed,
		ZoomSpeed:            cfg.ZoomSpeed,
		PanSpeed:             cfg.PanSpeed,
		NoRotate:             cfg.NoRotate,
		NoZoom:               cfg.NoZoom,
		NoPan:                cfg.NoPan,
		StaticMoving:         cfg.StaticMoving,
		DynamicDampingFactor: cfg.DynamicDampingFactor,
		MinDistance:          cfg.MinDistance,
		MaxDistance:          bounded(cfg.MaxDistance),
	}
}

// degrees rounds to 1e-4 so π round-trips to exactly 180.
func degrees(rad float32) float32 {
	return float32(math.Round(float64(mgl32.RadToDeg(rad))*1e4) / 1e4)
}

// unbounded maps the TOML "0 = no limit" convention onto +Inf.
func unbounded(d float32) float32 {
	if d <= 0 {
		return math32.Inf(1)
	}
	return d
}

func bounded(d float32) float32 {
	if math32.IsInf(d, 1) {
		return 0
	}
	return d
}
