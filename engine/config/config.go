// Package config loads the viewer's TOML configuration.
// Every key is optional; a file only needs the values it overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("config: invalid value")

// ValidationError names the offending key.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Config is the root of the TOML document.
type Config struct {
	Window    WindowConfig    `toml:"window"`
	Viewer    ViewerConfig    `toml:"viewer"`
	Camera    CameraConfig    `toml:"camera"`
	Movement  MovementConfig  `toml:"movement"`
	Orbit     OrbitConfig     `toml:"orbit"`
	Map       OrbitConfig     `toml:"map"`
	Trackball TrackballConfig `toml:"trackball"`
	Renderer  RendererConfig  `toml:"renderer"`

	// Objects, when present, replace viewer.model with a list of placed files.
	Objects []loader.Object `toml:"objects"`
	// Places are warp targets.
	Places []Place `toml:"places"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// MinWidth and MinHeight bound interactive resizing.
	MinWidth  int `toml:"min_width"`
	MinHeight int `toml:"min_height"`
	// FrameLimit caps the loop in frames per second; 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit"`
}

type ViewerConfig struct {
	// Mode is the control mode selected at startup.
	Mode string `toml:"mode"`
	// Model is a .gltf, .glb, .ply or .json object list; empty shows a grid.
	Model string `toml:"model"`
	// Ground is the scene node name controls probe for walkable geometry.
	Ground   string `toml:"ground"`
	LogLevel string `toml:"log_level"`
	Profile  bool   `toml:"profile"`
	// Place is the abbreviation or name of a place to warp to at startup.
	Place string `toml:"place"`
	// Watch reloads the model when its files change on disk.
	Watch bool `toml:"watch"`
}

type CameraConfig struct {
	FovDegrees float32    `toml:"fov_degrees"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
	Position   [3]float32 `toml:"position"`
	LookAt     [3]float32 `toml:"look_at"`
}

// MovementConfig mirrors controls.MovementConfig with polar limits in degrees.
type MovementConfig struct {
	WalkSpeed        float32 `toml:"walk_speed"`
	SprintFactor     float32 `toml:"sprint_factor"`
	Gravity          float32 `toml:"gravity"`
	JumpImpulse      float32 `toml:"jump_impulse"`
	TerminalVelocity float32 `toml:"terminal_velocity"`
	GroundOffset     float32 `toml:"ground_offset"`
	StepMargin       float32 `toml:"step_margin"`
	LookSensitivity  float32 `toml:"look_sensitivity"`
	MinPolarDegrees  float32 `toml:"min_polar_degrees"`
	MaxPolarDegrees  float32 `toml:"max_polar_degrees"`
}

// OrbitConfig configures the orbit and map modes. MaxDistance 0 means unbounded.
type OrbitConfig struct {
	EnableDamping      bool    `toml:"enable_damping"`
	DampingFactor      float32 `toml:"damping_factor"`
	RotateSpeed        float32 `toml:"rotate_speed"`
	ZoomSpeed          float32 `toml:"zoom_speed"`
	PanSpeed           float32 `toml:"pan_speed"`
	KeyPanSpeed        float32 `toml:"key_pan_speed"`
	MinDistance        float32 `toml:"min_distance"`
	MaxDistance        float32 `toml:"max_distance"`
	MinPolarDegrees    float32 `toml:"min_polar_degrees"`
	MaxPolarDegrees    float32 `toml:"max_polar_degrees"`
	ScreenSpacePanning bool    `toml:"screen_space_panning"`
}

// TrackballConfig configures the trackball mode. MaxDistance 0 means unbounded.
type TrackballConfig struct {
	RotateSpeed          float32 `toml:"rotate_speed"`
	ZoomSpeed            float32 `toml:"zoom_speed"`
	PanSpeed             float32 `toml:"pan_speed"`
	NoRotate             bool    `toml:"no_rotate"`
	NoZoom               bool    `toml:"no_zoom"`
	NoPan                bool    `toml:"no_pan"`
	StaticMoving         bool    `toml:"static_moving"`
	DynamicDampingFactor float32 `toml:"dynamic_damping_factor"`
	MinDistance          float32 `toml:"min_distance"`
	MaxDistance          float32 `toml:"max_distance"`
}

type RendererConfig struct {
	// ClearColor is a "#rrggbb" hex color, also used as the fog color.
	ClearColor  string  `toml:"clear_color"`
	FogDistance float32 `toml:"fog_distance"`
	MSAA        bool    `toml:"msaa"`
	VSync       bool    `toml:"vsync"`
	// ChunkTriangles sets the culling and raycast granularity of loaded meshes.
	ChunkTriangles int `toml:"chunk_triangles"`
}

// Place is a named warp target.
type Place struct {
	Abbr     string     `toml:"abbr"`
	Name     string     `toml:"name"`
	Position [3]float32 `toml:"position"`
}

// Default returns the configuration used for keys a file leaves out.
//
// Returns:
//   - *Config: a fresh default configuration
func Default() *Config {
	mv := controls.DefaultMovementConfig()
	orbit := controls.DefaultOrbitConfig()
	mp := controls.DefaultMapConfig()
	tb := controls.DefaultTrackballConfig()

	return &Config{
		Window: WindowConfig{Title: "oxy-viewer", Width: 1280, Height: 720, MinWidth: 320, MinHeight: 200},
		Viewer: ViewerConfig{
			Mode:     string(controls.ModeOrbit),
			Ground:   controls.DefaultGroundName,
			LogLevel: "info",
			Watch:    true,
		},
		Camera: CameraConfig{
			FovDegrees: 60,
			Near:       1,
			Far:        2000,
			Position:   [3]float32{20, -10, 20},
		},
		Movement: MovementConfig{
			WalkSpeed:        mv.WalkSpeed,
			SprintFactor:     mv.SprintFactor,
			Gravity:          mv.Gravity,
			JumpImpulse:      mv.JumpImpulse,
			TerminalVelocity: mv.TerminalVelocity,
			GroundOffset:     mv.GroundOffset,
			StepMargin:       mv.StepMargin,
			LookSensitivity:  mv.LookSensitivity,
			MinPolarDegrees:  degrees(mv.MinPolarAngle),
			MaxPolarDegrees:  degrees(mv.MaxPolarAngle),
		},
		Orbit:     orbitFrom(orbit),
		Map:       orbitFrom(mp),
		Trackball: trackballFrom(tb),
		Renderer: RendererConfig{
			ClearColor:  "#050505",
			FogDistance: 4000,
			MSAA:        true,
			VSync:       true,
		},
	}
}

// Load reads path over Default. Unknown keys are errors so typos do not pass silently.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - *Config: the validated configuration
//   - error: a read, decode or ValidationError
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a TOML document over Default and validates it.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - *Config: the validated configuration
//   - error: a decode or ValidationError
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, len(strict.Errors))
			for i, e := range strict.Errors {
				keys[i] = strings.Join(e.Key(), ".")
			}
			return nil, fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
//
// Returns:
//   - error: the first ValidationError found, or nil
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window", "size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		return invalid("window", "minimum size %dx%d must not be negative", c.Window.MinWidth, c.Window.MinHeight)
	}
	if c.Window.FrameLimit < 0 {
		return invalid("window.frame_limit", "must not be negative")
	}
	if !isMode(c.Viewer.Mode) {
		return invalid("viewer.mode", "unknown mode %q", c.Viewer.Mode)
	}
	if c.Viewer.Ground == "" {
		return invalid("viewer.ground", "must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("viewer.log_level", "%v", err)
	}
	if c.Viewer.Place != "" {
		if _, ok := c.FindPlace(c.Viewer.Place); !ok {
			return invalid("viewer.place", "no place %q", c.Viewer.Place)
		}
	}

	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return invalid("camera.fov_degrees", "%v is outside (0, 180)", c.Camera.FovDegrees)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return invalid("camera", "need 0 < near < far, got near %v far %v", c.Camera.Near, c.Camera.Far)
	}

	m := c.Movement
	for _, f := range []struct {
		name  string
		value float32
	}{
		{"walk_speed", m.WalkSpeed},
		{"sprint_factor", m.SprintFactor},
		{"gravity", m.Gravity},
		{"jump_impulse", m.JumpImpulse},
		{"terminal_velocity", m.TerminalVelocity},
		{"ground_offset", m.GroundOffset},
		{"step_margin", m.StepMargin},
		{"look_sensitivity", m.LookSensitivity},
	} {
		if f.value < 0 {
			return invalid("movement."+f.name, "must not be negative")
		}
	}
	if err := checkPolar("movement", m.MinPolarDegrees, m.MaxPolarDegrees); err != nil {
		return err
	}

	for _, sec := range []struct {
		name string
		cfg  OrbitConfig
	}{{"orbit", c.Orbit}, {"map", c.Map}} {
		section, o := sec.name, sec.cfg
		if o.DampingFactor <= 0 || o.DampingFactor > 1 {
			return invalid(section+".damping_factor", "%v is outside (0, 1]", o.DampingFactor)
		}
		if o.MinDistance < 0 || (o.MaxDistance > 0 && o.MaxDistance < o.MinDistance) {
			return invalid(section, "need 0 <= min_distance <= max_distance")
		}
		if err := checkPolar(section, o.MinPolarDegrees, o.MaxPolarDegrees); err != nil {
			return err
		}
	}

	t := c.Trackball
	if t.DynamicDampingFactor <= 0 || t.DynamicDampingFactor > 1 {
		return invalid("trackball.dynamic_damping_factor", "%v is outside (0, 1]", t.DynamicDampingFactor)
	}
	if t.MinDistance < 0 || (t.MaxDistance > 0 && t.MaxDistance < t.MinDistance) {
		return invalid("trackball", "need 0 <= min_distance <= max_distance")
	}

	if _, err := c.ClearColor(); err != nil {
		return invalid("renderer.clear_color", "%v", err)
	}
	if c.Renderer.FogDistance <= 0 {
		return invalid("renderer.fog_distance", "must be positive")
	}
	if c.Renderer.ChunkTriangles < 0 {
		return invalid("renderer.chunk_triangles", "must not be negative")
	}

	for i, o := range c.Objects {
		if o.File == "" {
			return invalid(fmt.Sprintf("objects[%d].file", i), "must not be empty")
		}
		if _, err := o.Transform(); err != nil {
			return invalid(fmt.Sprintf("objects[%d]", i), "%v", err)
		}
	}
	seen := make(map[string]bool, len(c.Places))
	for i, p := range c.Places {
		if p.Abbr == "" {
			return invalid(fmt.Sprintf("places[%d].abbr", i), "must not be empty")
		}
		key := strings.ToLower(p.Abbr)
		if seen[key] {
			return invalid(fmt.Sprintf("places[%d].abbr", i), "duplicate %q", p.Abbr)
		}
		seen[key] = true
	}
	return nil
}

// LogLevel parses viewer.log_level ("debug", "info", "warn", "error").
//
// Returns:
//   - slog.Level: the level
//   - error: error for an unknown name
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Viewer.LogLevel))
	return level, err
}

// ClearColor parses renderer.clear_color.
//
// Returns:
//   - uint32: the color as 0xRRGGBB
//   - error: error if the value is not "#rrggbb"
func (c *Config) ClearColor() (uint32, error) {
	s := strings.TrimPrefix(c.Renderer.ClearColor, "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("%q is not #rrggbb", c.Renderer.ClearColor)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not #rrggbb", c.Renderer.ClearColor)
	}
	return uint32(v), nil
}

// FindPlace looks a place up by abbreviation or name, ignoring case.
//
// Parameters:
//   - key: the abbreviation or name
//
// Returns:
//   - Place: the place
//   - bool: false if none matches
func (c *Config) FindPlace(key string) (Place, bool) {
	for _, p := range c.Places {
		if strings.EqualFold(p.Abbr, key) || strings.EqualFold(p.Name, key) {
			return p, true
		}
	}
	return Place{}, false
}

func isMode(name string) bool {
	for _, m := range controls.Modes {
		if string(m) == name {
			return true
		}
	}
	return false
}

func checkPolar(section string, lo, hi float32) error {
	if lo < 0 || hi > 180 || lo > hi {
		return &ValidationError{
			Field:  section + ".min_polar_degrees",
			Reason: fmt.Sprintf("need 0 <= min <= max <= 180, got %v and %v", lo, hi),
		}
	}
	return nil
}
