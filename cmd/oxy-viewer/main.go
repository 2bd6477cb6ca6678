// Command oxy-viewer opens a window onto a 3D model with switchable camera controls.
//
// Keys: 1 pointer-lock, 2 map, 3 orbit, 4 trackball, R reset camera, P next place.
// In pointer-lock mode click to capture the mouse; WASD/arrows move, Shift sprints,
// Space jumps and Esc releases the mouse. Esc while released closes the window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

type flags struct {
	config   string
	model    string
	mode     string
	place    string
	logLevel string
	profile  bool
	software bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "TOML configuration file")
	flag.StringVar(&f.model, "model", "", "model to open (.gltf, .glb, .ply or .json object list)")
	flag.StringVar(&f.mode, "mode", "", "initial control mode: pointer-lock, map, orbit or trackball")
	flag.StringVar(&f.place, "place", "", "abbreviation or name of a configured place to start at")
	flag.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flag.BoolVar(&f.profile, "profile", false, "log frame and memory statistics every second")
	flag.BoolVar(&f.software, "software", false, "force the software (fallback) GPU adapter")
	flag.Parse()

	if err := run(f); err != nil {
		slog.Error("oxy-viewer failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}
	if f.model != "" {
		cfg.Viewer.Model = f.model
		cfg.Objects = nil
	}
	if f.mode != "" {
		cfg.Viewer.Mode = f.mode
	}
	if f.place != "" {
		cfg.Viewer.Place = f.place
	}
	if f.logLevel != "" {
		cfg.Viewer.LogLevel = f.logLevel
	}
	if f.profile {
		cfg.Viewer.Profile = true
	}
	return cfg, cfg.Validate()
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	win := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
		window.WithMinSize(cfg.Window.MinWidth, cfg.Window.MinHeight),
		window.WithLogger(logger),
	)

	clearColor, _ := cfg.ClearColor()
	rend := renderer.NewRenderer(win.SurfaceDescriptor(), win.Width(), win.Height(),
		renderer.WithPresentMode(presentMode(cfg.Renderer.VSync)),
		renderer.WithMSAA(msaa(cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(f.software),
		renderer.WithClearColor(clearColor),
		renderer.WithFogDistance(cfg.Renderer.FogDistance),
		renderer.WithLogger(logger),
	)
	defer rend.Release()

	ground := cfg.Viewer.Ground
	sc := scene.NewScene("oxy-viewer", scene.WithNodes(&scene.Node{
		Name: ground,
		Mesh: scene.NewGrid(2000, 100, 0),
	}))

	var places []viewer.Place
	for _, p := range cfg.Places {
		places = append(places, viewer.Place{Name: p.Name, Position: mgl32.Vec3(p.Position)})
	}

	aspect := float32(win.Width()) / float32(max(win.Height(), 1))

	// The engine is built first because the viewer schedules on its frame queue.
	var v viewer.Viewer
	eng := engine.NewEngine(win,
		engine.WithLogger(logger),
		engine.WithProfiling(cfg.Viewer.Profile),
		engine.WithRenderFrameLimit(cfg.Window.FrameLimit),
		engine.WithResizeCallback(func(int, int) {
			if v != nil {
				v.Resize()
			}
		}),
		engine.WithProfilerOptions(profiler.WithRenderCounter(func() uint64 {
			if v == nil {
				return 0
			}
			return v.Scheduler().Renders()
		})),
	)

	v = viewer.NewViewer(win, eng.Frames(),
		viewer.WithCamera(camera.NewCamera(cfg.CameraOptions(aspect)...)),
		viewer.WithScene(sc),
		viewer.WithRenderer(rend),
		viewer.WithResolver(controls.NewResolver(cfg.ResolverOptions()...)),
		viewer.WithLogger(logger),
		viewer.WithPlaces(places...),
		viewer.WithModeHook(func(mode controls.Mode) { win.SetTitle(title(cfg.Window.Title, mode, false)) }),
		viewer.WithLockHook(func(locked bool) { win.SetTitle(title(cfg.Window.Title, v.Mode(), locked)) }),
	)
	defer v.Close()

	if err := v.SetMode(context.Background(), cfg.Viewer.Mode); err != nil {
		return err
	}
	if cfg.Viewer.Place != "" {
		p, _ := cfg.FindPlace(cfg.Viewer.Place)
		v.Warp(mgl32.Vec3(p.Position))
	}

	if cfg.Viewer.Model != "" || len(cfg.Objects) > 0 {
		stop, err := startModel(cfg, f.config, logger, sc, eng, v)
		if err != nil {
			return err
		}
		defer stop()
	}

	eng.Run()
	return nil
}

// startModel loads the configured model off the window thread and, when enabled,
// reloads it whenever one of its files changes.
func startModel(cfg *config.Config, configPath string, logger *slog.Logger, sc scene.Scene, eng engine.Engine, v viewer.Viewer) (func(), error) {
	ld := loader.NewLoader(loader.WithLogger(logger), loader.WithChunkTriangles(cfg.Renderer.ChunkTriangles))
	baseDir := "."
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}

	load := func() (*scene.Mesh, error) {
		if cfg.Viewer.Model != "" {
			return ld.Load(cfg.Viewer.Model)
		}
		return ld.LoadObjects(baseDir, cfg.Objects)
	}
	install := func(first bool) {
		start := time.Now()
		m, err := load()
		if err != nil {
			logger.Error("model load failed", "err", err)
			return
		}
		sc.Set(&scene.Node{Name: cfg.Viewer.Ground, Mesh: m})
		logger.Info("model ready", "triangles", m.TriangleCount(), "elapsed", time.Since(start).Round(time.Millisecond))
		if first && cfg.Viewer.Place == "" {
			// Re-pick orbit targets against the real ground, on the window thread.
			eng.Frames().RequestFrame(func(time.Time) { v.Warp(v.Camera().Position()) })
		}
	}

	if !cfg.Viewer.Watch {
		go install(true)
		return func() {}, nil
	}

	w, err := loader.NewWatcher(func(paths []string) {
		logger.Info("model changed on disk, reloading", "files", len(paths))
		install(false)
	}, loader.WithWatcherLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to watch model: %w", err)
	}
	go func() {
		install(true)
		if err := w.Add(ld.Files()...); err != nil {
			logger.Warn("model watch failed", "err", err)
		}
	}()
	return func() { _ = w.Close() }, nil
}

func title(base string, mode controls.Mode, locked bool) string {
	switch {
	case mode == "":
		return base
	case mode != controls.ModePointerLock:
		return fmt.Sprintf("%s [%s]", base, mode)
	case locked:
		return fmt.Sprintf("%s [%s] Esc releases the mouse", base, mode)
	default:
		return fmt.Sprintf("%s [%s] click to look around", base, mode)
	}
}

func presentMode(vsync bool) renderer.PresentMode {
	if vsync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}

func msaa(enabled bool) renderer.MSAASampleCount {
	if enabled {
		return renderer.MSAA4x
	}
	return renderer.MSAAOff
}
