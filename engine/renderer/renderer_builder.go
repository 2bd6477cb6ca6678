package renderer

import "log/slog"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count. Defaults to MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter.
// This requires a software Vulkan ICD such as lavapipe or SwiftShader.
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithClearColor sets the background color as 0xRRGGBB. Distant geometry fades into it.
//
// Parameters:
//   - rgb: the color
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithClearColor(rgb uint32) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = rgb
	}
}

// WithFogDistance sets the distance at which geometry fully fades out. Values <= 0 are ignored.
//
// Parameters:
//   - d: the distance in world units
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithFogDistance(d float32) RendererBuilderOption {
	return func(r *renderer) {
		if d > 0 {
			r.fogDistance = d
		}
	}
}

// WithCulling enables or disables per-chunk frustum culling. Enabled by default.
//
// Parameters:
//   - enabled: whether to cull
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithCulling(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.culling = enabled
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
