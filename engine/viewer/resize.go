package viewer

// Resize follows a viewport change: aspect and projection first, then the backing buffer,
// then the provider's cached screen geometry. A zero-height surface keeps the previous aspect.
func (v *viewerImpl) Resize() {
	bounds := v.surface.Bounds()
	if aspect := bounds.Aspect(); aspect > 0 {
		v.camera.SetAspect(aspect)
	}
	v.camera.UpdateProjection()

	if v.renderer != nil && bounds.Width > 0 && bounds.Height > 0 {
		v.renderer.Resize(int(bounds.Width), int(bounds.Height))
	}
	if p := v.Provider(); p != nil {
		p.Update()
	}
	v.scheduler.MarkDirty()
}
