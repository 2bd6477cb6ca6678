package viewer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/controls"
	"github.com/go-gl/mathgl/mgl32"
)

// Place is a named warp target.
type Place struct {
	Name     string
	Position mgl32.Vec3
}

func (v *viewerImpl) Warp(position mgl32.Vec3) {
	v.camera.SetPosition(position)
	if r, ok := v.Provider().(controls.Resetter); ok {
		r.Reset()
	}
	v.scheduler.MarkDirty()
	v.logger.Info("warped", "position", position)
}

func (v *viewerImpl) NextPlace() (Place, bool) {
	v.mu.Lock()
	if len(v.places) == 0 {
		v.mu.Unlock()
		return Place{}, false
	}
	v.place = (v.place + 1) % len(v.places)
	p := v.places[v.place]
	v.mu.Unlock()

	v.logger.Info("warping to place", "name", p.Name)
	v.Warp(p.Position)
	return p, true
}
