package controls

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// changeEpsilon is the squared movement below which no change is reported.
const changeEpsilon float32 = 1e-6

// turnEpsilon bounds 8*(1-|q0·q1|) for an orientation change; looser than changeEpsilon
// because the dot product of two float32 unit quaternions carries rounding near 1.
const turnEpsilon float32 = 1e-5

// settleEpsilon is the damped delta magnitude treated as at rest.
const settleEpsilon float32 = 1e-7

// defaultTargetDistance places the orbit target when the view ray hits nothing.
const defaultTargetDistance float32 = 10

// Orbit keeps the camera on a sphere around a target point.
// It backs both ModeOrbit and ModeMap; they differ only in OrbitConfig.
//
// The camera position is derived from spherical coordinates (radius, polar from +Y,
// azimuth about +Y) relative to the target. Input accumulates into deltas that are
// applied in the move handlers and decayed in Animate when damping is on.
type Orbit struct {
	b    Bindings
	cfg  OrbitConfig
	mode Mode

	listeners event.Group

	target mgl32.Vec3

	deltaTheta float32
	deltaPhi   float32
	scale      float32
	panOffset  mgl32.Vec3

	action   PointerAction
	lastX    float32
	lastY    float32
	dragging bool

	lastPosition mgl32.Vec3
	lastQuat     mgl32.Quat

	created   bool
	destroyed bool
}

var _ Provider = &Orbit{}
var _ Resetter = &Orbit{}

// NewOrbit binds an orbit-family provider. Nothing is installed until CreateControls.
//
// Parameters:
//   - mode: the variant tag reported by Mode (ModeOrbit or ModeMap)
//   - b: the collaborators; Camera and Surface are required, Scene is optional
//   - cfg: the orbit settings
//
// Returns:
//   - *Orbit: the provider
//   - error: a *MissingDependencyError if a collaborator is nil
func NewOrbit(mode Mode, b Bindings, cfg OrbitConfig) (*Orbit, error) {
	if err := b.require(mode, false); err != nil {
		return nil, err
	}
	return &Orbit{b: b, cfg: cfg, mode: mode, scale: 1}, nil
}

func (o *Orbit) Mode() Mode { return o.mode }

func (o *Orbit) CreateControls() error {
	if o.destroyed {
		return ErrDestroyed
	}
	if o.created {
		return nil
	}
	o.created = true

	cam := o.b.Camera
	cam.SetUp(common.WorldUp)
	o.target = pickTarget(o.b, o.cfg.GroundName)
	o.lastPosition = cam.Position()
	o.lastQuat = cam.Orientation()

	src := o.b.Surface
	o.listeners.Listen(src, event.TypePointerDown, o.onPointerDown)
	o.listeners.Listen(src, event.TypePointerMove, o.onPointerMove)
	o.listeners.Listen(src, event.TypePointerUp, o.onPointerUp)
	o.listeners.Listen(src, event.TypeWheel, o.onWheel)
	o.listeners.Listen(src, event.TypeKeyDown, o.onKeyDown)

	o.update(true)
	return nil
}

// pickTarget looks along the view ray for the ground node; otherwise it keeps the current
// view by placing the target straight ahead.
func pickTarget(b Bindings, ground string) mgl32.Vec3 {
	cam := b.Camera
	pos, fwd := cam.Position(), cam.Forward()
	if b.Scene != nil {
		if hit, ok := b.Scene.Raycast(ground, common.NewRay(pos, fwd), cam.Near(), cam.Far()); ok {
			return hit.Point
		}
	}
	dist := pos.Len()
	if dist < common.Epsilon {
		dist = defaultTargetDistance
	}
	return pos.Add(fwd.Mul(dist))
}

func (o *Orbit) Animate(float32) {
	o.update(false)
}

func (o *Orbit) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.listeners.CancelAll()
	o.dragging = false
	o.action = ActionNone
}

func (o *Orbit) Update() {}

// Reset drops pending motion and re-targets from the current camera pose.
func (o *Orbit) Reset() {
	o.deltaTheta, o.deltaPhi = 0, 0
	o.panOffset = mgl32.Vec3{}
	o.scale = 1
	o.dragging = false
	o.action = ActionNone
	if o.created && !o.destroyed {
		o.target = pickTarget(o.b, o.cfg.GroundName)
		o.lastPosition = o.b.Camera.Position()
		o.lastQuat = o.b.Camera.Orientation()
	}
}

func (o *Orbit) RenderPolicy() scheduler.RenderPolicy {
	return scheduler.PolicyOnDemand
}

// Target returns the orbit center.
func (o *Orbit) Target() mgl32.Vec3 { return o.target }

// SetTarget moves the orbit center and re-aims the camera.
func (o *Orbit) SetTarget(t mgl32.Vec3) {
	o.target = t
	o.update(true)
}

// Rotate turns the view by pointer deltas in pixels.
func (o *Orbit) Rotate(dx, dy float32) {
	h := o.height()
	o.deltaTheta -= 2 * math32.Pi * dx / h * o.cfg.RotateSpeed
	o.deltaPhi -= 2 * math32.Pi * dy / h * o.cfg.RotateSpeed
}

// Dolly scales the orbit radius; factor < 1 moves closer.
func (o *Orbit) Dolly(factor float32) {
	if factor > 0 && common.IsFinite(factor) {
		o.scale *= factor
	}
}

// Pan moves target and camera by pointer deltas in pixels.
func (o *Orbit) Pan(dx, dy float32) {
	cam := o.b.Camera
	offset := cam.Position().Sub(o.target)
	targetDistance := offset.Len() * math32.Tan(cam.Fov()/2)
	h := o.height()

	right := cam.Right()
	o.panOffset = o.panOffset.Add(right.Mul(-2 * dx * targetDistance / h))

	var up mgl32.Vec3
	if o.cfg.ScreenSpacePanning {
		up = cam.Orientation().Rotate(mgl32.Vec3{0, 1, 0})
	} else {
		up = common.SafeNormalize(cam.Up().Cross(right))
	}
	o.panOffset = o.panOffset.Add(up.Mul(2 * dy * targetDistance / h))
}

func (o *Orbit) zoomScale() float32 {
	return math32.Pow(0.95, o.cfg.ZoomSpeed)
}

func (o *Orbit) height() float32 {
	h := o.b.Surface.Bounds().Height
	if h <= 0 {
		return 1
	}
	return h
}

func (o *Orbit) idle() bool {
	return o.deltaTheta == 0 && o.deltaPhi == 0 && o.scale == 1 && o.panOffset == (mgl32.Vec3{})
}

func (o *Orbit) settle() {
	if math32.Abs(o.deltaTheta) < settleEpsilon {
		o.deltaTheta = 0
	}
	if math32.Abs(o.deltaPhi) < settleEpsilon {
		o.deltaPhi = 0
	}
	if o.panOffset.LenSqr() < settleEpsilon*settleEpsilon {
		o.panOffset = mgl32.Vec3{}
	}
}

// update applies accumulated deltas, re-aims the camera and reports a change when it moved.
// Without pending input it does nothing unless force is set.
func (o *Orbit) update(force bool) bool {
	if !force && o.idle() {
		return false
	}
	cam := o.b.Camera
	offset := cam.Position().Sub(o.target)

	radius := offset.Len()
	theta := math32.Atan2(offset.X(), offset.Z())
	phi := float32(0)
	if radius > 0 {
		phi = math32.Acos(common.Clamp(offset.Y()/radius, -1, 1))
	}

	damp := float32(1)
	if o.cfg.EnableDamping {
		damp = o.cfg.DampingFactor
	}
	theta += o.deltaTheta * damp
	phi += o.deltaPhi * damp
	phi = common.Clamp(phi, o.cfg.MinPolarAngle, o.cfg.MaxPolarAngle)
	phi = common.Clamp(phi, common.Epsilon, math32.Pi-common.Epsilon)

	radius = common.Clamp(radius*o.scale, o.cfg.MinDistance, o.cfg.MaxDistance)
	if radius < common.Epsilon {
		radius = common.Epsilon
	}

	o.target = o.target.Add(o.panOffset.Mul(damp))

	sinPhi := math32.Sin(phi)
	offset = mgl32.Vec3{
		radius * sinPhi * math32.Sin(theta),
		radius * math32.Cos(phi),
		radius * sinPhi * math32.Cos(theta),
	}
	pos := o.target.Add(offset)
	if common.IsFiniteVec3(pos) {
		cam.SetPosition(pos)
		cam.LookAt(o.target)
	}

	if o.cfg.EnableDamping {
		o.deltaTheta *= 1 - o.cfg.DampingFactor
		o.deltaPhi *= 1 - o.cfg.DampingFactor
		o.panOffset = o.panOffset.Mul(1 - o.cfg.DampingFactor)
		o.settle()
	} else {
		o.deltaTheta, o.deltaPhi = 0, 0
		o.panOffset = mgl32.Vec3{}
	}
	zoomed := o.scale != 1
	o.scale = 1

	pos, q := cam.Position(), cam.Orientation()
	moved := pos.Sub(o.lastPosition).LenSqr() > changeEpsilon
	turned := 8*(1-math32.Abs(q.Dot(o.lastQuat))) > turnEpsilon
	if moved || turned || zoomed {
		o.lastPosition, o.lastQuat = pos, q
		o.b.changed()
		return true
	}
	return false
}

func (o *Orbit) onPointerDown(e event.Event) {
	if e.Button < 0 || e.Button >= len(o.cfg.Buttons) {
		return
	}
	o.action = o.cfg.Buttons[e.Button]
	o.dragging = o.action != ActionNone
	o.lastX, o.lastY = e.X, e.Y
}

func (o *Orbit) onPointerMove(e event.Event) {
	if !o.dragging {
		return
	}
	dx, dy := e.X-o.lastX, e.Y-o.lastY
	o.lastX, o.lastY = e.X, e.Y
	switch o.action {
	case ActionRotate:
		o.Rotate(dx, dy)
	case ActionDolly:
		if dy > 0 {
			o.Dolly(1 / o.zoomScale())
		} else if dy < 0 {
			o.Dolly(o.zoomScale())
		}
	case ActionPan:
		o.Pan(dx*o.cfg.PanSpeed, dy*o.cfg.PanSpeed)
	}
	o.update(false)
}

func (o *Orbit) onPointerUp(event.Event) {
	o.dragging = false
	o.action = ActionNone
}

func (o *Orbit) onWheel(e event.Event) {
	switch {
	case e.DeltaY < 0:
		o.Dolly(o.zoomScale())
	case e.DeltaY > 0:
		o.Dolly(1 / o.zoomScale())
	default:
		return
	}
	o.update(false)
}

func (o *Orbit) onKeyDown(e event.Event) {
	k := o.cfg.KeyPanSpeed
	switch e.Code {
	case common.KeyArrowUp:
		o.Pan(0, k)
	case common.KeyArrowDown:
		o.Pan(0, -k)
	case common.KeyArrowLeft:
		o.Pan(k, 0)
	case common.KeyArrowRight:
		o.Pan(-k, 0)
	default:
		return
	}
	o.update(false)
}
