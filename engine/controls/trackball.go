package controls

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/event"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scheduler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/surface"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// wheelZoomRate converts wheel pixels into zoom travel.
const wheelZoomRate float32 = 0.00025

// Trackball rotates the camera freely around a target, including roll.
// Unlike Orbit the up vector travels with the rotation, so the camera can go over the poles.
type Trackball struct {
	b   Bindings
	cfg TrackballConfig

	listeners event.Group
	screen    surface.Rect

	target mgl32.Vec3
	eye    mgl32.Vec3

	state    PointerAction
	keyState PointerAction

	movePrev, moveCurr mgl32.Vec2
	lastAxis           mgl32.Vec3
	lastAngle          float32
	zoomStart, zoomEnd mgl32.Vec2
	panStart, panEnd   mgl32.Vec2

	lastPosition       mgl32.Vec3
	created, destroyed bool
}

var _ Provider = &Trackball{}
var _ Resetter = &Trackball{}

// NewTrackball binds a trackball provider. Nothing is installed until CreateControls.
//
// Parameters:
//   - b: the collaborators; Camera and Surface are required, Scene is optional
//   - cfg: the trackball settings
//
// Returns:
//   - *Trackball: the provider
//   - error: a *MissingDependencyError if a collaborator is nil
func NewTrackball(b Bindings, cfg TrackballConfig) (*Trackball, error) {
	if err := b.require(ModeTrackball, false); err != nil {
		return nil, err
	}
	return &Trackball{b: b, cfg: cfg}, nil
}

func (t *Trackball) Mode() Mode { return ModeTrackball }

func (t *Trackball) CreateControls() error {
	if t.destroyed {
		return ErrDestroyed
	}
	if t.created {
		return nil
	}
	t.created = true

	t.b.Camera.SetUp(common.WorldUp)
	t.target = pickTarget(t.b, t.cfg.GroundName)
	t.lastPosition = t.b.Camera.Position()
	t.Update()

	src := t.b.Surface
	t.listeners.Listen(src, event.TypePointerDown, t.onPointerDown)
	t.listeners.Listen(src, event.TypePointerMove, t.onPointerMove)
	t.listeners.Listen(src, event.TypePointerUp, t.onPointerUp)
	t.listeners.Listen(src, event.TypeWheel, t.onWheel)
	t.listeners.Listen(src, event.TypeKeyDown, t.onKeyDown)
	t.listeners.Listen(src, event.TypeKeyUp, t.onKeyUp)
	return nil
}

func (t *Trackball) Animate(float32) {
	t.update()
}

func (t *Trackball) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.listeners.CancelAll()
	t.state, t.keyState = ActionNone, ActionNone
	if t.created {
		// Leave the shared camera with a world up for whichever mode follows.
		t.b.Camera.SetUp(common.WorldUp)
	}
}

// Update caches the surface rectangle used to map pointer positions.
func (t *Trackball) Update() {
	t.screen = t.b.Surface.Bounds()
}

func (t *Trackball) RenderPolicy() scheduler.RenderPolicy {
	return scheduler.PolicyOnDemand
}

// Reset stops any inertia, restores a world up vector and re-targets from the camera pose.
func (t *Trackball) Reset() {
	t.state, t.keyState = ActionNone, ActionNone
	t.lastAngle = 0
	t.movePrev, t.moveCurr = mgl32.Vec2{}, mgl32.Vec2{}
	t.zoomStart, t.zoomEnd = mgl32.Vec2{}, mgl32.Vec2{}
	t.panStart, t.panEnd = mgl32.Vec2{}, mgl32.Vec2{}
	if t.created && !t.destroyed {
		t.b.Camera.SetUp(common.WorldUp)
		t.target = pickTarget(t.b, t.cfg.GroundName)
		t.lastPosition = t.b.Camera.Position()
	}
}

// Target returns the rotation center.
func (t *Trackball) Target() mgl32.Vec3 { return t.target }

func (t *Trackball) mouseOnScreen(x, y float32) mgl32.Vec2 {
	w, h := t.screen.Width, t.screen.Height
	if w <= 0 || h <= 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{(x - t.screen.Left) / w, (y - t.screen.Top) / h}
}

func (t *Trackball) mouseOnCircle(x, y float32) mgl32.Vec2 {
	w, h := t.screen.Width, t.screen.Height
	if w <= 0 || h <= 0 {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{
		(x - w*0.5 - t.screen.Left) / (w * 0.5),
		(h + 2*(t.screen.Top-y)) / w,
	}
}

func (t *Trackball) rotateCamera() {
	cam := t.b.Camera
	move := t.moveCurr.Sub(t.movePrev)
	angle := move.Len()

	switch {
	case angle > 0:
		eyeDir := common.SafeNormalize(t.eye)
		up := common.SafeNormalize(cam.Up())
		sideways := common.SafeNormalize(up.Cross(eyeDir))
		dir := up.Mul(move.Y()).Add(sideways.Mul(move.X()))
		axis := common.SafeNormalize(dir.Cross(t.eye))
		if axis.Len() == 0 {
			break
		}
		angle *= t.cfg.RotateSpeed
		q := mgl32.QuatRotate(angle, axis)
		t.eye = q.Rotate(t.eye)
		cam.SetUp(q.Rotate(cam.Up()))
		t.lastAxis, t.lastAngle = axis, angle
	case !t.cfg.StaticMoving && t.lastAngle != 0:
		t.lastAngle *= math32.Sqrt(1 - t.cfg.DynamicDampingFactor)
		if math32.Abs(t.lastAngle) < common.Epsilon {
			t.lastAngle = 0
			break
		}
		q := mgl32.QuatRotate(t.lastAngle, t.lastAxis)
		t.eye = q.Rotate(t.eye)
		cam.SetUp(q.Rotate(cam.Up()))
	}
	t.movePrev = t.moveCurr
}

func (t *Trackball) zoomCamera() {
	factor := 1 + (t.zoomEnd.Y()-t.zoomStart.Y())*t.cfg.ZoomSpeed
	if factor != 1 && factor > 0 {
		t.eye = t.eye.Mul(factor)
	}
	if t.cfg.StaticMoving {
		t.zoomStart = t.zoomEnd
	} else {
		t.zoomStart[1] += (t.zoomEnd.Y() - t.zoomStart.Y()) * t.cfg.DynamicDampingFactor
	}
}

func (t *Trackball) panCamera() {
	change := t.panEnd.Sub(t.panStart)
	if change.LenSqr() == 0 {
		return
	}
	cam := t.b.Camera
	change = change.Mul(t.eye.Len() * t.cfg.PanSpeed)
	up := cam.Up()
	pan := common.SafeNormalize(t.eye.Cross(up)).Mul(change.X())
	pan = pan.Add(common.SafeNormalize(up).Mul(change.Y()))

	cam.SetPosition(cam.Position().Add(pan))
	t.target = t.target.Add(pan)

	if t.cfg.StaticMoving {
		t.panStart = t.panEnd
	} else {
		t.panStart = t.panStart.Add(t.panEnd.Sub(t.panStart).Mul(t.cfg.DynamicDampingFactor))
	}
}

func (t *Trackball) checkDistances() {
	if t.cfg.NoZoom && t.cfg.NoPan {
		return
	}
	d := t.eye.Len()
	switch {
	case d > t.cfg.MaxDistance:
		t.eye = common.SafeNormalize(t.eye).Mul(t.cfg.MaxDistance)
		t.zoomStart = t.zoomEnd
	case d < t.cfg.MinDistance:
		t.eye = common.SafeNormalize(t.eye).Mul(t.cfg.MinDistance)
		t.zoomStart = t.zoomEnd
	}
}

func (t *Trackball) idle() bool {
	rotating := t.moveCurr != t.movePrev || (!t.cfg.StaticMoving && t.lastAngle != 0)
	return !rotating && t.zoomStart == t.zoomEnd && t.panStart == t.panEnd
}

// settle snaps damped zoom and pan travel that has become negligible.
func (t *Trackball) settle() {
	if math32.Abs(t.zoomEnd.Y()-t.zoomStart.Y()) < settleEpsilon {
		t.zoomStart = t.zoomEnd
	}
	if t.panEnd.Sub(t.panStart).LenSqr() < settleEpsilon*settleEpsilon {
		t.panStart = t.panEnd
	}
}

// update applies pending rotation, zoom and pan, then reports a change if the camera moved.
func (t *Trackball) update() bool {
	if t.idle() {
		return false
	}
	cam := t.b.Camera
	t.eye = cam.Position().Sub(t.target)

	if !t.cfg.NoRotate {
		t.rotateCamera()
	}
	if !t.cfg.NoZoom {
		t.zoomCamera()
	}
	if !t.cfg.NoPan {
		t.panCamera()
	}
	t.checkDistances()
	t.settle()

	pos := t.target.Add(t.eye)
	if !common.IsFiniteVec3(pos) {
		return false
	}
	cam.SetPosition(pos)
	cam.LookAt(t.target)

	if pos.Sub(t.lastPosition).LenSqr() > changeEpsilon {
		t.lastPosition = pos
		t.b.changed()
		return true
	}
	return false
}

func (t *Trackball) actionFor(button int) PointerAction {
	if t.keyState != ActionNone {
		return t.keyState
	}
	if button < 0 || button >= len(t.cfg.Buttons) {
		return ActionNone
	}
	return t.cfg.Buttons[button]
}

func (t *Trackball) onPointerDown(e event.Event) {
	t.state = t.actionFor(e.Button)
	switch {
	case t.state == ActionRotate && !t.cfg.NoRotate:
		t.moveCurr = t.mouseOnCircle(e.X, e.Y)
		t.movePrev = t.moveCurr
	case t.state == ActionDolly && !t.cfg.NoZoom:
		t.zoomStart = t.mouseOnScreen(e.X, e.Y)
		t.zoomEnd = t.zoomStart
	case t.state == ActionPan && !t.cfg.NoPan:
		t.panStart = t.mouseOnScreen(e.X, e.Y)
		t.panEnd = t.panStart
	}
}

func (t *Trackball) onPointerMove(e event.Event) {
	switch {
	case t.state == ActionRotate && !t.cfg.NoRotate:
		t.movePrev = t.moveCurr
		t.moveCurr = t.mouseOnCircle(e.X, e.Y)
	case t.state == ActionDolly && !t.cfg.NoZoom:
		t.zoomEnd = t.mouseOnScreen(e.X, e.Y)
	case t.state == ActionPan && !t.cfg.NoPan:
		t.panEnd = t.mouseOnScreen(e.X, e.Y)
	default:
		return
	}
	t.update()
}

func (t *Trackball) onPointerUp(event.Event) {
	t.state = ActionNone
}

func (t *Trackball) onWheel(e event.Event) {
	if t.cfg.NoZoom || e.DeltaY == 0 {
		return
	}
	t.zoomStart[1] -= e.DeltaY * wheelZoomRate
	t.update()
}

func (t *Trackball) onKeyDown(e event.Event) {
	if t.keyState != ActionNone {
		return
	}
	switch {
	case e.Code == t.cfg.Keys[0] && !t.cfg.NoRotate:
		t.keyState = ActionRotate
	case e.Code == t.cfg.Keys[1] && !t.cfg.NoZoom:
		t.keyState = ActionDolly
	case e.Code == t.cfg.Keys[2] && !t.cfg.NoPan:
		t.keyState = ActionPan
	}
}

func (t *Trackball) onKeyUp(event.Event) {
	t.keyState = ActionNone
}
