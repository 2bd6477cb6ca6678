package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	position    mgl32.Vec3
	orientation mgl32.Quat
	up          mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	homePosition    mgl32.Vec3
	homeOrientation mgl32.Quat

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
}

// Camera defines the interface for the shared camera state.
// A camera is a position plus orientation quaternion with perspective settings.
// Exactly one control mode mutates it at a time; the camera itself outlives every mode.
// All methods are safe for concurrent use.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// SetPosition moves the camera and recomputes the view matrix.
	//
	// Parameters:
	//   - p: the new world-space position
	SetPosition(p mgl32.Vec3)

	// Orientation returns the camera's rotation quaternion.
	// The camera looks along -Z of its local frame.
	//
	// Returns:
	//   - mgl32.Quat: the orientation
	Orientation() mgl32.Quat

	// SetOrientation replaces the camera rotation. The quaternion is normalized.
	//
	// Parameters:
	//   - q: the new orientation
	SetOrientation(q mgl32.Quat)

	// Up returns the camera's up vector used by LookAt.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - up: the new up vector
	SetUp(up mgl32.Vec3)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetFov sets the vertical field of view in radians and recomputes the projection.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes the projection.
	// Non-positive or non-finite values are ignored.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes the projection.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes the projection.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// UpdateProjection recomputes the projection matrix from fov, aspect, near and far.
	UpdateProjection()

	// Forward returns the unit direction the camera looks along.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space forward vector
	Forward() mgl32.Vec3

	// Right returns the unit vector pointing to the camera's right.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space right vector
	Right() mgl32.Vec3

	// LookAt orients the camera toward target keeping its up vector.
	// Does nothing when target coincides with the camera position.
	//
	// Parameters:
	//   - target: world-space point to look at
	LookAt(target mgl32.Vec3)

	// YawPitch decomposes the orientation into yaw about +Y and pitch about local +X.
	// Roll is discarded.
	//
	// Returns:
	//   - yaw: rotation about +Y in radians
	//   - pitch: elevation in radians, in [-π/2, π/2]
	YawPitch() (yaw, pitch float32)

	// SetYawPitch rebuilds the orientation from yaw and pitch (Y then X, no roll).
	//
	// Parameters:
	//   - yaw: rotation about +Y in radians
	//   - pitch: rotation about local +X in radians
	SetYawPitch(yaw, pitch float32)

	// ViewMatrix returns the current view matrix (column-major).
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix (column-major).
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() mgl32.Mat4

	// SetHome records the current pose as the pose restored by Reset.
	SetHome()

	// Reset restores the recorded home position and orientation.
	Reset()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at the origin looking down -Z.
// The pose after all options are applied becomes the home pose.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		orientation: mgl32.QuatIdent(),
		up:          common.WorldUp,
		fov:         mgl32.DegToRad(60),
		aspect:      1.0,
		near:        0.1,
		far:         10000.0,
	}
	for _, option := range options {
		option(c)
	}
	c.homePosition = c.position
	c.homeOrientation = c.orientation
	c.updateProjection()
	c.updateView()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateView()
}

func (c *cameraImpl) Orientation() mgl32.Quat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

func (c *cameraImpl) SetOrientation(q mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = q.Normalize()
	c.updateView()
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) SetUp(up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := common.SafeNormalize(up); n.Len() > 0 {
		c.up = n
	}
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateProjection()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 || !common.IsFinite(aspect) {
		return
	}
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateProjection()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateProjection()
}

func (c *cameraImpl) UpdateProjection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateProjection()
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (c *cameraImpl) Right() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation.Rotate(mgl32.Vec3{1, 0, 0})
}

func (c *cameraImpl) LookAt(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookAt(target)
}

func (c *cameraImpl) YawPitch() (yaw, pitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return yawPitchOf(c.orientation)
}

func (c *cameraImpl) SetYawPitch(yaw, pitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = QuatFromYawPitch(yaw, pitch)
	c.updateView()
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SetHome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.homePosition = c.position
	c.homeOrientation = c.orientation
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = c.homePosition
	c.orientation = c.homeOrientation
	c.updateView()
}

// QuatFromYawPitch builds a roll-free orientation: yaw about world +Y applied after pitch about +X.
//
// Parameters:
//   - yaw: rotation about +Y in radians
//   - pitch: rotation about +X in radians
//
// Returns:
//   - mgl32.Quat: the orientation
func QuatFromYawPitch(yaw, pitch float32) mgl32.Quat {
	qy := mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0})
	qx := mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0})
	return qy.Mul(qx).Normalize()
}

// yawPitchOf recovers yaw and pitch from the forward vector of q.
// forward = (-sin(yaw)cos(pitch), sin(pitch), -cos(yaw)cos(pitch)).
func yawPitchOf(q mgl32.Quat) (yaw, pitch float32) {
	f := q.Rotate(mgl32.Vec3{0, 0, -1})
	pitch = math32.Asin(common.Clamp(f.Y(), -1, 1))
	horiz := math32.Sqrt(f.X()*f.X() + f.Z()*f.Z())
	if horiz < common.Epsilon {
		// Looking straight up or down: take yaw from the right vector instead.
		r := q.Rotate(mgl32.Vec3{1, 0, 0})
		return math32.Atan2(-r.Z(), r.X()), pitch
	}
	return math32.Atan2(-f.X(), -f.Z()), pitch
}

// lookAt builds an orthonormal basis with -Z toward target. Caller must hold the mutex.
func (c *cameraImpl) lookAt(target mgl32.Vec3) {
	back := common.SafeNormalize(c.position.Sub(target))
	if back.Len() == 0 {
		return
	}
	right := common.SafeNormalize(c.up.Cross(back))
	if right.Len() == 0 {
		// Looking along the up axis: keep the current right vector.
		right = common.SafeNormalize(c.orientation.Rotate(mgl32.Vec3{1, 0, 0}))
		if right.Len() == 0 {
			right = mgl32.Vec3{1, 0, 0}
		}
	}
	up := back.Cross(right)
	basis := mgl32.Mat4FromCols(right.Vec4(0), up.Vec4(0), back.Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	c.orientation = mgl32.Mat4ToQuat(basis).Normalize()
	c.updateView()
}

// updateView recomputes the view and view-projection matrices. Caller must hold the mutex.
func (c *cameraImpl) updateView() {
	rot := c.orientation.Conjugate().Mat4()
	c.viewMatrix = rot.Mul4(mgl32.Translate3D(-c.position.X(), -c.position.Y(), -c.position.Z()))
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}

// updateProjection recomputes the projection and view-projection matrices. Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
