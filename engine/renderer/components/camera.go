package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/spaghettifunk/anima2d/engine/math"
)

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

/**
 * @brief Represents a 2D camera. The view matrix is rebuilt lazily from
 * position, offset and zoom; the projection is an orthographic one with
 * the origin in the top-left corner of the viewport.
 */
type Camera struct {
	x, y             float32
	xOffset, yOffset float32
	zoom             float32
	width, height    float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	isDirty    bool
	view       mgl32.Mat4
	projection mgl32.Mat4

	scroll *scrollAnim
}

type scrollAnim struct {
	tweenX, tweenY *gween.Tween
	doneX, doneY   bool
}

type CameraLookup struct {
	ID             uint16
	ReferenceCount uint16
	Camera         *Camera
}

func NewCamera(width, height float32) *Camera {
	camera := &Camera{}
	camera.Reset()
	camera.SetSize(width, height)
	return camera
}

func (c *Camera) Reset() {
	c.x, c.y = 0, 0
	c.xOffset, c.yOffset = 0, 0
	c.zoom = 1
	c.scroll = nil
	c.view = mgl32.Ident4()
	c.isDirty = false
}

func (c *Camera) Position() (float32, float32) {
	return c.x, c.y
}

// SetPosition marks the view dirty only when the position actually moved, so
// following a resting target does not rebuild the matrix every frame.
func (c *Camera) SetPosition(x, y float32) {
	if math.FloatEqual(c.x, x) && math.FloatEqual(c.y, y) {
		return
	}
	c.x, c.y = x, y
	c.isDirty = true
}

func (c *Camera) Move(dx, dy float32) {
	c.SetPosition(c.x+dx, c.y+dy)
}

func (c *Camera) Offset() (float32, float32) {
	return c.xOffset, c.yOffset
}

// SetOffset sets the screen-space point the followed target is pinned to.
func (c *Camera) SetOffset(x, y float32) {
	c.xOffset, c.yOffset = x, y
}

func (c *Camera) Zoom() float32 {
	return c.zoom
}

func (c *Camera) SetZoom(zoom float32) {
	if zoom <= 0 {
		return
	}
	c.zoom = zoom
	c.isDirty = true
}

func (c *Camera) Size() (float32, float32) {
	return c.width, c.height
}

// SetSize rebuilds the projection when the viewport dimensions change.
func (c *Camera) SetSize(width, height float32) {
	if width == c.width && height == c.height && c.projection != (mgl32.Mat4{}) {
		return
	}
	c.width, c.height = width, height
	c.projection = mgl32.Ortho(0, width, height, 0, -1, 1)
}

// Follow places the camera so the target sits at the configured offset.
func (c *Camera) Follow(targetX, targetY float32) {
	c.scroll = nil
	c.SetPosition(-targetX+c.xOffset, -targetY+c.yOffset)
}

// ScrollTo eases the camera position to (x, y) over duration seconds.
func (c *Camera) ScrollTo(x, y, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.scroll = &scrollAnim{
		tweenX: gween.New(c.x, x, duration, easeFn),
		tweenY: gween.New(c.y, y, duration, easeFn),
	}
}

func (c *Camera) IsScrolling() bool {
	return c.scroll != nil
}

// Update advances a pending scroll by dt seconds.
func (c *Camera) Update(dt float32) {
	if c.scroll == nil {
		return
	}
	x, y := c.x, c.y
	if !c.scroll.doneX {
		x, c.scroll.doneX = c.scroll.tweenX.Update(dt)
	}
	if !c.scroll.doneY {
		y, c.scroll.doneY = c.scroll.tweenY.Update(dt)
	}
	c.SetPosition(x, y)
	if c.scroll.doneX && c.scroll.doneY {
		c.scroll = nil
	}
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.isDirty {
		c.view = mgl32.Translate3D(c.x, c.y, 0).Mul4(mgl32.Scale3D(c.zoom, c.zoom, 1))
		c.isDirty = false
	}
	return c.view
}

func (c *Camera) GetProjection() mgl32.Mat4 {
	return c.projection
}

// ScreenToWorld maps a viewport point back into world space.
func (c *Camera) ScreenToWorld(sx, sy float32) (float32, float32) {
	return (sx - c.x) / c.zoom, (sy - c.y) / c.zoom
}
