package systems

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/components"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type ObjectID uint32

const InvalidObjectID ObjectID = 0

// Category decides how the registry drives an object every frame. It is
// fixed at creation.
type Category uint8

const (
	// NonEntity objects are only drawn.
	NonEntity Category = iota
	// SubEntity objects are updated but never integrated by physics.
	SubEntity
	// Entity objects carry kinematics and are integrated by physics.
	Entity
	// Hitbox objects mirror a physics hitbox and are drawn only as debug outlines.
	Hitbox
	// HUDElement objects live in screen space.
	HUDElement
)

func (c Category) String() string {
	switch c {
	case NonEntity:
		return "non-entity"
	case SubEntity:
		return "sub-entity"
	case Entity:
		return "entity"
	case Hitbox:
		return "hitbox"
	case HUDElement:
		return "hud"
	default:
		return fmt.Sprintf("category(%d)", c)
	}
}

type Kinematics struct {
	VelocityX     float32
	VelocityY     float32
	AccelerationX float32
	AccelerationY float32
	Mass          float32
}

// FrameContext is handed to every behavior hook.
type FrameContext struct {
	Input      *core.InputSystem
	Registry   *ObjectRegistry
	Physics    *PhysicsSystem
	Animations *AnimationSystem
	Camera     *components.Camera
	Frame      uint64
}

// Behavior is called once per frame before the object is drawn.
type Behavior interface {
	Events(ctx *FrameContext, obj *Object)
}

// Updater receives the milliseconds elapsed since the object was last drawn.
// An Entity whose behavior does not implement it is integrated by physics.
type Updater interface {
	Update(ctx *FrameContext, obj *Object, elapsedMs float64)
}

// Destroyer is told when its object leaves the registry.
type Destroyer interface {
	OnDestroy(obj *Object)
}

type Object struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
	// Angle in degrees.
	Angle float32

	// Kinematics is only set for entities.
	Kinematics *Kinematics

	id       ObjectID
	name     string
	layer    int
	category Category

	visible          bool
	affectedByCamera bool
	textured         bool
	flipHorizontal   bool
	flipVertical     bool
	colors           [metadata.CornerCount]metadata.Color

	animation *Animation
	behavior  Behavior
	loopTimer core.TimerHandle

	// hitbox objects only
	parent ObjectID
	hitbox HitBoxID

	empty bool
}

func NewObject(category Category, x, y, width, height float32) *Object {
	o := &Object{
		X:                x,
		Y:                y,
		Width:            width,
		Height:           height,
		category:         category,
		visible:          true,
		affectedByCamera: category != HUDElement,
		textured:         category != Hitbox,
	}
	o.colors = [metadata.CornerCount]metadata.Color{metadata.ColorWhite, metadata.ColorWhite, metadata.ColorWhite, metadata.ColorWhite}
	if category == Entity {
		o.Kinematics = &Kinematics{Mass: 1}
	}
	if category == Hitbox {
		o.colors = [metadata.CornerCount]metadata.Color{metadata.ColorRed, metadata.ColorRed, metadata.ColorRed, metadata.ColorRed}
	}
	return o
}

func NewEntity(x, y, width, height float32, behavior Behavior) *Object {
	o := NewObject(Entity, x, y, width, height)
	o.behavior = behavior
	return o
}

func newEmptyObject() *Object {
	o := NewObject(NonEntity, 0, 0, 0, 0)
	o.visible = false
	o.empty = true
	return o
}

func (o *Object) ID() ObjectID {
	return o.id
}

func (o *Object) Name() string {
	return o.name
}

func (o *Object) Layer() int {
	return o.layer
}

func (o *Object) Category() Category {
	return o.category
}

// IsEmpty reports the sentinel returned by failed registry lookups.
func (o *Object) IsEmpty() bool {
	return o.empty
}

func (o *Object) Behavior() Behavior {
	return o.behavior
}

func (o *Object) SetBehavior(b Behavior) {
	o.behavior = b
}

func (o *Object) Show() {
	o.visible = true
}

func (o *Object) Hide() {
	o.visible = false
}

func (o *Object) IsVisible() bool {
	return o.visible
}

func (o *Object) IsAffectedByCamera() bool {
	return o.affectedByCamera
}

func (o *Object) SetAffectedByCamera(affected bool) {
	o.affectedByCamera = affected
}

// SetTextured switches between the animation's texture and flat corner
// colors.
func (o *Object) SetTextured(textured bool) {
	o.textured = textured
}

func (o *Object) IsTextured() bool {
	return o.textured
}

func (o *Object) SetFlip(horizontal, vertical bool) {
	o.flipHorizontal, o.flipVertical = horizontal, vertical
}

func (o *Object) ResetFlip() {
	o.SetFlip(false, false)
}

func (o *Object) FlippedHorizontally() bool {
	return o.flipHorizontal
}

func (o *Object) FlippedVertically() bool {
	return o.flipVertical
}

// SetColor colors one corner, or all of them with CornerAll. Channels are in
// [0, 1] and get clamped.
func (o *Object) SetColor(r, g, b, a float32, corner metadata.Corner) error {
	c := metadata.Color{
		R: math.Clamp(r, 0, 1),
		G: math.Clamp(g, 0, 1),
		B: math.Clamp(b, 0, 1),
		A: math.Clamp(a, 0, 1),
	}
	switch {
	case corner == metadata.CornerAll:
		for i := range o.colors {
			o.colors[i] = c
		}
	case int(corner) < metadata.CornerCount:
		o.colors[corner] = c
	default:
		err := fmt.Errorf("object %d: corner %d: %w", o.id, corner, core.ErrInvalidCorner)
		core.LogWarn(err.Error())
		return err
	}
	return nil
}

// Color returns a corner color; white for an invalid corner.
func (o *Object) Color(corner metadata.Corner) metadata.Color {
	if int(corner) >= metadata.CornerCount {
		core.LogWarn("object %d: corner %d: %s", o.id, corner, core.ErrInvalidCorner)
		return metadata.ColorWhite
	}
	return o.colors[corner]
}

func (o *Object) Colors() [metadata.CornerCount]metadata.Color {
	return o.colors
}

func (o *Object) Scale(factor float32) {
	if factor <= 0 {
		return
	}
	o.Width *= factor
	o.Height *= factor
}

func (o *Object) SetPosition(x, y float32) {
	o.X, o.Y = x, y
}

func (o *Object) SetSize(width, height float32) {
	o.Width, o.Height = width, height
}

func (o *Object) Bounds() math.Rect {
	return math.NewRect(o.X, o.Y, o.Width, o.Height)
}

// Center returns the middle of the object's bounds.
func (o *Object) Center() (float32, float32) {
	return o.X + o.Width/2, o.Y + o.Height/2
}

// Model maps the unit quad centered on the origin onto the object's bounds,
// rotated around its center.
func (o *Object) Model() mgl32.Mat4 {
	cx, cy := o.Center()
	return mgl32.Translate3D(cx, cy, 0).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(-o.Angle))).
		Mul4(mgl32.Scale3D(o.Width, o.Height, 1))
}

func (o *Object) Animation() *Animation {
	return o.animation
}

// SetAnimation binds a and hands back the previously bound animation, which
// the caller now owns.
func (o *Object) SetAnimation(a *Animation) *Animation {
	prev := o.animation
	o.animation = a
	return prev
}

// ReplaceAnimation binds a and destroys the previous animation.
func (o *Object) ReplaceAnimation(a *Animation) {
	if prev := o.SetAnimation(a); prev != nil && prev != a {
		prev.Destroy()
	}
}

// HitBox returns the physics hitbox mirrored by a Hitbox object.
func (o *Object) HitBox() HitBoxID {
	return o.hitbox
}

// Parent returns the object a Hitbox object follows.
func (o *Object) Parent() ObjectID {
	return o.parent
}
