package testbed

import (
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

type PlayerState uint8

const (
	Standing PlayerState = iota
	Walking
	JumpStart
	Jumping
)

func (s PlayerState) String() string {
	switch s {
	case Standing:
		return "standing"
	case Walking:
		return "walking"
	case JumpStart:
		return "jump-start"
	case Jumping:
		return "jumping"
	default:
		return "unknown"
	}
}

type Direction int8

const (
	Left  Direction = -1
	Right Direction = 1
)

const (
	animPlayerStand     = "player_stand"
	animPlayerWalk      = "player_walk"
	animPlayerStartJump = "player_jump_start"
)

// Player walks with the arrow keys and jumps with space. It lands on the
// object registered as "ground".
type Player struct {
	BaseSpeed float32
	KeyLeft   core.KeyCode
	KeyRight  core.KeyCode
	KeyJump   core.KeyCode

	state     PlayerState
	direction Direction
	isJumping bool

	animStand     *systems.Animation
	animWalk      *systems.Animation
	animStartJump *systems.Animation
}

// NewPlayer builds the player entity. Animations missing from the manifest
// fall back to the placeholder so the player is always drawable.
func NewPlayer(animations *systems.AnimationSystem, x, y, width, height, baseSpeed, gravity float32) (*systems.Object, *Player) {
	p := &Player{
		BaseSpeed: baseSpeed,
		KeyLeft:   core.KEY_LEFT,
		KeyRight:  core.KEY_RIGHT,
		KeyJump:   core.KEY_SPACE,
		state:     Standing,
		direction: Right,
	}
	p.animStand = loadOrPlaceholder(animations, animPlayerStand)
	p.animStand.Loop()
	p.animWalk = loadOrPlaceholder(animations, animPlayerWalk)
	p.animWalk.Loop()
	p.animStartJump = loadOrPlaceholder(animations, animPlayerStartJump)
	p.animStartJump.Stop()

	obj := systems.NewEntity(x, y, width, height, p)
	obj.SetAnimation(p.animStand)
	obj.Kinematics.AccelerationY = gravity
	return obj, p
}

func loadOrPlaceholder(animations *systems.AnimationSystem, name string) *systems.Animation {
	a, err := animations.Load(name)
	if err == nil {
		return a
	}
	a.Destroy()
	return animations.Placeholder()
}

func (p *Player) State() PlayerState {
	return p.state
}

func (p *Player) Direction() Direction {
	return p.direction
}

func (p *Player) IsJumping() bool {
	return p.isJumping
}

func (p *Player) use(obj *systems.Object, a *systems.Animation) {
	if obj.Animation() == a {
		return
	}
	obj.SetAnimation(a)
	a.Reset()
}

func (p *Player) Events(ctx *systems.FrameContext, obj *systems.Object) {
	in := ctx.Input
	if in == nil {
		return
	}
	k := obj.Kinematics

	if !p.isJumping {
		left := in.IsPressedOrHeld(p.KeyLeft)
		right := in.IsPressedOrHeld(p.KeyRight)
		switch {
		case left == right:
			// both or neither: stop
			k.VelocityX = 0
			p.state = Standing
			p.use(obj, p.animStand)
		case left:
			k.VelocityX = -p.BaseSpeed
			p.state = Walking
			p.direction = Left
			p.use(obj, p.animWalk)
			obj.SetFlip(true, false)
		case right:
			k.VelocityX = p.BaseSpeed
			p.state = Walking
			p.direction = Right
			p.use(obj, p.animWalk)
			obj.ResetFlip()
		}

		if in.IsKeyPressed(p.KeyJump) {
			k.VelocityY = -p.BaseSpeed
			p.state = JumpStart
			p.isJumping = true
			p.use(obj, p.animStartJump)
			p.animStartJump.Reset()
		}
		return
	}

	// a single-frame animation never finishes
	if p.state == JumpStart && (p.animStartJump.IsFinished() || p.animStartJump.KeyFrameCount() <= 1) {
		p.state = Jumping
	}
}

func (p *Player) Update(ctx *systems.FrameContext, obj *systems.Object, elapsedMs float64) {
	dt := float32(elapsedMs)
	systems.AccelerateObject(obj, dt)
	systems.MoveObject(obj, dt)

	ground := ctx.Registry.GetByName("ground")
	if ground.IsEmpty() {
		return
	}
	if groundLevel := ground.Y; obj.Y > groundLevel-obj.Height {
		obj.Y = groundLevel - obj.Height
		obj.Kinematics.VelocityY = 0
		p.isJumping = false
		if p.state == JumpStart || p.state == Jumping {
			p.state = Standing
		}
	}
}

// OnDestroy releases the animations that are not bound to the object; the
// registry destroys the bound one.
func (p *Player) OnDestroy(obj *systems.Object) {
	for _, a := range []*systems.Animation{p.animStand, p.animWalk, p.animStartJump} {
		if a != obj.Animation() {
			a.Destroy()
		}
	}
}
