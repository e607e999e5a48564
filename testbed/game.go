package testbed

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

const (
	LayerHUD        = -1
	LayerHitboxes   = 0
	LayerWorld      = 1
	LayerBackground = 2
)

// Layout places the objects of the sample scene.
type Layout struct {
	GroundY      float32
	GroundWidth  float32
	GroundHeight float32
	PlayerX      float32
	PlayerY      float32
	PlayerWidth  float32
	PlayerHeight float32
	BaseSpeed    float32
	// the camera keeps the player centered horizontally
	FollowPlayer bool
}

func DefaultLayout() Layout {
	return Layout{
		GroundY:      400,
		GroundWidth:  2000,
		GroundHeight: 50,
		PlayerX:      100,
		PlayerY:      0,
		PlayerWidth:  48,
		PlayerHeight: 48,
		BaseSpeed:    0.5,
		FollowPlayer: true,
	}
}

type TestGame struct {
	*engine.Game
	layout Layout
	state  *gameState
}

type gameState struct {
	width  uint32
	height uint32

	player       *Player
	playerID     systems.ObjectID
	groundID     systems.ObjectID
	backgroundID systems.ObjectID
	statsID      systems.ObjectID

	groundContact systems.CollisionID
	grounded      bool
}

func NewTestGame(config *engine.ApplicationConfig, layout Layout) *TestGame {
	state := &gameState{}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             state,
		},
		layout: layout,
		state:  state,
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (tg *TestGame) Initialize() error {
	core.LogDebug("Game initialize fn....")
	sm := tg.SystemManager
	registry := sm.Registry
	l := tg.layout

	background := systems.NewObject(systems.NonEntity, 0, 0, float32(tg.ApplicationConfig.Window.StartWidth), float32(tg.ApplicationConfig.Window.StartHeight))
	background.SetAffectedByCamera(false)
	if anim, err := sm.AnimationSystem.Load("background"); err == nil {
		background.SetAnimation(anim)
	} else {
		anim.Destroy()
		background.SetTextured(false)
		background.SetColor(0.35, 0.55, 0.85, 1, metadata.CornerTopLeft)
		background.SetColor(0.35, 0.55, 0.85, 1, metadata.CornerTopRight)
		background.SetColor(0.75, 0.85, 0.95, 1, metadata.CornerBottomRight)
		background.SetColor(0.75, 0.85, 0.95, 1, metadata.CornerBottomLeft)
	}
	id, err := registry.Register(LayerBackground, "background", background)
	if err != nil {
		return err
	}
	tg.state.backgroundID = id

	ground := systems.NewObject(systems.NonEntity, 0, l.GroundY, l.GroundWidth, l.GroundHeight)
	ground.SetTextured(false)
	ground.SetColor(50.0/255, 100.0/255, 60.0/255, 1, metadata.CornerAll)
	if tg.state.groundID, err = registry.Register(LayerWorld, "ground", ground); err != nil {
		return err
	}

	playerObj, player := NewPlayer(sm.AnimationSystem, l.PlayerX, l.PlayerY, l.PlayerWidth, l.PlayerHeight, l.BaseSpeed, sm.PhysicsSystem.Gravity())
	if tg.state.playerID, err = registry.Register(LayerWorld, "player", playerObj); err != nil {
		return err
	}
	tg.state.player = player

	// the player box reaches one unit below its feet so standing on the
	// ground counts as contact
	_, playerHB, err := registry.AttachHitBox(tg.state.playerID, LayerHitboxes, 4, 1, l.PlayerWidth-8, l.PlayerHeight)
	if err != nil {
		return err
	}
	_, groundHB, err := registry.AttachHitBox(tg.state.groundID, LayerHitboxes, 0, 0, l.GroundWidth, l.GroundHeight)
	if err != nil {
		return err
	}
	if tg.state.groundContact, err = sm.PhysicsSystem.ListenCollisions(playerHB, groundHB); err != nil {
		return err
	}

	stats := systems.NewObject(systems.HUDElement, 8, 8, statsPanelWidth, 10)
	stats.SetTextured(false)
	stats.SetBehavior(&statsPanel{metrics: tg.Metrics})
	if !registry.ShowHitboxes() {
		stats.Hide()
	}
	if tg.state.statsID, err = registry.Register(LayerHUD, "stats", stats); err != nil {
		return err
	}
	tg.Events.Register(core.EVENT_CODE_DEBUG_TOGGLED, tg.onDebugToggled)

	return nil
}

func (tg *TestGame) Update(deltaTime float64) error {
	sm := tg.SystemManager
	tg.state.grounded = sm.PhysicsSystem.IsColliding(tg.state.groundContact)

	if tg.layout.FollowPlayer {
		player := sm.Registry.Get(tg.state.playerID)
		ground := sm.Registry.Get(tg.state.groundID)
		cx, _ := player.Center()
		sm.Camera().Follow(cx, ground.Y)
	}
	return nil
}

func (tg *TestGame) OnResize(width uint32, height uint32) error {
	tg.state.width = width
	tg.state.height = height

	// the ground sits a little below the middle of the screen
	tg.SystemManager.Camera().SetOffset(float32(width)/2, float32(height)/2+50)

	background := tg.SystemManager.Registry.Get(tg.state.backgroundID)
	background.SetSize(float32(width), float32(height))
	return nil
}

func (tg *TestGame) Shutdown() error {
	tg.Events.Unregister(core.EVENT_CODE_DEBUG_TOGGLED, tg.onDebugToggled)
	return nil
}

func (tg *TestGame) onDebugToggled(context core.EventContext) bool {
	show, ok := context.Data.(bool)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	stats := tg.SystemManager.Registry.Get(tg.state.statsID)
	if show {
		stats.Show()
	} else {
		stats.Hide()
	}
	return false
}

func (tg *TestGame) Player() *Player {
	return tg.state.player
}

func (tg *TestGame) PlayerObject() *systems.Object {
	return tg.SystemManager.Registry.Get(tg.state.playerID)
}

// Grounded reports whether the player touched the ground during the last frame.
func (tg *TestGame) Grounded() bool {
	return tg.state.grounded
}

func (tg *TestGame) String() string {
	p := tg.PlayerObject()
	return fmt.Sprintf("player (%.1f, %.1f) %s grounded=%t", p.X, p.Y, tg.state.player.State(), tg.state.grounded)
}

const statsPanelWidth = 200

// statsPanel is a bar whose length follows the frame rate. It is full and
// green at 60 fps and shades to red as the rate drops.
type statsPanel struct {
	metrics *core.Metrics
}

func (s *statsPanel) Events(ctx *systems.FrameContext, obj *systems.Object) {
	if s.metrics == nil {
		return
	}
	ratio := math.Clamp(float32(s.metrics.FrameFPS()/60), 0, 1)
	obj.Width = statsPanelWidth * ratio
	obj.SetColor(1-ratio, ratio, 0, 0.8, metadata.CornerAll)
}
