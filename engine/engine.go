package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/opengl"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every system
	EngineStageShutdown
)

const maxCameraCount uint16 = 16

// stats are logged at most once per this many milliseconds
const statsIntervalMs = 1000.0

// how long a minimized window sleeps between event polls
const suspendedSleepMs = 100.0

type Option func(*Engine)

// WithHeadless renders through the recording backend instead of opening a window.
func WithHeadless() Option {
	return func(e *Engine) {
		e.headless = true
	}
}

// WithTimeSource replaces the wall clock used by the loop and every timer.
func WithTimeSource(source core.TimeSource) Option {
	return func(e *Engine) {
		e.timeSource = source
	}
}

// WithFrameLimit stops the loop after n frames. Zero runs until quit.
func WithFrameLimit(n uint64) Option {
	return func(e *Engine) {
		e.frameLimit = n
	}
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig
	isRunning    bool
	isSuspended  bool
	headless     bool

	timeSource    core.TimeSource
	platform      *platform.Platform
	events        *core.EventSystem
	input         *core.InputSystem
	timers        *core.TimerService
	assetManager  *assets.AssetManager
	rendererType  renderer.RendererType
	backend       renderer.RendererBackend
	renderer      *renderer.RendererSystem
	systemManager *systems.SystemManager
	metrics       *core.Metrics
	clock         *core.Clock

	width    uint32
	height   uint32
	lastTime float64

	frame      uint64
	frameLimit uint64
	showStats  bool
	statsMs    float64
}

func New(g *Game, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("func New - game instance is nil")
	}
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	config := g.ApplicationConfig
	core.SetLogLevel(config.LogLevel())

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       config,
		timeSource:   core.SystemTime,
		width:        config.Window.StartWidth,
		height:       config.Window.StartHeight,
		showStats:    config.Debug.ShowStats,
	}
	for _, o := range opts {
		o(e)
	}

	e.events = core.NewEventSystem()
	e.input = core.NewInputSystem(e.events)
	e.timers = core.NewTimerService(e.timeSource)
	e.clock = core.NewClock(e.timeSource)
	e.metrics = core.NewMetrics()
	e.assetManager = assets.NewAssetManager()

	if e.headless {
		e.rendererType = renderer.Headless
		e.backend = renderer.NewHeadlessBackend()
	} else {
		e.rendererType = renderer.OpenGL
		e.platform = platform.New(e.input, e.events)
		e.backend = opengl.New(e.platform)
	}
	e.renderer = renderer.NewRendererSystem(e.backend)

	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("func Initialize - engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	config := e.config

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e.onResized)

	if e.platform != nil {
		if err := e.platform.Startup(config.Window.Name,
			config.Window.StartPosX,
			config.Window.StartPosY,
			config.Window.StartWidth,
			config.Window.StartHeight,
			config.Window.VSync); err != nil {
			return err
		}
		// HiDPI framebuffers are larger than the requested window
		e.width, e.height = e.platform.FramebufferSize()
	}

	if err := e.renderer.Initialize(config.Window.Name, e.width, e.height); err != nil {
		return err
	}
	core.LogInfo("%s renderer initialized at %dx%d", e.rendererType, e.width, e.height)

	if err := e.assetManager.Initialize(config.Assets.ImagesDir, config.Assets.HotReload); err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		ViewportWidth:     float32(e.width),
		ViewportHeight:    float32(e.height),
		MaxTextureCount:   config.Assets.MaxTextureCount,
		MaxCameraCount:    maxCameraCount,
		PlaceholderSprite: config.Assets.PlaceholderSprite,
		Physics:           systems.PhysicsConfig{Gravity: config.Physics.Gravity},
	}, e.timers, e.assetManager, e.renderer, e.renderer)
	if err != nil {
		return err
	}
	e.systemManager = sm
	sm.Registry.Context().Input = e.input
	sm.Registry.SetShowHitboxes(config.Debug.ShowHitboxes)

	if err := e.loadAnimationManifest(config.Assets.AnimationManifest); err != nil {
		return err
	}

	e.gameInstance.SystemManager = sm
	e.gameInstance.Input = e.input
	e.gameInstance.Events = e.events
	e.gameInstance.Metrics = e.metrics

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadAnimationManifest(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("animation manifest '%s' not found, no named animations available", path)
		return nil
	}
	manifest, err := e.assetManager.LoadAnimationManifest(path)
	if err != nil {
		return err
	}
	e.systemManager.AnimationSystem.RegisterDefinitions(manifest)
	core.LogInfo("loaded %d animation definitions from '%s'", len(manifest.Animations), path)
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("func Run - engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}

		e.events.ProcessEvents()
		if !e.isRunning {
			break
		}

		if e.isSuspended {
			e.timers.Delay(suspendedSleepMs)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		deltaMs := delta * 1000
		e.metrics.Update(delta)

		if err := e.runFrame(deltaMs); err != nil {
			core.LogError("frame %d failed, shutting down: %s", e.frame, err)
			e.isRunning = false
			e.clock.Stop()
			e.currentStage = EngineStageInitialized
			return err
		}
		e.logStats(deltaMs)

		// Figure out how long the frame took and give the rest of the budget back.
		e.clock.Update()
		frameElapsedMs := (e.clock.Elapsed() - currentTime) * 1000
		if budget := e.config.FrameBudgetMs(); budget > 0 {
			e.timers.Delay(budget - frameElapsedMs)
		}

		// Input is the last thing updated so every reader this frame saw the
		// same pressed/held state.
		e.input.Update()

		e.lastTime = currentTime
		e.frame++
		if e.frameLimit > 0 && e.frame >= e.frameLimit {
			e.isRunning = false
		}
	}

	e.clock.Stop()
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) runFrame(deltaMs float64) error {
	sm := e.systemManager

	if n := sm.TextureSystem.ReloadChanged(); n > 0 {
		core.LogInfo("reloaded %d textures", n)
	}

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(deltaMs); err != nil {
			return err
		}
	}

	sm.CameraSystem.Update(float32(deltaMs / 1000))

	packet := &metadata.RenderPacket{DeltaTime: deltaMs}
	if err := e.renderer.BeginFrame(packet); err != nil {
		return err
	}
	sm.Registry.DrawAll()
	sm.PhysicsSystem.CheckCollisions()
	return e.renderer.EndFrame(packet)
}

func (e *Engine) logStats(deltaMs float64) {
	if !e.showStats {
		return
	}
	e.statsMs += deltaMs
	if e.statsMs < statsIntervalMs {
		return
	}
	e.statsMs = 0
	fps, frameMs := e.metrics.Frame()
	core.LogInfo("fps: %.0f frame: %.2fms objects: %d draws: %d textures: %d",
		fps, frameMs,
		e.systemManager.Registry.Count(),
		e.renderer.FrameDraws(),
		e.systemManager.TextureSystem.Count())
}

// Quit asks the loop to stop at the start of the next frame. Safe to call from
// any goroutine.
func (e *Engine) Quit() {
	e.events.Post(core.EventContext{
		Type: core.EVENT_CODE_APPLICATION_QUIT,
	})
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.systemManager != nil {
		errs = append(errs, e.systemManager.Shutdown())
	}
	errs = append(errs,
		e.assetManager.Shutdown(),
		e.renderer.Shutdown(),
		e.input.Shutdown(),
		e.events.Shutdown(),
	)
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}
	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Frame is the number of frames run so far.
func (e *Engine) Frame() uint64 {
	return e.frame
}

func (e *Engine) IsSuspended() bool {
	return e.isSuspended
}

func (e *Engine) RendererType() renderer.RendererType {
	return e.rendererType
}

func (e *Engine) Backend() renderer.RendererBackend {
	return e.backend
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
	// other listeners may want to know too
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	switch ke.KeyCode {
	case core.KEY_ESCAPE:
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
		// Block anything else from processing this.
		return true
	case core.KEY_F3:
		e.ToggleDebug()
		return true
	}
	return false
}

// ToggleDebug flips the hitbox overlay and the stats log together.
func (e *Engine) ToggleDebug() {
	registry := e.systemManager.Registry
	show := !registry.ShowHitboxes()
	registry.SetShowHitboxes(show)
	e.showStats = show
	e.statsMs = 0
	core.LogDebug("debug overlay: %t", show)
	e.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_DEBUG_TOGGLED,
		Data: show,
	})
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width := se.WindowWidth
	height := se.WindowHeight

	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}

	e.systemManager.CameraSystem.OnResize(float32(width), float32(height))
	if err := e.renderer.OnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}
