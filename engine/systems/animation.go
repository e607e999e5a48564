package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// TextureProvider is the part of the texture system an animation needs.
type TextureProvider interface {
	Acquire(name string, flipY bool) (*metadata.Texture, error)
	Release(handle metadata.TextureHandle)
}

// Animation plays a sequence of texture handles at a fixed pace. It is
// owned by at most one object at a time.
type Animation struct {
	name      string
	keyFrames []metadata.TextureHandle
	cursor    int

	fps       float32
	speed     float32
	frameTime float64

	looping      bool
	finished     bool
	justFinished bool
	loaded       bool
	destroyed    bool

	timer    core.TimerHandle
	timers   *core.TimerService
	textures TextureProvider
}

func newAnimation(name string, fps, speed float32, looping bool, timers *core.TimerService, textures TextureProvider) *Animation {
	a := &Animation{
		name:     name,
		looping:  looping,
		timer:    timers.Create(),
		timers:   timers,
		textures: textures,
	}
	a.CalculateFrameTime(fps, speed)
	return a
}

func (a *Animation) Name() string {
	return a.name
}

// CalculateFrameTime sets the pace to 1000 / fps / speed milliseconds per
// frame. Non-positive values are ignored.
func (a *Animation) CalculateFrameTime(fps, speed float32) {
	if fps <= 0 || speed <= 0 {
		core.LogWarn("animation '%s': fps and speed must be positive (fps=%v speed=%v)", a.name, fps, speed)
		return
	}
	a.fps, a.speed = fps, speed
	a.frameTime = 1000 / float64(fps) / float64(speed)
}

func (a *Animation) FrameTime() float64 {
	return a.frameTime
}

func (a *Animation) FPS() float32 {
	return a.fps
}

func (a *Animation) Speed() float32 {
	return a.speed
}

// SetKeyFrames replaces the keyframes with already-acquired handles. The
// animation takes over one reference to each.
func (a *Animation) SetKeyFrames(handles []metadata.TextureHandle) {
	a.releaseKeyFrames()
	a.keyFrames = append([]metadata.TextureHandle(nil), handles...)
	a.loaded = true
	a.Reset()
}

// LoadKeyFrames acquires one texture per sprite name. On the first failure
// every texture acquired so far is released and the animation is left
// unloaded.
func (a *Animation) LoadKeyFrames(names []string, flipY bool) error {
	a.releaseKeyFrames()
	a.loaded = false

	handles := make([]metadata.TextureHandle, 0, len(names))
	for _, name := range names {
		texture, err := a.textures.Acquire(name, flipY)
		if err != nil {
			for _, h := range handles {
				a.textures.Release(h)
			}
			err = fmt.Errorf("animation '%s': keyframe '%s': %w", a.name, name, err)
			core.LogError(err.Error())
			return err
		}
		handles = append(handles, texture.Handle)
	}

	a.keyFrames = handles
	a.loaded = true
	a.Reset()
	return nil
}

func (a *Animation) releaseKeyFrames() {
	if a.textures != nil {
		for _, h := range a.keyFrames {
			a.textures.Release(h)
		}
	}
	a.keyFrames = nil
}

// Step advances the cursor when a frame interval has elapsed and returns the
// keyframe to bind. It returns InvalidTextureHandle when there is nothing to
// show.
func (a *Animation) Step() metadata.TextureHandle {
	a.justFinished = false
	if !a.loaded || a.destroyed || len(a.keyFrames) == 0 {
		return metadata.InvalidTextureHandle
	}
	if len(a.keyFrames) == 1 {
		return a.keyFrames[0]
	}
	if a.finished {
		return a.keyFrames[a.cursor]
	}

	if a.timers.ElapsedMs(a.timer) >= a.frameTime {
		a.cursor++
		a.timers.Reset(a.timer)
		if a.cursor >= len(a.keyFrames) {
			if a.looping {
				a.cursor = 0
			} else {
				a.cursor = len(a.keyFrames) - 1
				a.finished = true
				a.justFinished = true
			}
		}
	}
	return a.keyFrames[a.cursor]
}

// Current returns the keyframe under the cursor without stepping.
func (a *Animation) Current() metadata.TextureHandle {
	if !a.loaded || len(a.keyFrames) == 0 {
		return metadata.InvalidTextureHandle
	}
	return a.keyFrames[a.cursor]
}

// Reset rewinds to the first keyframe and restarts the frame timer.
func (a *Animation) Reset() {
	a.cursor = 0
	a.finished = false
	a.justFinished = false
	if !a.destroyed {
		a.timers.Reset(a.timer)
	}
}

// Loop makes the animation wrap around; a finished one starts over.
func (a *Animation) Loop() {
	a.looping = true
	if a.finished {
		a.Reset()
	}
}

// Stop lets the animation run to its last keyframe and hold there.
func (a *Animation) Stop() {
	a.looping = false
}

func (a *Animation) Cursor() int {
	return a.cursor
}

func (a *Animation) KeyFrameCount() int {
	return len(a.keyFrames)
}

func (a *Animation) IsLooping() bool {
	return a.looping
}

func (a *Animation) IsFinished() bool {
	return a.finished
}

// JustFinished is true only for the Step that finished the animation.
func (a *Animation) JustFinished() bool {
	return a.justFinished
}

func (a *Animation) IsLoaded() bool {
	return a.loaded && !a.destroyed
}

// Destroy releases the keyframe textures and the frame timer. Calling it more
// than once is harmless.
func (a *Animation) Destroy() {
	if a.destroyed {
		return
	}
	a.releaseKeyFrames()
	a.timers.Kill(a.timer)
	a.timer = core.InvalidTimerHandle
	a.loaded = false
	a.destroyed = true
}

// AnimationSystem creates animations and knows the named definitions from
// the animation manifest.
type AnimationSystem struct {
	timers      *core.TimerService
	textures    *TextureSystem
	definitions map[string]loaders.AnimationDef
	placeholder string
	// set once the placeholder sprite failed to load
	placeholderMissing bool
}

func NewAnimationSystem(timers *core.TimerService, textures *TextureSystem, placeholderSprite string) *AnimationSystem {
	return &AnimationSystem{
		timers:      timers,
		textures:    textures,
		definitions: make(map[string]loaders.AnimationDef),
		placeholder: placeholderSprite,
	}
}

func (as *AnimationSystem) Shutdown() error {
	as.definitions = make(map[string]loaders.AnimationDef)
	return nil
}

// RegisterDefinitions adds every animation from a manifest, replacing
// definitions with the same name.
func (as *AnimationSystem) RegisterDefinitions(manifest *loaders.AnimationManifest) {
	for name, def := range manifest.Animations {
		as.definitions[name] = def
	}
	core.LogInfo("%d animation definitions registered", len(manifest.Animations))
}

func (as *AnimationSystem) HasDefinition(name string) bool {
	_, ok := as.definitions[name]
	return ok
}

// New creates an empty animation with its own frame timer.
func (as *AnimationSystem) New(name string, fps, speed float32, looping bool) *Animation {
	return newAnimation(name, fps, speed, looping, as.timers, as.textures)
}

// FromSprites creates an animation and loads its keyframes. The animation is
// returned even when loading fails; it is then not loaded.
func (as *AnimationSystem) FromSprites(name string, sprites []string, fps, speed float32, looping, flipY bool) (*Animation, error) {
	a := as.New(name, fps, speed, looping)
	err := a.LoadKeyFrames(sprites, flipY)
	return a, err
}

// Load builds the named animation from the manifest.
func (as *AnimationSystem) Load(name string) (*Animation, error) {
	def, ok := as.definitions[name]
	if !ok {
		err := fmt.Errorf("animation '%s' is not defined: %w", name, core.ErrAssetNotFound)
		core.LogError(err.Error())
		return as.New(name, 1, 1, false), err
	}
	return as.FromSprites(name, def.Sprites, def.FPS, def.Speed, def.Loop, def.FlipY)
}

// Placeholder returns a static animation showing the placeholder sprite, or
// the built-in default texture when that sprite cannot be loaded.
func (as *AnimationSystem) Placeholder() *Animation {
	a := as.New("placeholder", 1, 1, false)
	if as.placeholder != "" && !as.placeholderMissing {
		if err := a.LoadKeyFrames([]string{as.placeholder}, false); err == nil {
			return a
		}
		core.LogWarn("placeholder sprite '%s' unavailable, using the default texture", as.placeholder)
		as.placeholderMissing = true
	}
	if def := as.textures.GetDefaultTexture(); def != nil {
		a.SetKeyFrames([]metadata.TextureHandle{def.Handle})
	}
	return a
}
