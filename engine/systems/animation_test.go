package systems

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

func TestAnimationFrameTime(t *testing.T) {
	h := newHarness(t, "")
	tests := []struct {
		fps, speed float32
		want       float64
	}{
		{10, 1, 100},
		{10, 2, 50},
		{4, 0.5, 500},
	}
	for _, tt := range tests {
		a := h.sm.AnimationSystem.New("a", tt.fps, tt.speed, true)
		if a.FrameTime() != tt.want {
			t.Errorf("fps=%v speed=%v: FrameTime = %v, want %v", tt.fps, tt.speed, a.FrameTime(), tt.want)
		}
	}

	a := h.sm.AnimationSystem.New("a", 10, 1, true)
	a.CalculateFrameTime(0, 1)
	if a.FrameTime() != 100 {
		t.Errorf("invalid fps must keep the previous pace")
	}
}

func TestAnimationEmptyIsNoop(t *testing.T) {
	h := newHarness(t, "")
	a := h.sm.AnimationSystem.New("empty", 10, 1, true)
	a.SetKeyFrames(nil)
	h.clock.AdvanceMs(1000)
	if got := a.Step(); got != metadata.InvalidTextureHandle {
		t.Errorf("Step on empty animation = %d, want invalid", got)
	}
	if a.Cursor() != 0 {
		t.Errorf("cursor moved on an empty animation")
	}
}

func TestAnimationStaticNeverTouchesTimer(t *testing.T) {
	h := newHarness(t, "", "still")
	a, err := h.sm.AnimationSystem.FromSprites("still", []string{"still"}, 10, 1, false, false)
	if err != nil {
		t.Fatalf("FromSprites: %v", err)
	}
	want := a.Current()

	h.clock.AdvanceMs(250)
	for i := 0; i < 5; i++ {
		if got := a.Step(); got != want {
			t.Fatalf("Step = %d, want %d", got, want)
		}
	}
	if a.Cursor() != 0 || a.IsFinished() {
		t.Errorf("static animation must not advance")
	}
	if elapsed := h.timers.ElapsedMs(a.timer); elapsed != 250 {
		t.Errorf("timer was reset: elapsed %v, want 250", elapsed)
	}
}

func TestAnimationLoopingWraps(t *testing.T) {
	h := newHarness(t, "", "f0", "f1", "f2")
	a, err := h.sm.AnimationSystem.FromSprites("walk", []string{"f0", "f1", "f2"}, 10, 1, true, false)
	if err != nil {
		t.Fatalf("FromSprites: %v", err)
	}

	// not enough time yet
	h.clock.AdvanceMs(99)
	a.Step()
	if a.Cursor() != 0 {
		t.Fatalf("cursor advanced before frameTime elapsed")
	}

	h.clock.AdvanceMs(1)
	a.Step()
	if a.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", a.Cursor())
	}

	for i := 0; i < 2; i++ {
		h.clock.AdvanceMs(100)
		a.Step()
	}
	if a.Cursor() != 0 {
		t.Errorf("after N intervals cursor = %d, want 0", a.Cursor())
	}
	if a.IsFinished() {
		t.Errorf("looping animation never finishes")
	}
}

func TestAnimationOneShotFinishesOnce(t *testing.T) {
	h := newHarness(t, "", "f0", "f1", "f2")
	a, err := h.sm.AnimationSystem.FromSprites("jump", []string{"f0", "f1", "f2"}, 10, 1, false, false)
	if err != nil {
		t.Fatalf("FromSprites: %v", err)
	}

	justFinished := 0
	for i := 0; i < 10; i++ {
		h.clock.AdvanceMs(100)
		a.Step()
		if a.JustFinished() {
			justFinished++
		}
		if a.Cursor() > 2 {
			t.Fatalf("cursor %d out of range", a.Cursor())
		}
	}
	if a.Cursor() != 2 || !a.IsFinished() {
		t.Errorf("cursor = %d finished = %v, want 2 true", a.Cursor(), a.IsFinished())
	}
	if justFinished != 1 {
		t.Errorf("JustFinished reported %d times, want 1", justFinished)
	}

	a.Reset()
	if a.Cursor() != 0 || a.IsFinished() {
		t.Errorf("Reset must rewind and clear finished")
	}

	a.Loop()
	for i := 0; i < 3; i++ {
		h.clock.AdvanceMs(100)
		a.Step()
	}
	if a.Cursor() != 0 || a.IsFinished() {
		t.Errorf("after Loop the animation should wrap")
	}

	a.Stop()
	for i := 0; i < 4; i++ {
		h.clock.AdvanceMs(100)
		a.Step()
	}
	if a.IsLooping() || a.Cursor() != 2 || !a.IsFinished() {
		t.Errorf("after Stop: cursor = %d finished = %v, want 2 true", a.Cursor(), a.IsFinished())
	}
}

func TestAnimationLoadFailureReleasesTextures(t *testing.T) {
	h := newHarness(t, "", "f0", "f1")
	live := h.backend.LiveTextures()

	a, err := h.sm.AnimationSystem.FromSprites("broken", []string{"f0", "f1", "missing", "f0"}, 10, 1, true, false)
	if !errors.Is(err, core.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
	if a.IsLoaded() {
		t.Errorf("partial loads must leave the animation unloaded")
	}
	if a.Step() != metadata.InvalidTextureHandle {
		t.Errorf("unloaded animation must not produce keyframes")
	}
	if h.backend.LiveTextures() != live {
		t.Errorf("textures acquired before the failure leaked")
	}
}

func TestAnimationDestroyIsIdempotent(t *testing.T) {
	h := newHarness(t, "", "f0", "f1")
	timers := h.timers.Count()

	a, err := h.sm.AnimationSystem.FromSprites("walk", []string{"f0", "f1"}, 10, 1, true, false)
	if err != nil {
		t.Fatalf("FromSprites: %v", err)
	}
	a.Destroy()
	a.Destroy()

	if h.sm.TextureSystem.Count() != 0 {
		t.Errorf("textures still registered after Destroy")
	}
	if h.timers.Count() != timers {
		t.Errorf("timer leaked after Destroy")
	}
	if a.IsLoaded() {
		t.Errorf("destroyed animation reports loaded")
	}
}

func TestAnimationSystemDefinitions(t *testing.T) {
	h := newHarness(t, "", "w0", "w1")
	h.sm.AnimationSystem.RegisterDefinitions(&loaders.AnimationManifest{
		Animations: map[string]loaders.AnimationDef{
			"walk": {Sprites: []string{"w0", "w1"}, FPS: 8, Speed: 2, Loop: true},
		},
	})

	a, err := h.sm.AnimationSystem.Load("walk")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.KeyFrameCount() != 2 || !a.IsLooping() || a.FrameTime() != 62.5 {
		t.Errorf("unexpected animation: frames=%d looping=%v frameTime=%v", a.KeyFrameCount(), a.IsLooping(), a.FrameTime())
	}

	b, err := h.sm.AnimationSystem.Load("run")
	if !errors.Is(err, core.ErrAssetNotFound) || b == nil || b.IsLoaded() {
		t.Errorf("unknown definition should yield an unloaded animation and ErrAssetNotFound")
	}
}

func TestPlaceholderFallsBackToDefaultTexture(t *testing.T) {
	h := newHarness(t, "missing_placeholder")
	a := h.sm.AnimationSystem.Placeholder()
	if !a.IsLoaded() || a.Current() != h.sm.TextureSystem.GetDefaultTexture().Handle {
		t.Errorf("placeholder should show the default texture")
	}

	h2 := newHarness(t, "placeholder", "placeholder")
	b := h2.sm.AnimationSystem.Placeholder()
	if b.Current() == h2.sm.TextureSystem.GetDefaultTexture().Handle {
		t.Errorf("placeholder sprite should be preferred over the default texture")
	}
}
