package systems

import (
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/components"
)

type SystemManagerConfig struct {
	ViewportWidth     float32
	ViewportHeight    float32
	MaxTextureCount   uint32
	MaxCameraCount    uint16
	PlaceholderSprite string
	Physics           PhysicsConfig
}

// SystemManager wires the engine systems together in dependency order.
type SystemManager struct {
	CameraSystem    *CameraSystem
	TextureSystem   *TextureSystem
	AnimationSystem *AnimationSystem
	PhysicsSystem   *PhysicsSystem
	Registry        *ObjectRegistry
}

func NewSystemManager(config SystemManagerConfig, timers *core.TimerService, sprites SpriteSource, uploader TextureUploader, drawer Drawer) (*SystemManager, error) {
	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: config.MaxCameraCount,
		ViewportWidth:  config.ViewportWidth,
		ViewportHeight: config.ViewportHeight,
	})
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: config.MaxTextureCount,
	}, sprites, uploader)
	if err != nil {
		return nil, err
	}
	if err := ts.Initialize(); err != nil {
		return nil, err
	}
	as := NewAnimationSystem(timers, ts, config.PlaceholderSprite)
	ps := NewPhysicsSystem(config.Physics)
	registry := NewObjectRegistry(timers, as, ps, drawer, cs.GetDefault())

	return &SystemManager{
		CameraSystem:    cs,
		TextureSystem:   ts,
		AnimationSystem: as,
		PhysicsSystem:   ps,
		Registry:        registry,
	}, nil
}

func (sm *SystemManager) Camera() *components.Camera {
	return sm.CameraSystem.GetDefault()
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.Registry.Shutdown(); err != nil {
		return err
	}
	if err := sm.PhysicsSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.AnimationSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.CameraSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
