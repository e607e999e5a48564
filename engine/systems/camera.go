package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/components"
)

type CameraSystem struct {
	Config *CameraSystemConfig
	Lookup map[string]*components.CameraLookup
	nextID uint16
	width  float32
	height float32
	// A default, non-registered camera that always exists as a fallback.
	DefaultCamera *components.Camera
}

/** @brief The camera system configuration. */
type CameraSystemConfig struct {
	/** @brief The maximum number of cameras that can be managed by the system. */
	MaxCameraCount uint16
	/** @brief Initial viewport size given to every camera. */
	ViewportWidth  float32
	ViewportHeight float32
}

func NewCameraSystem(config *CameraSystemConfig) (*CameraSystem, error) {
	if config.MaxCameraCount == 0 {
		err := fmt.Errorf("func NewCameraSystem - config.MaxCameraCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &CameraSystem{
		Config:        config,
		Lookup:        make(map[string]*components.CameraLookup, config.MaxCameraCount),
		width:         config.ViewportWidth,
		height:        config.ViewportHeight,
		DefaultCamera: components.NewCamera(config.ViewportWidth, config.ViewportHeight),
	}, nil
}

func (cs *CameraSystem) Shutdown() error {
	cs.Lookup = make(map[string]*components.CameraLookup)
	return nil
}

/**
 * @brief Acquires a camera by name, creating it on first use.
 * Internal reference counter is incremented.
 */
func (cs *CameraSystem) Acquire(name string) (*components.Camera, error) {
	if name == components.DEFAULT_CAMERA_NAME {
		return cs.DefaultCamera, nil
	}
	lookup, ok := cs.Lookup[name]
	if !ok {
		if len(cs.Lookup) >= int(cs.Config.MaxCameraCount) {
			err := fmt.Errorf("func CameraSystemAcquire failed to acquire new slot. Adjust camera system config to allow more")
			core.LogError(err.Error())
			return nil, err
		}
		core.LogDebug("Creating new camera named '%s'...", name)
		cs.nextID++
		lookup = &components.CameraLookup{
			ID:     cs.nextID,
			Camera: components.NewCamera(cs.width, cs.height),
		}
		cs.Lookup[name] = lookup
	}
	lookup.ReferenceCount++
	return lookup.Camera, nil
}

/**
 * @brief Releases a camera with the given name. When the counter reaches 0,
 * the camera is forgotten.
 */
func (cs *CameraSystem) Release(name string) {
	if name == components.DEFAULT_CAMERA_NAME {
		core.LogDebug("Cannot release default camera. Nothing was done.")
		return
	}
	lookup, ok := cs.Lookup[name]
	if !ok {
		core.LogWarn("CameraSystemRelease failed lookup. Nothing was done.")
		return
	}
	lookup.ReferenceCount--
	if lookup.ReferenceCount < 1 {
		lookup.Camera.Reset()
		delete(cs.Lookup, name)
	}
}

func (cs *CameraSystem) GetDefault() *components.Camera {
	return cs.DefaultCamera
}

// OnResize updates the projection of every camera.
func (cs *CameraSystem) OnResize(width, height float32) {
	cs.width, cs.height = width, height
	cs.DefaultCamera.SetSize(width, height)
	for _, lookup := range cs.Lookup {
		lookup.Camera.SetSize(width, height)
	}
}

// Update advances camera scrolls by dt seconds.
func (cs *CameraSystem) Update(dt float32) {
	cs.DefaultCamera.Update(dt)
	for _, lookup := range cs.Lookup {
		lookup.Camera.Update(dt)
	}
}
