package engine

import (
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/systems"
)

// Game is the application plugged into the engine. SystemManager, Input,
// Events and Metrics are set by the engine before FnInitialize runs.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	Input             *core.InputSystem
	Events            *core.EventSystem
	Metrics           *core.Metrics
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func() error

// Update runs once per frame before objects are drawn. deltaTime is in milliseconds.
type Update func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
