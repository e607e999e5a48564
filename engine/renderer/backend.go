package renderer

import "github.com/spaghettifunk/anima2d/engine/renderer/metadata"

// RendererBackend is the narrow set of GPU operations the engine needs to
// draw textured and flat-colored quads.
type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	// TextureCreate uploads pixels and stores the backend handle on texture.
	TextureCreate(pixels []uint8, texture *metadata.Texture) error
	TextureDestroy(texture *metadata.Texture)
	// TextureWriteData replaces the pixels of a live texture, keeping its handle.
	TextureWriteData(texture *metadata.Texture, pixels []uint8) error
	TextureBind(handle metadata.TextureHandle) error
	TextureUnbind()
	Draw(cmd *metadata.DrawCommand) error
}

type RendererType uint8

const (
	OpenGL RendererType = iota
	Headless
)

func (rt RendererType) String() string {
	switch rt {
	case OpenGL:
		return "opengl"
	case Headless:
		return "headless"
	default:
		return "unknown"
	}
}
