package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// RendererSystem fronts a backend. GPU failures are logged and the
// offending draw is skipped; the frame goes on.
type RendererSystem struct {
	backend     RendererBackend
	initialized bool
	frameDraws  uint32
}

func NewRendererSystem(backend RendererBackend) *RendererSystem {
	return &RendererSystem{
		backend: backend,
	}
}

func (r *RendererSystem) Initialize(appName string, appWidth, appHeight uint32) error {
	if err := r.backend.Initialize(appName, appWidth, appHeight); err != nil {
		err = fmt.Errorf("func Initialize - failed to initialize renderer backend: %w", err)
		core.LogError(err.Error())
		return err
	}
	r.initialized = true
	return nil
}

func (r *RendererSystem) Shutdown() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return r.backend.Shutdown()
}

func (r *RendererSystem) Backend() RendererBackend {
	return r.backend
}

func (r *RendererSystem) OnResize(width, height uint32) error {
	if err := r.backend.Resized(width, height); err != nil {
		core.LogError("failed to resize renderer to %dx%d: %s", width, height, err.Error())
		return err
	}
	return nil
}

func (r *RendererSystem) BeginFrame(packet *metadata.RenderPacket) error {
	r.frameDraws = 0
	if err := r.backend.BeginFrame(packet.DeltaTime); err != nil {
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (r *RendererSystem) EndFrame(packet *metadata.RenderPacket) error {
	if err := r.backend.EndFrame(packet.DeltaTime); err != nil {
		core.LogError("RendererEndFrame failed. Application shutting down...")
		return err
	}
	return nil
}

// FrameDraws is the number of successful draws since the last BeginFrame.
func (r *RendererSystem) FrameDraws() uint32 {
	return r.frameDraws
}

func (r *RendererSystem) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	if err := r.backend.TextureCreate(pixels, texture); err != nil {
		return fmt.Errorf("failed to upload texture '%s': %w: %w", texture.Name, core.ErrGPUResource, err)
	}
	if !texture.Handle.IsValid() {
		return fmt.Errorf("backend returned an invalid handle for texture '%s': %w", texture.Name, core.ErrGPUResource)
	}
	return nil
}

func (r *RendererSystem) TextureDestroy(texture *metadata.Texture) {
	if texture == nil || !texture.Handle.IsValid() {
		return
	}
	r.backend.TextureDestroy(texture)
	texture.Handle = metadata.InvalidTextureHandle
}

func (r *RendererSystem) TextureWriteData(texture *metadata.Texture, pixels []uint8) error {
	if !texture.Handle.IsValid() {
		return fmt.Errorf("texture '%s' has no backend handle: %w", texture.Name, core.ErrGPUResource)
	}
	if err := r.backend.TextureWriteData(texture, pixels); err != nil {
		return fmt.Errorf("failed to rewrite texture '%s': %w: %w", texture.Name, core.ErrGPUResource, err)
	}
	return nil
}

// Draw binds the command's texture when textured, submits it, and unbinds.
func (r *RendererSystem) Draw(cmd *metadata.DrawCommand) bool {
	if cmd.Textured {
		if err := r.backend.TextureBind(cmd.Texture); err != nil {
			core.LogError("failed to bind texture %d for object %d: %s", cmd.Texture, cmd.ObjectID, err.Error())
			return false
		}
		defer r.backend.TextureUnbind()
	}
	if err := r.backend.Draw(cmd); err != nil {
		core.LogError("failed to draw object %d: %s", cmd.ObjectID, err.Error())
		return false
	}
	r.frameDraws++
	return true
}
