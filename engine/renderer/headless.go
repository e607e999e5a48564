package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// HeadlessBackend keeps textures in memory and records every draw command.
// It backs the -headless run mode and the tests.
type HeadlessBackend struct {
	mu         sync.Mutex
	nextHandle metadata.TextureHandle
	textures   map[metadata.TextureHandle][]uint8
	bound      metadata.TextureHandle
	draws      []metadata.DrawCommand
	frames     uint64
	width      uint32
	height     uint32
	// FailUploads makes every TextureCreate fail.
	FailUploads bool
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{
		textures: make(map[metadata.TextureHandle][]uint8),
	}
}

func (h *HeadlessBackend) Initialize(appName string, appWidth, appHeight uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = appWidth, appHeight
	return nil
}

func (h *HeadlessBackend) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.textures = make(map[metadata.TextureHandle][]uint8)
	h.draws = nil
	return nil
}

func (h *HeadlessBackend) Resized(width, height uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
	return nil
}

func (h *HeadlessBackend) Size() (uint32, uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *HeadlessBackend) BeginFrame(deltaTime float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draws = h.draws[:0]
	return nil
}

func (h *HeadlessBackend) EndFrame(deltaTime float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
	return nil
}

func (h *HeadlessBackend) TextureCreate(pixels []uint8, texture *metadata.Texture) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailUploads {
		return fmt.Errorf("upload of '%s' rejected", texture.Name)
	}
	expected := int(texture.Width) * int(texture.Height) * int(texture.ChannelCount)
	if len(pixels) != expected {
		return fmt.Errorf("texture '%s' has %d bytes, expected %d", texture.Name, len(pixels), expected)
	}
	h.nextHandle++
	h.textures[h.nextHandle] = pixels
	texture.Handle = h.nextHandle
	texture.Generation++
	return nil
}

func (h *HeadlessBackend) TextureDestroy(texture *metadata.Texture) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.textures, texture.Handle)
}

func (h *HeadlessBackend) TextureWriteData(texture *metadata.Texture, pixels []uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.textures[texture.Handle]; !ok {
		return fmt.Errorf("texture handle %d is not alive", texture.Handle)
	}
	h.textures[texture.Handle] = pixels
	texture.Generation++
	return nil
}

func (h *HeadlessBackend) TextureBind(handle metadata.TextureHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.textures[handle]; !ok {
		return fmt.Errorf("texture handle %d is not alive", handle)
	}
	h.bound = handle
	return nil
}

func (h *HeadlessBackend) TextureUnbind() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bound = metadata.InvalidTextureHandle
}

func (h *HeadlessBackend) Draw(cmd *metadata.DrawCommand) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cmd.Textured && h.bound != cmd.Texture {
		return fmt.Errorf("texture %d is not bound", cmd.Texture)
	}
	h.draws = append(h.draws, *cmd)
	return nil
}

// Draws returns a copy of the commands recorded since the last BeginFrame.
func (h *HeadlessBackend) Draws() []metadata.DrawCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]metadata.DrawCommand, len(h.draws))
	copy(out, h.draws)
	return out
}

func (h *HeadlessBackend) LiveTextures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.textures)
}

func (h *HeadlessBackend) Bound() metadata.TextureHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bound
}

func (h *HeadlessBackend) Frames() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}
