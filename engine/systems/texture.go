package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// SpriteSource decodes sprites by registry name.
type SpriteSource interface {
	LoadImage(name string, flipY bool) (*metadata.Resource, error)
	UnloadAsset(resource *metadata.Resource) error
	DrainChanged() []string
}

// TextureUploader owns the GPU side of a texture.
type TextureUploader interface {
	TextureCreate(pixels []uint8, texture *metadata.Texture) error
	TextureWriteData(texture *metadata.Texture, pixels []uint8) error
	TextureDestroy(texture *metadata.Texture)
}

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

// TextureSystem uploads each sprite once and hands out reference-counted
// handles to it.
type TextureSystem struct {
	Config         *TextureSystemConfig
	DefaultTexture *metadata.Texture

	mutex sync.Mutex
	// registry key -> reference
	registered map[string]*metadata.TextureReference
	byHandle   map[metadata.TextureHandle]string

	sprites  SpriteSource
	uploader TextureUploader
}

func NewTextureSystem(config *TextureSystemConfig, sprites SpriteSource, uploader TextureUploader) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:     config,
		registered: make(map[string]*metadata.TextureReference),
		byHandle:   make(map[metadata.TextureHandle]string),
		sprites:    sprites,
		uploader:   uploader,
	}, nil
}

// Initialize uploads the built-in checkerboard used when nothing else is
// available.
func (ts *TextureSystem) Initialize() error {
	const dim = 16
	pixels := make([]uint8, dim*dim*4)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			i := (row*dim + col) * 4
			pixels[i+3] = 255
			if (row/4+col/4)%2 == 0 {
				// magenta
				pixels[i] = 255
				pixels[i+2] = 255
			}
		}
	}
	ts.DefaultTexture = &metadata.Texture{
		Name:         metadata.DEFAULT_TEXTURE_NAME,
		Width:        dim,
		Height:       dim,
		ChannelCount: 4,
	}
	if err := ts.uploader.TextureCreate(pixels, ts.DefaultTexture); err != nil {
		err = fmt.Errorf("func Initialize - failed to create default texture: %w", err)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	for key, ref := range ts.registered {
		ts.uploader.TextureDestroy(ref.Texture)
		delete(ts.registered, key)
	}
	ts.byHandle = make(map[metadata.TextureHandle]string)
	if ts.DefaultTexture != nil {
		ts.uploader.TextureDestroy(ts.DefaultTexture)
		ts.DefaultTexture = nil
	}
	return nil
}

func (ts *TextureSystem) GetDefaultTexture() *metadata.Texture {
	return ts.DefaultTexture
}

func textureKey(name string, flipY bool) string {
	if flipY {
		return name + "#flipped"
	}
	return name
}

// Acquire returns the texture for a sprite, uploading it on first use.
func (ts *TextureSystem) Acquire(name string, flipY bool) (*metadata.Texture, error) {
	if name == metadata.DEFAULT_TEXTURE_NAME {
		return ts.DefaultTexture, nil
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	key := textureKey(name, flipY)
	if ref, ok := ts.registered[key]; ok {
		ref.ReferenceCount++
		return ref.Texture, nil
	}

	if uint32(len(ts.registered)) >= ts.Config.MaxTextureCount {
		return nil, fmt.Errorf("texture system cannot hold more than %d textures, '%s' not loaded: %w", ts.Config.MaxTextureCount, name, core.ErrGPUResource)
	}

	resource, err := ts.sprites.LoadImage(name, flipY)
	if err != nil {
		return nil, err
	}
	defer ts.sprites.UnloadAsset(resource)

	data, ok := resource.Data.(*metadata.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("sprite '%s' did not decode to image data", name)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("sprite '%s': %w", name, err)
	}
	texture := &metadata.Texture{Name: name, FlippedY: flipY}
	data.Describe(texture)
	if err := ts.uploader.TextureCreate(data.Pixels, texture); err != nil {
		return nil, err
	}

	ts.registered[key] = &metadata.TextureReference{
		ReferenceCount: 1,
		Texture:        texture,
	}
	ts.byHandle[texture.Handle] = key
	core.LogDebug("texture '%s' loaded with handle %d", key, texture.Handle)
	return texture, nil
}

// Release drops one reference to the texture behind handle and destroys it
// when none are left. The default texture and unknown handles are ignored.
func (ts *TextureSystem) Release(handle metadata.TextureHandle) {
	if !handle.IsValid() || (ts.DefaultTexture != nil && handle == ts.DefaultTexture.Handle) {
		return
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	key, ok := ts.byHandle[handle]
	if !ok {
		core.LogWarn("tried to release unknown texture handle %d", handle)
		return
	}
	ref := ts.registered[key]
	ref.ReferenceCount--
	if ref.ReferenceCount == 0 {
		ts.uploader.TextureDestroy(ref.Texture)
		delete(ts.registered, key)
		delete(ts.byHandle, handle)
		core.LogDebug("texture '%s' unloaded, no references left", key)
	}
}

// Get returns the live texture for handle, or nil.
func (ts *TextureSystem) Get(handle metadata.TextureHandle) *metadata.Texture {
	if ts.DefaultTexture != nil && handle == ts.DefaultTexture.Handle {
		return ts.DefaultTexture
	}
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if key, ok := ts.byHandle[handle]; ok {
		return ts.registered[key].Texture
	}
	return nil
}

func (ts *TextureSystem) ReferenceCount(name string, flipY bool) uint64 {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if ref, ok := ts.registered[textureKey(name, flipY)]; ok {
		return ref.ReferenceCount
	}
	return 0
}

func (ts *TextureSystem) Count() int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	return len(ts.registered)
}

// ReloadChanged re-uploads sprites rewritten on disk. Handles stay the same,
// so bound animations pick up the new pixels on their next draw.
func (ts *TextureSystem) ReloadChanged() int {
	reloaded := 0
	for _, name := range ts.sprites.DrainChanged() {
		for _, flipY := range []bool{false, true} {
			ts.mutex.Lock()
			ref, ok := ts.registered[textureKey(name, flipY)]
			ts.mutex.Unlock()
			if !ok {
				continue
			}
			if err := ts.reload(ref.Texture, flipY); err != nil {
				core.LogWarn("failed to reload texture '%s': %s", name, err.Error())
				continue
			}
			reloaded++
		}
	}
	return reloaded
}

func (ts *TextureSystem) reload(texture *metadata.Texture, flipY bool) error {
	resource, err := ts.sprites.LoadImage(texture.Name, flipY)
	if err != nil {
		return err
	}
	defer ts.sprites.UnloadAsset(resource)

	data, ok := resource.Data.(*metadata.ImageResourceData)
	if !ok {
		return fmt.Errorf("sprite '%s' did not decode to image data", texture.Name)
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("sprite '%s': %w", texture.Name, err)
	}
	data.Describe(texture)
	return ts.uploader.TextureWriteData(texture, data.Pixels)
}
