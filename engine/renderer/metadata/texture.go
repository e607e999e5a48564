package metadata

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
)

// TextureHandle is the opaque GPU-side name of a texture. Zero is never a
// valid handle.
type TextureHandle uint32

const InvalidTextureHandle TextureHandle = 0

func (h TextureHandle) IsValid() bool {
	return h != InvalidTextureHandle
}

/**
 * @brief Represents a texture.
 */
type Texture struct {
	/** @brief The texture Name (sprite name it was loaded from). */
	Name string
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Whether the image was flipped vertically on upload. */
	FlippedY bool
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief Backend handle. */
	Handle TextureHandle
}

type TextureReference struct {
	ReferenceCount uint64
	Texture        *Texture
}
