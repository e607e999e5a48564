package metadata

import "fmt"

// ImageResourceData is a decoded sprite: tightly packed 8-bit pixels, rows top
// to bottom unless the sprite was loaded flipped.
type ImageResourceData struct {
	ChannelCount uint8
	Width        uint32
	Height       uint32
	Pixels       []uint8
}

// ImageResourceParams are handed to the image loader.
type ImageResourceParams struct {
	// FlipY stores the rows bottom to top, as OpenGL samples them.
	FlipY bool
}

// Validate checks the pixel buffer against the declared size before it is
// handed to a backend.
func (d *ImageResourceData) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("image has no area (%dx%d)", d.Width, d.Height)
	}
	if d.ChannelCount == 0 || d.ChannelCount > 4 {
		return fmt.Errorf("image has %d channels, want 1 to 4", d.ChannelCount)
	}
	if want := int(d.Width) * int(d.Height) * int(d.ChannelCount); len(d.Pixels) != want {
		return fmt.Errorf("image holds %d bytes, %dx%dx%d needs %d", len(d.Pixels), d.Width, d.Height, d.ChannelCount, want)
	}
	return nil
}

// Describe fills the size fields of a texture from the image.
func (d *ImageResourceData) Describe(texture *Texture) {
	texture.Width = d.Width
	texture.Height = d.Height
	texture.ChannelCount = d.ChannelCount
}
