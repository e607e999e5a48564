package loaders

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type ImageLoader struct{}

// decodeImage returns tightly packed, non-premultiplied RGBA rows.
func decodeImage(path string, flipY bool) ([]uint8, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode '%s': %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	width, height := rgba.Rect.Dx(), rgba.Rect.Dy()
	pixels := rgba.Pix
	if rgba.Stride != width*4 {
		pixels = make([]uint8, 0, width*height*4)
		for y := 0; y < height; y++ {
			pixels = append(pixels, rgba.Pix[y*rgba.Stride:y*rgba.Stride+width*4]...)
		}
	}
	if flipY {
		flipRows(pixels, width*4, height)
	}
	return pixels, width, height, nil
}

func flipRows(pixels []uint8, rowSize, height int) {
	tmp := make([]uint8, rowSize)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pixels[top*rowSize : (top+1)*rowSize]
		b := pixels[bottom*rowSize : (bottom+1)*rowSize]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	flipY := false
	if typedParams, ok := params.(*metadata.ImageResourceParams); ok && typedParams != nil {
		flipY = typedParams.FlipY
	}

	pixels, width, height, err := decodeImage(path, flipY)
	if err != nil {
		return nil, err
	}

	return &metadata.Resource{
		Name:     "image",
		FullPath: path,
		DataSize: uint64(len(pixels)),
		Data: &metadata.ImageResourceData{
			ChannelCount: 4,
			Width:        uint32(width),
			Height:       uint32(height),
			Pixels:       pixels,
		},
	}, nil
}

func (il *ImageLoader) Unload(resource *metadata.Resource) error {
	if resource == nil {
		return nil
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
