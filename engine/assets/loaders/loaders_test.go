package loaders

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{R: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{B: 255, A: 255})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImageLoader(t *testing.T) {
	path := writePNG(t, t.TempDir(), "tile.png")

	tests := []struct {
		name     string
		flip     bool
		firstRed uint8
	}{
		{"upright", false, 255},
		{"flipped", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			il := &ImageLoader{}
			res, err := il.Load(path, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: tt.flip})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			data := res.Data.(*metadata.ImageResourceData)
			if data.Width != 2 || data.Height != 2 || data.ChannelCount != 4 {
				t.Fatalf("unexpected dimensions %dx%dx%d", data.Width, data.Height, data.ChannelCount)
			}
			if len(data.Pixels) != 16 {
				t.Fatalf("len(Pixels) = %d, want 16", len(data.Pixels))
			}
			if data.Pixels[0] != tt.firstRed {
				t.Errorf("first pixel red = %d, want %d", data.Pixels[0], tt.firstRed)
			}
		})
	}
}

func TestImageLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	il := &ImageLoader{}
	for _, path := range []string{filepath.Join(dir, "missing.png"), garbage} {
		if _, err := il.Load(path, metadata.ResourceTypeImage, nil); err == nil {
			t.Errorf("expected an error loading %s", path)
		}
	}
}

func TestParseAnimationManifest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name: "valid",
			input: `
animations:
  walk:
    sprites: [walk_0, walk_1]
    fps: 8
    loop: true
`,
		},
		{name: "empty", input: ``},
		{
			name: "no sprites",
			input: `
animations:
  walk:
    fps: 8
`,
			wantErr: true,
		},
		{
			name: "zero fps",
			input: `
animations:
  walk:
    sprites: [walk_0]
`,
			wantErr: true,
		},
		{name: "malformed", input: `animations: [`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseAnimationManifest([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if walk, ok := m.Animations["walk"]; ok {
				if walk.Speed != 1 {
					t.Errorf("Speed = %v, want default 1", walk.Speed)
				}
				if !walk.Loop || len(walk.Sprites) != 2 {
					t.Errorf("unexpected def %+v", walk)
				}
			}
		})
	}
}
