package metadata

import "testing"

func TestImageResourceDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    ImageResourceData
		wantErr bool
	}{
		{"rgba", ImageResourceData{ChannelCount: 4, Width: 2, Height: 2, Pixels: make([]uint8, 16)}, false},
		{"grey", ImageResourceData{ChannelCount: 1, Width: 3, Height: 1, Pixels: make([]uint8, 3)}, false},
		{"short buffer", ImageResourceData{ChannelCount: 4, Width: 2, Height: 2, Pixels: make([]uint8, 15)}, true},
		{"no area", ImageResourceData{ChannelCount: 4, Width: 0, Height: 2}, true},
		{"too many channels", ImageResourceData{ChannelCount: 5, Width: 1, Height: 1, Pixels: make([]uint8, 5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.data.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestImageResourceDataDescribe(t *testing.T) {
	data := &ImageResourceData{ChannelCount: 4, Width: 8, Height: 3}
	tex := &Texture{Name: "hero"}
	data.Describe(tex)
	if tex.Width != 8 || tex.Height != 3 || tex.ChannelCount != 4 || tex.Name != "hero" {
		t.Errorf("texture = %+v", tex)
	}
}
