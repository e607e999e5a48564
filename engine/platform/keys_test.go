package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/anima2d/engine/core"
)

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want core.KeyCode
		ok   bool
	}{
		{glfw.KeyA, core.KEY_A, true},
		{glfw.KeyZ, core.KEY_Z, true},
		{glfw.KeySpace, core.KEY_SPACE, true},
		{glfw.KeyEscape, core.KEY_ESCAPE, true},
		{glfw.KeyLeft, core.KEY_LEFT, true},
		{glfw.KeyRight, core.KEY_RIGHT, true},
		{glfw.KeyF3, core.KEY_F3, true},
		{glfw.KeyF12, core.KEY_F12, true},
		{glfw.KeyKP5, core.KEY_NUMPAD5, true},
		{glfw.KeyMenu, 0, false},
		{glfw.KeyUnknown, 0, false},
	}
	for _, tt := range tests {
		got, ok := translateKey(tt.key)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("translateKey(%d) = %#x, %v; want %#x, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}
