package systems

import (
	"testing"

	"github.com/spaghettifunk/anima2d/engine/renderer/components"
)

func TestCameraSystemAcquireRelease(t *testing.T) {
	cs, err := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 1, ViewportWidth: 640, ViewportHeight: 480})
	if err != nil {
		t.Fatalf("NewCameraSystem: %v", err)
	}

	def, err := cs.Acquire(components.DEFAULT_CAMERA_NAME)
	if err != nil || def != cs.GetDefault() {
		t.Fatalf("default camera: %v", err)
	}

	a, err := cs.Acquire("minimap")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	b, _ := cs.Acquire("minimap")
	if a != b {
		t.Error("same name returned different cameras")
	}
	if _, err := cs.Acquire("other"); err == nil {
		t.Error("acquired past MaxCameraCount")
	}

	cs.OnResize(800, 600)
	for _, c := range []*components.Camera{def, a} {
		if w, h := c.Size(); w != 800 || h != 600 {
			t.Errorf("camera size = %vx%v after resize", w, h)
		}
	}

	cs.Release("minimap")
	if _, ok := cs.Lookup["minimap"]; !ok {
		t.Fatal("camera dropped while still referenced")
	}
	cs.Release("minimap")
	if _, ok := cs.Lookup["minimap"]; ok {
		t.Error("camera kept after the last release")
	}
	// releasing the default camera is a no-op
	cs.Release(components.DEFAULT_CAMERA_NAME)
	if cs.GetDefault() != def {
		t.Error("default camera replaced")
	}
}

func TestNewCameraSystemRejectsZeroCapacity(t *testing.T) {
	if _, err := NewCameraSystem(&CameraSystemConfig{}); err == nil {
		t.Fatal("accepted MaxCameraCount = 0")
	}
}
