package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima2d/engine/core"
)

type WindowConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting position x axis.
	StartPosX uint32 `toml:"x"`
	// Window starting position y axis.
	StartPosY uint32 `toml:"y"`
	// Window starting width.
	StartWidth uint32 `toml:"width"`
	// Window starting height.
	StartHeight uint32 `toml:"height"`
	VSync       bool   `toml:"vsync"`
}

type AssetsConfig struct {
	// Directory scanned for sprites, relative to the working directory.
	ImagesDir string `toml:"images_dir"`
	// Optional YAML file with named animation definitions.
	AnimationManifest string `toml:"animations"`
	// Sprite bound to objects registered without a usable animation.
	PlaceholderSprite string `toml:"placeholder"`
	HotReload         bool   `toml:"hot_reload"`
	MaxTextureCount   uint32 `toml:"max_textures"`
}

type PhysicsConfig struct {
	Gravity float32 `toml:"gravity"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DebugConfig struct {
	ShowHitboxes bool `toml:"show_hitboxes"`
	ShowStats    bool `toml:"show_stats"`
}

type ApplicationConfig struct {
	Window WindowConfig `toml:"window"`
	// Frames per second the loop is capped to when vsync is off. Zero disables the cap.
	FPSCap  uint32        `toml:"fps_cap"`
	Assets  AssetsConfig  `toml:"assets"`
	Physics PhysicsConfig `toml:"physics"`
	Log     LogConfig     `toml:"log"`
	Debug   DebugConfig   `toml:"debug"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Name:        "Anima 2D",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
			VSync:       true,
		},
		FPSCap: 60,
		Assets: AssetsConfig{
			ImagesDir:         "assets/images",
			AnimationManifest: "assets/animations.yaml",
			PlaceholderSprite: "placeholder",
			MaxTextureCount:   1024,
		},
		Physics: PhysicsConfig{
			Gravity: 0.001,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults. Keys missing
// from the file keep their default value.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("func LoadApplicationConfig - %w", err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("func LoadApplicationConfig - %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("func LoadApplicationConfig - %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Window.StartWidth == 0 || c.Window.StartHeight == 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.StartWidth, c.Window.StartHeight)
	}
	if c.Assets.ImagesDir == "" {
		return errors.New("assets.images_dir must be set")
	}
	if c.Assets.MaxTextureCount == 0 {
		return errors.New("assets.max_textures must be greater than zero")
	}
	return nil
}

func (c *ApplicationConfig) LogLevel() core.LogLevel {
	return core.ParseLogLevel(c.Log.Level)
}

// FrameBudgetMs is the target duration of one frame, or zero when the loop
// should not sleep.
func (c *ApplicationConfig) FrameBudgetMs() float64 {
	if c.Window.VSync || c.FPSCap == 0 {
		return 0
	}
	return 1000.0 / float64(c.FPSCap)
}
