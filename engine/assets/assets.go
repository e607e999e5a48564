package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type AssetInfo struct {
	Name       string
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes every sprite under the images directory by its file
// name without extension, and keeps that index current while hot reload is on.
type AssetManager struct {
	sprites map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	// sprite names rewritten on disk since the last DrainChanged
	changed map[string]struct{}

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		sprites: make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		changed: make(map[string]struct{}),
	}
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeAnimationManifest, &loaders.AnimationLoader{})
	return am
}

// Initialize scans imagesDir and, when hotReload is set, starts watching it.
func (am *AssetManager) Initialize(imagesDir string, hotReload bool) error {
	info, err := os.Stat(imagesDir)
	if err != nil {
		return fmt.Errorf("func Initialize - images directory '%s': %w", imagesDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("func Initialize - '%s' is not a directory", imagesDir)
	}

	if err := am.scan(imagesDir); err != nil {
		return err
	}
	core.LogInfo("indexed %d sprites under '%s'", am.Count(), NormalizePath(imagesDir))

	if !hotReload {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = watcher
	am.done = make(chan struct{})
	am.stopped = make(chan struct{})
	if err := am.watchRecursive(imagesDir); err != nil {
		watcher.Close()
		am.fsnotify = nil
		return err
	}
	go am.start()
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed || am.fsnotify == nil {
		am.isClosed = true
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// NormalizePath cleans a path and uses forward slashes on every platform.
func NormalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// SpriteName is the registry key of a file: its base name without extension.
func SpriteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (am *AssetManager) GetSpritePath(name string) (string, error) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.sprites[name]
	if !ok {
		return "", fmt.Errorf("sprite '%s': %w", name, core.ErrAssetNotFound)
	}
	return info.Path, nil
}

// GetAllFilePaths returns every indexed sprite path, sorted.
func (am *AssetManager) GetAllFilePaths() []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	paths := make([]string, 0, len(am.sprites))
	for _, info := range am.sprites {
		paths = append(paths, info.Path)
	}
	sort.Strings(paths)
	return paths
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.sprites)
}

// LoadImage decodes the sprite registered under name.
func (am *AssetManager) LoadImage(name string, flipY bool) (*metadata.Resource, error) {
	path, err := am.GetSpritePath(name)
	if err != nil {
		return nil, err
	}
	res, err := am.loaders[metadata.ResourceTypeImage].Load(path, metadata.ResourceTypeImage, &metadata.ImageResourceParams{FlipY: flipY})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("sprite '%s' at '%s': %w", name, path, core.ErrAssetNotFound)
		}
		return nil, err
	}
	res.Name = name

	am.mutex.Lock()
	if info, ok := am.sprites[name]; ok {
		info.LastLoaded = time.Now()
		am.sprites[name] = info
	}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) LoadAnimationManifest(path string) (*loaders.AnimationManifest, error) {
	res, err := am.loaders[metadata.ResourceTypeAnimationManifest].Load(path, metadata.ResourceTypeAnimationManifest, nil)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", core.ErrAssetNotFound, err)
		}
		return nil, err
	}
	return res.Data.(*loaders.AnimationManifest), nil
}

func (am *AssetManager) UnloadAsset(resource *metadata.Resource) error {
	if resource == nil {
		return nil
	}
	switch resource.Data.(type) {
	case *metadata.ImageResourceData:
		return am.loaders[metadata.ResourceTypeImage].Unload(resource)
	case *loaders.AnimationManifest:
		return am.loaders[metadata.ResourceTypeAnimationManifest].Unload(resource)
	default:
		return nil
	}
}

// DrainChanged returns the sprites rewritten on disk since the last call.
func (am *AssetManager) DrainChanged() []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if len(am.changed) == 0 {
		return nil
	}
	names := make([]string, 0, len(am.changed))
	for name := range am.changed {
		names = append(names, name)
	}
	am.changed = make(map[string]struct{})
	sort.Strings(names)
	return names
}

func (am *AssetManager) scan(root string) error {
	return filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			am.handleFileEvent(walkPath, false)
		}
		return nil
	})
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err.Error())
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			// a removed path may have been a directory; the watcher drops it either way
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds root and every directory below it to the watch list,
// indexing files found along the way.
func (am *AssetManager) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath, false)
		return nil
	})
}

func (am *AssetManager) handleFileEvent(path string, fromWatcher bool) {
	assetType := determineAssetType(path)
	if assetType != metadata.ResourceTypeImage {
		return
	}
	name := SpriteName(path)
	normalized := NormalizePath(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()

	if existing, ok := am.sprites[name]; ok {
		if existing.Path != normalized {
			core.LogWarn("sprite '%s' already maps to '%s', ignoring '%s'", name, existing.Path, normalized)
			return
		}
		if fromWatcher {
			am.changed[name] = struct{}{}
		}
		return
	}
	am.sprites[name] = AssetInfo{
		Name: name,
		Path: normalized,
		Type: assetType,
	}
}

func (am *AssetManager) removeAsset(path string) {
	name := SpriteName(path)
	normalized := NormalizePath(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if existing, ok := am.sprites[name]; ok && existing.Path == normalized {
		delete(am.sprites, name)
		delete(am.changed, name)
	}
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".yaml", ".yml":
		return metadata.ResourceTypeAnimationManifest
	case ".toml":
		return metadata.ResourceTypeConfig
	default:
		return metadata.ResourceTypeNone
	}
}
