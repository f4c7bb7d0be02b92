package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type AssetInfo struct {
	Path    string
	Type    loaders.ResourceType
	Size    int64
	ModTime time.Time
}

// AssetManager resolves asset names against a root directory and hands them
// to the loader registered for their type. The root is made absolute so
// paths derived from loaded assets resolve the same way.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex sync.RWMutex
}

func NewAssetManager(root string) (*AssetManager, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	s, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !s.IsDir() {
		return nil, fmt.Errorf("asset root %s is not a directory: %w", root, core.ErrPrecondition)
	}

	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[loaders.ResourceType]Loader),
	}
	// Register loaders
	am.registerLoader(loaders.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(loaders.ResourceTypeModel, &loaders.ModelLoader{})

	if err := am.Refresh(); err != nil {
		return nil, err
	}
	return am, nil
}

func (am *AssetManager) Root() string {
	return am.root
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// Refresh rebuilds the index of loadable files under the root.
func (am *AssetManager) Refresh() error {
	index := make(map[string]AssetInfo)
	err := filepath.WalkDir(am.root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		assetType := determineAssetType(walkPath)
		if assetType == loaders.ResourceTypeNone {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(am.root, walkPath)
		if err != nil {
			return err
		}
		index[filepath.ToSlash(rel)] = AssetInfo{
			Path:    walkPath,
			Type:    assetType,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	am.mutex.Lock()
	am.assets = index
	am.mutex.Unlock()
	core.LogDebug("indexed %d assets under %s", len(index), am.root)
	return nil
}

// Assets lists the indexed assets of one type, or all of them for
// ResourceTypeNone, sorted by name.
func (am *AssetManager) Assets(assetType loaders.ResourceType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	out := make([]AssetInfo, 0, len(am.assets))
	for _, info := range am.assets {
		if assetType == loaders.ResourceTypeNone || info.Type == assetType {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (am *AssetManager) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	am.mutex.RLock()
	info, ok := am.assets[filepath.ToSlash(name)]
	am.mutex.RUnlock()
	if ok {
		return info.Path
	}
	return filepath.Join(am.root, name)
}

// LoadAsset loads a file by name, relative to the root unless absolute.
func (am *AssetManager) LoadAsset(name string, params interface{}) (*loaders.Resource, error) {
	path := am.resolve(name)
	assetType := determineAssetType(path)

	am.mutex.RLock()
	loader, loaderExists := am.loaders[assetType]
	am.mutex.RUnlock()
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset %s of type %s: %w", name, assetType, core.ErrPrecondition)
	}

	start := time.Now()
	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}
	core.LogInfo("loaded %s %s (%d bytes) in %s", assetType, name, res.DataSize, time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (am *AssetManager) LoadImage(name string, params metadata.ImageResourceParams) (*metadata.ImageResourceData, error) {
	if determineAssetType(name) != loaders.ResourceTypeImage {
		return nil, fmt.Errorf("%s is not an image: %w", name, core.ErrPrecondition)
	}
	res, err := am.LoadAsset(name, params)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.ImageResourceData), nil
}

func (am *AssetManager) LoadModel(name string) (*loaders.Model, error) {
	if determineAssetType(name) != loaders.ResourceTypeModel {
		return nil, fmt.Errorf("%s is not a model: %w", name, core.ErrPrecondition)
	}
	res, err := am.LoadAsset(name, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*loaders.Model), nil
}

func determineAssetType(path string) loaders.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return loaders.ResourceTypeImage
	case ".obj":
		return loaders.ResourceTypeModel
	default:
		return loaders.ResourceTypeNone
	}
}
