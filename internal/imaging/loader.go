package imaging

import (
	"fmt"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

// RasterExtensions lists the file extensions LoadRaster accepts.
var RasterExtensions = []string{".pgm", ".png", ".jpg", ".jpeg"}

// RasterCache provides thread-safe caching of loaded rasters to avoid
// redundant disk reads and decodes.
//
// Rasters are keyed by the exact path string. Cached rasters are shared, so
// callers must treat them as read-only; every pipeline stage already does.
type RasterCache struct {
	mu      sync.RWMutex
	rasters map[string]*Raster
}

// NewRasterCache creates and initializes a new empty raster cache.
func NewRasterCache() *RasterCache {
	return &RasterCache{
		rasters: make(map[string]*Raster),
	}
}

// Load retrieves a raster from the cache or loads it from disk if not cached.
func (c *RasterCache) Load(path string) (*Raster, error) {
	c.mu.RLock()
	if r, ok := c.rasters[path]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := LoadRaster(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[path] = r
	c.mu.Unlock()

	return r, nil
}

// Clear removes all rasters from the cache.
func (c *RasterCache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[string]*Raster)
	c.mu.Unlock()
}

// Evict removes a specific raster from the cache by its path.
func (c *RasterCache) Evict(path string) {
	c.mu.Lock()
	delete(c.rasters, path)
	c.mu.Unlock()
}

// ValidateFilePath checks that path exists and carries one of the given
// extensions (compared case-insensitively).
//
// # Errors
//
//   - errs.ErrInputNotFound if the file does not exist
//   - errs.ErrInvalidFormat if the extension is not in validExtensions
func ValidateFilePath(path string, validExtensions []string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s: %w", path, errs.ErrInputNotFound)
		}
		return errs.Wrap(errs.ErrInputNotFound, err, "cannot stat %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range validExtensions {
		if ext == v {
			return nil
		}
	}
	return fmt.Errorf("invalid file format for %s, expected one of %v: %w", path, validExtensions, errs.ErrInvalidFormat)
}

// LoadRaster reads an image file from disk as a grayscale raster.
//
// # Errors
//
//   - errs.ErrInputNotFound if the file does not exist
//   - errs.ErrInvalidFormat if the extension is not in RasterExtensions
//   - errs.ErrDecodeFailure if the bytes cannot be decoded
func LoadRaster(path string) (*Raster, error) {
	if err := ValidateFilePath(path, RasterExtensions); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrDecodeFailure, err, "failed to load image %s", path)
	}

	r := FromImage(img)
	if r.Empty() {
		return nil, fmt.Errorf("image %s has no pixels: %w", path, errs.ErrDecodeFailure)
	}
	return r, nil
}

// MapInfo contains metadata about a map raster file.
type MapInfo struct {
	// Width is the raster width in pixels.
	Width int `json:"width"`

	// Height is the raster height in pixels.
	Height int `json:"height"`

	// Format is the format derived from the extension: "pgm", "png", "jpeg".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadMapInfo loads a raster through the cache and describes it.
func LoadMapInfo(cache *RasterCache, path string) (*MapInfo, error) {
	r, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInputNotFound, err, "failed to stat file")
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "jpg" {
		format = "jpeg"
	}

	return &MapInfo{
		Width:         r.Width,
		Height:        r.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
