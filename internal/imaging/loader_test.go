package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
)

// writePGM writes a raster as a binary PGM file in a temp dir.
func writePGM(t *testing.T, name string, r *Raster) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := EncodePGM(f, r); err != nil {
		t.Fatalf("failed to encode pgm: %v", err)
	}
	return path
}

func TestLoadRaster_PGM(t *testing.T) {
	src := stripeRaster(40, 30, 12, 3)
	path := writePGM(t, "map.pgm", src)

	r, err := LoadRaster(path)
	if err != nil {
		t.Fatalf("LoadRaster failed: %v", err)
	}
	if r.Width != 40 || r.Height != 30 {
		t.Fatalf("dimensions: got %dx%d, want 40x30", r.Width, r.Height)
	}
	for i := range src.Pix {
		if r.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel %d: got %d, want %d", i, r.Pix[i], src.Pix[i])
		}
	}
}

func TestLoadRaster_ColorPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	img.Set(2, 3, color.RGBA{0, 0, 0, 255})

	path := filepath.Join(t.TempDir(), "map.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	png.Encode(f, img)
	f.Close()

	r, err := LoadRaster(path)
	if err != nil {
		t.Fatalf("LoadRaster failed: %v", err)
	}
	if r.At(0, 0) != 255 || r.At(2, 3) != 0 {
		t.Errorf("grayscale conversion: got %d and %d, want 255 and 0", r.At(0, 0), r.At(2, 3))
	}
}

func TestLoadRaster_Errors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.pgm")
	os.WriteFile(corrupt, []byte("P5\n10 10\n255\nshort"), 0644)

	garbage := filepath.Join(dir, "garbage.pgm")
	os.WriteFile(garbage, []byte("not an image"), 0644)

	wrongExt := filepath.Join(dir, "map.bmp")
	os.WriteFile(wrongExt, []byte("BM"), 0644)

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "missing.pgm"), errs.ErrInputNotFound},
		{"wrong extension", wrongExt, errs.ErrInvalidFormat},
		{"truncated", corrupt, errs.ErrDecodeFailure},
		{"garbage", garbage, errs.ErrDecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRaster(tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRasterCache_Load(t *testing.T) {
	cache := NewRasterCache()
	path := writePGM(t, "map.pgm", uniformRaster(20, 20, 200))

	r1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	r2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if r1 != r2 {
		t.Error("second Load did not return cached raster")
	}

	cache.Evict(path)
	cache.mu.RLock()
	_, exists := cache.rasters[path]
	cache.mu.RUnlock()
	if exists {
		t.Error("Evict did not remove raster from cache")
	}

	cache.Load(path)
	cache.Clear()
	cache.mu.RLock()
	count := len(cache.rasters)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d rasters remain", count)
	}
}

func TestRasterCache_ConcurrentAccess(t *testing.T) {
	cache := NewRasterCache()
	path := writePGM(t, "map.pgm", uniformRaster(30, 30, 128))

	var wg sync.WaitGroup
	errCh := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadMapInfo(t *testing.T) {
	cache := NewRasterCache()
	path := writePGM(t, "office.pgm", uniformRaster(64, 48, 205))

	info, err := LoadMapInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadMapInfo failed: %v", err)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", info.Width, info.Height)
	}
	if info.Format != "pgm" {
		t.Errorf("Format: got %s, want pgm", info.Format)
	}
	if info.FileSizeBytes != int64(64*48+len("P5\n64 48\n255\n")) {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
}
