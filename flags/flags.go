// Package flags preloads country flag icons for the bar chart.
package flags

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // flag files are PNG
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Cache maps ISO3 codes to size-normalized flag images. It is built
// once and only read afterwards.
type Cache map[string]image.Image

// Get returns the flag for code, if one was loaded.
func (c Cache) Get(code string) (image.Image, bool) {
	img, ok := c[code]
	return img, ok
}

// Loader reads flag files named <ISO3>.png from Dir.
type Loader struct {
	Dir string
	// Box is the bounding box flags are shrunk to fit.
	Box image.Point
	Log *slog.Logger
}

// Path returns the file a code's flag is read from.
func (l Loader) Path(code string) string {
	return filepath.Join(l.Dir, code+".png")
}

// Load reads the flag for every code. A flag that cannot be read is
// logged and left out of the cache.
func (l Loader) Load(codes []string) Cache {
	log := l.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	cache := make(Cache, len(codes))
	for _, code := range codes {
		img, err := l.LoadOne(code)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("flag not found", "country", code, "path", l.Path(code))
		case err != nil:
			log.Warn("could not load flag", "country", code, "error", err)
		default:
			cache[code] = img
		}
	}
	log.Debug("flags loaded", "requested", len(codes), "loaded", len(cache))
	return cache
}

// LoadOne reads and shrinks a single flag.
func (l Loader) LoadOne(code string) (image.Image, error) {
	f, err := os.Open(l.Path(code))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.Path(code), err)
	}
	return Thumbnail(img, l.Box), nil
}

// Thumbnail scales img down to fit within box, keeping its aspect ratio.
// Images that already fit are returned unchanged.
func Thumbnail(img image.Image, box image.Point) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if box.X <= 0 || box.Y <= 0 || (w <= box.X && h <= box.Y) {
		return img
	}

	scale := min(float64(box.X)/float64(w), float64(box.Y)/float64(h))
	tw := max(1, int(float64(w)*scale+0.5))
	th := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
