// Package screenshot writes captured frames to disk.
package screenshot

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// Supported formats.
const (
	FormatPNG = "png"
	FormatBMP = "bmp"
)

// DefaultPrefix starts every file name when Writer.Prefix is empty.
const DefaultPrefix = "shot"

// Writer names and encodes screenshots.
type Writer struct {
	Dir    string
	Format string // png or bmp; empty means png
	Prefix string
}

// New creates a Writer, rejecting unknown formats.
func New(dir, format string) (*Writer, error) {
	w := &Writer{Dir: dir, Format: strings.ToLower(format)}
	if _, err := w.encoder(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) format() string {
	if w.Format == "" {
		return FormatPNG
	}
	return w.Format
}

func (w *Writer) encoder() (func(*bufio.Writer, image.Image) error, error) {
	switch w.format() {
	case FormatPNG:
		return func(out *bufio.Writer, img image.Image) error { return png.Encode(out, img) }, nil
	case FormatBMP:
		return func(out *bufio.Writer, img image.Image) error { return bmp.Encode(out, img) }, nil
	default:
		return nil, fmt.Errorf("unsupported screenshot format: %s", w.Format)
	}
}

// FileName returns the base name for a capture of frame with suffix, for
// example "shot_000042_title.png". An empty suffix is left out.
func (w *Writer) FileName(suffix string, frame int) string {
	prefix := w.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	name := fmt.Sprintf("%s_%06d", prefix, frame)
	if suffix != "" {
		name += "_" + sanitize(suffix)
	}
	return name + "." + w.format()
}

// sanitize keeps a suffix inside one path element.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}

// Write encodes img into Dir and returns the file path.
func (w *Writer) Write(img image.Image, suffix string, frame int) (string, error) {
	encode, err := w.encoder()
	if err != nil {
		return "", err
	}
	if img == nil {
		return "", fmt.Errorf("screenshot %q: no image", suffix)
	}
	if w.Dir != "" {
		if err := os.MkdirAll(w.Dir, 0o755); err != nil {
			return "", fmt.Errorf("cannot create screenshot directory: %w", err)
		}
	}

	path := filepath.Join(w.Dir, w.FileName(suffix, frame))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("cannot create %s: %w", path, err)
	}
	out := bufio.NewWriter(f)
	if err := encode(out, img); err != nil {
		f.Close()
		return "", fmt.Errorf("cannot encode %s: %w", path, err)
	}
	if err := out.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("cannot close %s: %w", path, err)
	}
	return path, nil
}

// FromRGBA wraps raw RGBA pixels of a width x height frame as an image.
// pix is used without copying.
func FromRGBA(pix []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pix) != 4*width*height {
		return nil, fmt.Errorf("pixel buffer of %d bytes does not match %dx%d", len(pix), width, height)
	}
	return &image.RGBA{Pix: pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}, nil
}
