package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// An output image format for rendered frames.
type Format uint8

const (
	PNG Format = iota
	BMP
	TIFF
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// Select an output format based on the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	}
	return PNG, fmt.Errorf("renderer: unsupported frame format for %q", path)
}

// Encode a frame using the given format.
func EncodeFrame(w io.Writer, frame image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, frame)
	case BMP:
		return bmp.Encode(w, frame)
	case TIFF:
		return tiff.Encode(w, frame, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return fmt.Errorf("renderer: unsupported frame format %s", format)
}

// Write a frame to a file whose extension selects the image format.
func SaveFrame(path string, frame image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = EncodeFrame(f, frame, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
