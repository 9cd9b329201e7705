package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 10, B: 20, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 0, G: 128, B: 255, A: 255})
	return img
}

func TestEncodeFrame(t *testing.T) {
	decoders := map[Format]func(io.Reader) (image.Image, error){
		PNG:  png.Decode,
		BMP:  bmp.Decode,
		TIFF: tiff.Decode,
	}

	frame := testFrame()
	for format, decode := range decoders {
		var buf bytes.Buffer
		if err := EncodeFrame(&buf, frame, format); err != nil {
			t.Fatalf("[%s] encode failed: %v", format, err)
		}

		img, err := decode(&buf)
		if err != nil {
			t.Fatalf("[%s] decode failed: %v", format, err)
		}
		for x := 0; x < 2; x++ {
			expR, expG, expB, _ := frame.At(x, 0).RGBA()
			r, g, b, _ := img.At(x, 0).RGBA()
			if r != expR || g != expG || b != expB {
				t.Fatalf("[%s] expected pixel %d to be (%d, %d, %d); got (%d, %d, %d)", format, x, expR, expG, expB, r, g, b)
			}
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	specs := map[string]Format{
		"frame.png":  PNG,
		"FRAME.BMP":  BMP,
		"out/f.tif":  TIFF,
		"out/f.tiff": TIFF,
	}
	for path, exp := range specs {
		got, err := FormatFromPath(path)
		if err != nil {
			t.Fatalf("[%s] unexpected error: %v", path, err)
		}
		if got != exp {
			t.Fatalf("[%s] expected format %s; got %s", path, exp, got)
		}
	}

	if _, err := FormatFromPath("frame.jpg"); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestSaveFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.bmp")
	if err := SaveFrame(path, testFrame()); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err = bmp.Decode(f); err != nil {
		t.Fatalf("expected saved frame to be a valid bmp; got %v", err)
	}
}
