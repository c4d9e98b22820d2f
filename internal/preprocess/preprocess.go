// Package preprocess prepares receipt photos for OCR: it decodes the upload,
// normalizes its size, and reduces it to black text on a white background using
// a global Otsu threshold.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	minWidth  = 800
	maxWidth  = 1200
	maxHeight = 2400
)

// luminosity weights for RGB -> gray
const (
	redWeight   = 0.299
	greenWeight = 0.587
	blueWeight  = 0.114
)

// TargetSize returns the canvas size OCR runs on. The clamps are applied in a
// fixed order (minimum width, maximum width, then maximum height), so a very wide
// and short image can still end up wider than maxWidth after the height clamp.
func TargetSize(width, height int) (int, int) {
	w, h := float64(width), float64(height)
	if w < minWidth {
		h = h * minWidth / w
		w = minWidth
	}
	if w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	if h > maxHeight {
		w = w * maxHeight / h
		h = maxHeight
	}
	return max(1, int(w)), max(1, int(h))
}

// Preprocess resizes and binarizes img and returns it PNG encoded.
// The input image is never modified.
func Preprocess(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	width, height := TargetSize(b.Dx(), b.Dy())
	resized := imaging.Resize(img, width, height, imaging.Linear)

	// White first so transparent pixels are not read as black
	canvas := imaging.New(width, height, color.White)
	canvas = imaging.Overlay(canvas, resized, image.Pt(0, 0), 1.0)

	gray := Grayscale(canvas)
	threshold := OtsuThreshold(Histogram(gray), len(gray))
	binarized := Binarize(canvas, gray, threshold)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, binarized, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Grayscale returns one luminance value per pixel in row-major order.
func Grayscale(img *image.NRGBA) []uint8 {
	b := img.Bounds()
	gray := make([]uint8, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			p := img.Pix[i : i+3 : i+3]
			v := redWeight*float64(p[0]) + greenWeight*float64(p[1]) + blueWeight*float64(p[2])
			gray = append(gray, uint8(v))
		}
	}
	return gray
}

// Histogram counts gray levels
func Histogram(gray []uint8) [256]int {
	var hist [256]int
	for _, v := range gray {
		hist[v]++
	}
	return hist
}

// Binarize returns a copy of img where every pixel whose gray value is above
// threshold is white and every other pixel is black. Alpha is left untouched.
func Binarize(img *image.NRGBA, gray []uint8, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)

	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8
			if gray[n] > threshold {
				v = 255
			}
			i := out.PixOffset(x, y)
			out.Pix[i] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
			out.Pix[i+3] = img.Pix[img.PixOffset(x, y)+3]
			n++
		}
	}
	return out
}
