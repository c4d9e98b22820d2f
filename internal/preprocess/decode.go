package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

var (
	// ErrDecode is returned when the input cannot be interpreted as pixels
	ErrDecode = errors.New("decoding image")

	// ErrUnsupportedFormat is returned when no decoder recognizes the input
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Decode turns encoded receipt bytes into an image. JPEG, PNG, GIF, BMP, TIFF and
// WebP go through imaging (with EXIF auto-orientation), HEIC/HEIF through the pure
// Go HEIC decoder and PDFs are rendered from their first page.
func Decode(data []byte, contentType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case mimeType == "application/pdf" || isPDF(data):
		return pdfToImage(data)
	case isHEICFormat(data) || isHEICMimeType(mimeType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: heic: %w", ErrDecode, err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w (supported: JPEG, PNG, GIF, BMP, TIFF, WebP, HEIC, HEIF, PDF): %w", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// pdfToImage renders the first page of a PDF; receipts are single page
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("%w: opening PDF: %w", ErrDecode, err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering PDF page: %w", ErrDecode, err)
	}
	return img, nil
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
