package scanning

import (
	"context"
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface with a local Tesseract install.
// A fresh client is created per call because the underlying API is not reentrant.
type Tesseract struct {
	tessdataPrefix string
}

// NewTesseract creates a Tesseract recognizer. tessdataPrefix may be empty to
// use the engine's default language data location.
func NewTesseract(tessdataPrefix string) *Tesseract {
	return &Tesseract{tessdataPrefix: tessdataPrefix}
}

// Recognize runs Tesseract over a PNG image. Tesseract only reports completion,
// so progress jumps from 0 to 1.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, cfg Config, progress ProgressFunc) (string, error) {
	if len(image) == 0 {
		return "", newRecognizeError("tesseract", cfg, ErrEmptyImage)
	}
	if err := ctx.Err(); err != nil {
		return "", newRecognizeError("tesseract", cfg, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := t.configure(client, cfg); err != nil {
		return "", newRecognizeError("tesseract", cfg, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", newRecognizeError("tesseract", cfg, fmt.Errorf("setting image: %w", err))
	}

	report(progress, 0)
	text, err := client.Text()
	if err != nil {
		return "", newRecognizeError("tesseract", cfg, fmt.Errorf("extracting text: %w", err))
	}
	report(progress, 1)

	return text, nil
}

// configure applies cfg to client. The engine mode is an init-only Tesseract
// variable that cannot be changed through SetVariable; LSTM is already the
// default for the standard language data, so it is not forwarded.
func (t *Tesseract) configure(client *gosseract.Client, cfg Config) error {
	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return fmt.Errorf("setting tessdata prefix: %w", err)
		}
	}
	if len(cfg.Languages) > 0 {
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			return fmt.Errorf("setting language: %w", err)
		}
	}
	if err := client.SetPageSegMode(pageSegMode(cfg.PageSegMode)); err != nil {
		return fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			return fmt.Errorf("setting whitelist: %w", err)
		}
	}
	if cfg.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(cfg.DPI)); err != nil {
			return fmt.Errorf("setting dpi: %w", err)
		}
	}
	if cfg.PreserveInterwordSpaces {
		if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
			return fmt.Errorf("setting interword spaces: %w", err)
		}
	}
	return nil
}

func pageSegMode(m PageSegMode) gosseract.PageSegMode {
	if m == PageSegSingleBlock {
		return gosseract.PSM_SINGLE_BLOCK
	}
	return gosseract.PSM_AUTO
}

// Close is a no-op; clients are released after each recognition
func (t *Tesseract) Close() error {
	return nil
}
