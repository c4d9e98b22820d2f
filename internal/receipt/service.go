package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/zombor/receipt-ocr/internal/logger"
	"github.com/zombor/receipt-ocr/internal/preprocess"
	"github.com/zombor/receipt-ocr/internal/scanning"
)

// TextSelector runs OCR over a preprocessed image and picks the best text
type TextSelector interface {
	SelectBest(ctx context.Context, image []byte, progress scanning.ProgressSink) scanning.Selection
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service turns receipt images into records
type Service struct {
	selector   TextSelector
	timeSource TimeSource
}

// NewService creates a new Service with the default time source
func NewService(selector TextSelector) *Service {
	return &Service{
		selector:   selector,
		timeSource: &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(selector TextSelector, timeSrc TimeSource) *Service {
	return &Service{
		selector:   selector,
		timeSource: timeSrc,
	}
}

// Scan decodes and preprocesses an image, runs OCR and extracts the receipt
// fields. Only decoding and preprocessing failures are returned; OCR failures
// produce a record with no fields.
func (s *Service) Scan(ctx context.Context, data []byte, contentType string, progress scanning.ProgressSink) (*Record, error) {
	log := logger.WithComponent("service")

	img, err := preprocess.Decode(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	png, err := preprocess.Preprocess(img)
	if err != nil {
		return nil, fmt.Errorf("preprocessing image: %w", err)
	}

	log.Debug().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("png_size", len(png)).
		Msg("Image preprocessed")

	selection := s.selector.SelectBest(ctx, png, progress)
	record := Assemble(selection.Text, s.timeSource.Now())

	event := log.Info().
		Int("score", selection.Score).
		Bool("ocr_failed", selection.Failed()).
		Bool("price_found", record.FinalPrice != nil).
		Bool("date_found", record.Date != nil)
	if record.FinalPrice != nil {
		event = event.Str("final_price", record.FinalPrice.StringFixed(2))
	}
	event.Msg("Receipt scanned")

	return record, nil
}
