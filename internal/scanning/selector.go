package scanning

import (
	"context"
	"fmt"
	"math"

	"github.com/zombor/receipt-ocr/internal/logger"
)

// FailureText is returned in place of OCR output when no attempt produced
// anything that looks like receipt text
const FailureText = "OCR failed to extract readable text"

// Attempt records the outcome of one recognition
type Attempt struct {
	Config string
	Text   string
	Score  int
	Err    error
}

// Selection is the text chosen from all attempts. Selected is the index of the
// winning attempt, or -1 when FailureText was returned.
type Selection struct {
	Text     string
	Score    int
	Selected int
	Attempts []Attempt
}

// Failed reports whether no attempt produced usable text
func (s Selection) Failed() bool {
	return s.Selected < 0
}

// ProgressSink receives overall OCR progress as an integer percentage
type ProgressSink func(percent int)

// Selector runs every configuration against an image and keeps the best text
type Selector struct {
	recognizer Recognizer
	configs    []Config
}

// NewSelector creates a Selector that tries ReceiptConfig then BlockConfig
func NewSelector(recognizer Recognizer) *Selector {
	return &Selector{
		recognizer: recognizer,
		configs:    []Config{ReceiptConfig, BlockConfig},
	}
}

// SelectBest runs each configuration in order and returns the text with the
// highest Score. A failing attempt is logged and skipped. Only text scoring
// above zero can win; ties keep the earlier attempt. Progress is split evenly
// across attempts so the first reports 0-50 and the second 50-100.
func (s *Selector) SelectBest(ctx context.Context, image []byte, progress ProgressSink) Selection {
	log := logger.WithComponent("selector")

	sel := Selection{
		Text:     FailureText,
		Selected: -1,
		Attempts: make([]Attempt, 0, len(s.configs)),
	}

	share := 100 / float64(len(s.configs))
	for i, cfg := range s.configs {
		offset := float64(i) * share
		onProgress := func(p float64) {
			if progress == nil {
				return
			}
			p = math.Min(math.Max(p, 0), 1)
			progress(int(math.Round(offset + p*share)))
		}

		attempt := s.attempt(ctx, image, cfg, onProgress)
		sel.Attempts = append(sel.Attempts, attempt)

		if attempt.Err != nil {
			log.Warn().Err(attempt.Err).Str("config", cfg.Name).Msg("OCR attempt failed")
			continue
		}

		log.Debug().Str("config", cfg.Name).Int("score", attempt.Score).Msg("OCR attempt finished")

		if attempt.Score > sel.Score {
			sel.Text = attempt.Text
			sel.Score = attempt.Score
			sel.Selected = i
		}
	}

	if sel.Failed() {
		log.Warn().Int("attempts", len(sel.Attempts)).Msg("no OCR attempt produced readable text")
	}

	return sel
}

// attempt runs one recognition and turns a panic in the backend into an error
func (s *Selector) attempt(ctx context.Context, image []byte, cfg Config, progress ProgressFunc) (a Attempt) {
	a.Config = cfg.Name

	defer func() {
		if r := recover(); r != nil {
			a.Text = ""
			a.Score = 0
			a.Err = fmt.Errorf("recognizer panicked with %q config: %v", cfg.Name, r)
		}
	}()

	text, err := s.recognizer.Recognize(ctx, image, cfg, progress)
	if err != nil {
		a.Err = err
		return a
	}

	a.Text = text
	a.Score = Score(text)
	return a
}
