package scanning

import (
	"context"
	"fmt"
	"strings"
)

// PageSegMode tells the recognizer how to split the page into text regions
type PageSegMode int

const (
	// PageSegAuto lets the engine detect the layout
	PageSegAuto PageSegMode = iota
	// PageSegSingleBlock treats the page as one uniform block of text
	PageSegSingleBlock
)

func (m PageSegMode) String() string {
	switch m {
	case PageSegSingleBlock:
		return "single-block"
	default:
		return "auto"
	}
}

// EngineMode selects the recognition engine where the backend has more than one
type EngineMode int

const (
	EngineDefault EngineMode = iota
	EngineLSTMOnly
)

// ProgressFunc receives the completion of a single recognition, from 0 to 1
type ProgressFunc func(progress float64)

// Config describes one OCR run
type Config struct {
	Name                    string
	Languages               []string
	PageSegMode             PageSegMode
	Whitelist               string
	DPI                     int
	EngineMode              EngineMode
	PreserveInterwordSpaces bool
}

// receiptWhitelist covers digits, Latin letters, Nordic letters and the
// punctuation and currency marks found on receipts
const receiptWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyzåäöÅÄÖüÜ.,:/%-€$() "

var (
	// ReceiptConfig reads English and Finnish with automatic layout detection
	ReceiptConfig = Config{
		Name:        "receipt",
		Languages:   []string{"eng", "fin"},
		PageSegMode: PageSegAuto,
		Whitelist:   receiptWhitelist,
		DPI:         300,
		EngineMode:  EngineLSTMOnly,
	}

	// BlockConfig reads English as a single block and keeps column spacing
	BlockConfig = Config{
		Name:                    "block",
		Languages:               []string{"eng"},
		PageSegMode:             PageSegSingleBlock,
		Whitelist:               receiptWhitelist,
		PreserveInterwordSpaces: true,
	}
)

// Recognizer turns an image into text. Implementations may be slow and may
// fail on any call.
type Recognizer interface {
	// Recognize transcribes a PNG image using cfg, reporting progress as it goes
	Recognize(ctx context.Context, image []byte, cfg Config, progress ProgressFunc) (string, error)
	// Close releases resources held by the recognizer
	Close() error
}

var languageNames = map[string]string{
	"eng": "English",
	"fin": "Finnish",
	"swe": "Swedish",
}

// transcriptionPrompt is shared by the LLM backends. It asks for a verbatim
// transcription so the same extraction heuristics apply to every backend.
func transcriptionPrompt(cfg Config) string {
	langs := make([]string, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		if name, ok := languageNames[l]; ok {
			langs = append(langs, name)
		} else {
			langs = append(langs, l)
		}
	}

	var b strings.Builder
	b.WriteString("Transcribe all text printed on this receipt exactly as it appears, line by line.\n")
	b.WriteString("Do not summarize, translate, correct, or reformat anything. Do not add commentary or markdown.\n")
	if len(langs) > 0 {
		fmt.Fprintf(&b, "The receipt is written in %s.\n", strings.Join(langs, " or "))
	}
	if cfg.PageSegMode == PageSegSingleBlock {
		b.WriteString("Treat the receipt as a single block of text and keep the spacing between columns.\n")
	}
	if cfg.Whitelist != "" {
		fmt.Fprintf(&b, "Only these characters can appear: %q\n", cfg.Whitelist)
	}
	return b.String()
}

// report calls progress when one was given
func report(progress ProgressFunc, p float64) {
	if progress != nil {
		progress(p)
	}
}
