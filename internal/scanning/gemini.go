package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiTimeout = 30 * time.Second

// Gemini implements the Recognizer interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Recognizer instance
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Recognize asks Gemini for a verbatim transcription of the image
func (g *Gemini) Recognize(ctx context.Context, image []byte, cfg Config, progress ProgressFunc) (string, error) {
	if len(image) == 0 {
		return "", newRecognizeError("gemini", cfg, ErrEmptyImage)
	}

	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	// genai.ImageData expects the format suffix, not the full MIME type
	parts := []genai.Part{
		genai.ImageData("png", image),
		genai.Text(transcriptionPrompt(cfg)),
	}

	report(progress, 0)
	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", newRecognizeError("gemini", cfg, fmt.Errorf("generating content: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", newRecognizeError("gemini", cfg, ErrNoResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	report(progress, 1)

	return stripFences(text.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// stripFences removes a markdown code block wrapper some models add anyway
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
