package extractor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const transcribePrompt = "Transcribe the transactions of the attached bank statement as plain text.\n" +
	"Write the statement date of each day on its own line as DD/MM/YYYY.\n" +
	"Below each date write one transaction per line: the description, a space, then the amount.\n" +
	"Amounts use a dot as decimal separator and a leading minus sign for money going out.\n" +
	"Do not add headings, totals, running balances, Markdown or any other text."

// contentGenerator is the part of genai.Models the extractor needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor asks a Gemini model to transcribe scanned statements that
// carry no text layer.
type GeminiExtractor struct {
	models contentGenerator
	model  string
}

// NewGeminiExtractor creates a genai client from the environment
// (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiExtractor{models: client.Models, model: model}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, document []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: document}},
			},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiExtractor.Extract: generate content: %w", err)
	}
	text := stripFences(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GeminiExtractor.Extract: empty response from model")
	}
	return text, nil
}

// stripFences removes a Markdown code fence the model may add anyway.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return ""
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
