package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/landlordheaven/heaven-backend/pkg/dto"
)

// UnavailableAnswer is returned to questions when no assistant is configured.
const UnavailableAnswer = "Ask Heaven is unavailable right now. Your case summary has been saved; please try your question again later."

const systemPrompt = `You are Ask Heaven, an assistant for UK residential landlords.
Answer the landlord's question about their case in plain English, in at most five sentences.
Use the case summary provided. Amounts are in pence. Do not invent facts that are not in the summary.
If the question needs a solicitor, say so. Never give advice for a jurisdiction other than the one in the summary.`

// Answerer answers free-text questions about a case.
type Answerer interface {
	Answer(ctx context.Context, summary dto.CaseSummary, question string) (string, error)
}

// GeminiAnswerer answers questions with a Gemini model.
type GeminiAnswerer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAnswerer returns nil without an error when apiKey is empty so callers fall back to the canned answer.
func NewGeminiAnswerer(ctx context.Context, apiKey, modelName string) (*GeminiAnswerer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	return &GeminiAnswerer{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiAnswerer) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiAnswerer) Answer(ctx context.Context, summary dto.CaseSummary, question string) (string, error) {
	if g == nil || g.model == nil {
		return "", fmt.Errorf("assistant is not initialized")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encode case summary: %w", err)
	}
	prompt := fmt.Sprintf("Case summary: %s\nQuestion: %q", payload, question)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from assistant")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part %T", resp.Candidates[0].Content.Parts[0])
	}
	return strings.TrimSpace(string(text)), nil
}
