// Package llm wraps the hosted text-completion service used by the workflow
// stages. The service is stateless from the caller's point of view: one
// prompt in, one text out, and any transport failure surfaces as an error.
package llm

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// CompletionClient is the collaborator contract for text completion. A
// failure here is treated as a stage failure by the orchestrator; no retries
// are attempted.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userMessage, contextInfo string) (string, error)
}

// GeminiClient implements CompletionClient on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient creates a completion client for the given API key and
// model name (e.g. "models/gemini-1.5-pro").
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: client.GenerativeModel(modelName)}, nil
}

// Close releases the underlying API connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Complete sends the system prompt, optional context block, and the user
// message as a single prompt and returns the generated text.
func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userMessage, contextInfo string) (string, error) {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if contextInfo != "" {
		sb.WriteString("\n\nContext: ")
		sb.WriteString(contextInfo)
	}
	sb.WriteString("\n\n")
	sb.WriteString(userMessage)

	resp, err := g.model.GenerateContent(ctx, genai.Text(sb.String()))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			out.WriteString(string(textPart))
		}
	}
	return out.String(), nil
}
