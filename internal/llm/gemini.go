package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Message: "failed to create client", Cause: err}
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func (c *GeminiClient) generativeModel(system string, jsonOutput bool) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if jsonOutput {
		model.ResponseMIMEType = "application/json"
	}
	return model
}

// GenerateContent returns the full response text for a prompt.
func (c *GeminiClient) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.generativeModel(system, false).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}
	}
	return extractText(resp)
}

// GenerateJSON returns a JSON response using the JSON response MIME type,
// stripped of markdown fences.
func (c *GeminiClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.generativeModel(system, true).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}
	}
	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GenerateStream delivers deltas through onDelta and returns the full text.
// Chunks without text parts (safety metadata only) are skipped.
func (c *GeminiClient) GenerateStream(ctx context.Context, system, prompt string, onDelta func(text string)) (string, error) {
	iter := c.generativeModel(system, false).GenerateContentStream(ctx, genai.Text(prompt))
	var sb strings.Builder
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", &ProviderError{Provider: ProviderGemini, Message: "stream failed", Cause: err}
		}
		text, err := extractText(resp)
		if err != nil {
			continue
		}
		if text != "" && onDelta != nil {
			onDelta(text)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// Model returns the model name requests are sent to.
func (c *GeminiClient) Model() string { return c.model }

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractText flattens the text parts of a Gemini response.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Message: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Message: "no content in response"}
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Message: fmt.Sprintf("no text parts among %d parts", len(candidate.Content.Parts))}
	}
	return strings.Join(parts, ""), nil
}
