package llm

import (
	"context"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client over the chat completions protocol. It
// works against api.openai.com, OpenRouter, and anything else speaking the
// same dialect.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func newOpenAIClient(cfg Config) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...), model: cfg.Model}
}

func messages(system, prompt string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	return append(msgs, openai.UserMessage(prompt))
}

// GenerateContent returns the full response text for a prompt.
func (c *OpenAIClient) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages(system, prompt),
	})
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "chat completion failed", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "empty choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON returns a JSON response, generated at low temperature for
// consistent output and stripped of markdown fences.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages(system, prompt),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "chat completion failed", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "empty choices in response"}
	}
	return CleanJSONBlock(resp.Choices[0].Message.Content), nil
}

// GenerateStream delivers deltas through onDelta and returns the full text.
func (c *OpenAIClient) GenerateStream(ctx context.Context, system, prompt string, onDelta func(text string)) (string, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages(system, prompt),
	})
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onDelta != nil {
			onDelta(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "stream failed", Cause: err}
	}
	if len(acc.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "empty stream"}
	}
	return acc.Choices[0].Message.Content, nil
}

// Model returns the model name requests are sent to.
func (c *OpenAIClient) Model() string { return c.model }

// Close releases resources held by the client.
func (c *OpenAIClient) Close() error { return nil }
