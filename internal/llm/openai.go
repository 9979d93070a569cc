package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider with the Chat Completions API. The
// same client serves OpenAI-compatible servers (Ollama, LM Studio, vLLM)
// through a custom base URL.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	displayName string
	credential  string
}

func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	credential := "api_key"
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		credential = "env"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: no API key (set openai.api_key or OPENAI_API_KEY)")
	}
	return &OpenAIProvider{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		displayName: "OpenAI",
		credential:  credential,
	}, nil
}

// NewOpenAICompatProvider targets any server speaking the OpenAI chat API.
// Local servers usually ignore the key, so an empty one is allowed.
func NewOpenAICompatProvider(baseURL, apiKey, model, displayName string) (*OpenAIProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base_url is required", displayName)
	}
	credential := "api_key"
	if apiKey == "" {
		apiKey = "none"
		credential = "none"
	}
	return &OpenAIProvider{
		client:      openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
		model:       model,
		displayName: displayName,
		credential:  credential,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("%s (%s)", p.displayName, p.model)
}

func (p *OpenAIProvider) Credential() string {
	return p.credential
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		messages := buildOpenAIMessages(req.Messages)
		if len(messages) == 0 {
			return fmt.Errorf("no user content provided")
		}

		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(chooseModel(req.Model, p.model)),
			Messages: messages,
		}
		if req.Temperature > 0 {
			params.Temperature = openai.Float(float64(req.Temperature))
		}
		if req.TopP > 0 {
			params.TopP = openai.Float(float64(req.TopP))
		}
		if req.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
		}
		// Chat Completions has no top-k; the setting is dropped here.

		if req.Debug {
			fmt.Fprintf(os.Stderr, "=== DEBUG: %s Stream Request ===\n", p.displayName)
			fmt.Fprintf(os.Stderr, "Provider: %s\n", p.Name())
			fmt.Fprintf(os.Stderr, "User: %s\n", truncate(lastUserText(req.Messages), 200))
			fmt.Fprintf(os.Stderr, "Messages: %d\n", len(messages))
			fmt.Fprintln(os.Stderr, "===================================")
		}

		var lastUsage *Usage
		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				events <- Event{Type: EventTextDelta, Text: chunk.Choices[0].Delta.Content}
			}
			if chunk.Usage.TotalTokens > 0 {
				lastUsage = &Usage{
					InputTokens:  int(chunk.Usage.PromptTokens),
					OutputTokens: int(chunk.Usage.CompletionTokens),
				}
			}
		}
		if err := stream.Err(); err != nil {
			return fmt.Errorf("%s streaming error: %w", p.displayName, err)
		}
		if lastUsage != nil {
			events <- Event{Type: EventUsage, Use: lastUsage}
		}
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

func buildOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		if msg.Text == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Text))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Text))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Text))
		}
	}
	return out
}
