// Package agent turns retrieved context and a user question into a grounded
// answer through an OpenAI-compatible chat completion endpoint.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

const (
	// Sampling settings are fixed: one synchronous call, no streaming,
	// no retry, all-or-nothing.
	temperature = 0.7
	maxTokens   = 500
)

const systemPromptFmt = `You are a helpful Insurance Agency Customer Care assistant.

Your role is to answer customer questions about insurance policies, claims, and coverage using ONLY the information provided in the context below.

Guidelines:
- Provide clear, accurate answers based solely on the context
- If the answer is not in the context, politely say you don't have that information and offer to connect them with a human agent
- Be friendly and professional
- Keep answers concise but complete
- Do not make up information or provide answers not supported by the context

Context:
%s`

// Generator calls a chat-completion provider. The base URL is configurable
// so any OpenAI-compatible endpoint works; Groq is the default deployment.
type Generator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// New fails with a configuration error when the API key or model is absent,
// before any network call is possible.
func New(apiKey, baseURL, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, types.E(types.StageGenerate, types.KindConfig,
			errors.New("GROQ_API_KEY is required for chat completions"))
	}
	if model == "" {
		return nil, types.E(types.StageGenerate, types.KindConfig,
			errors.New("chat model is not set"))
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: slog.Default(),
	}, nil
}

// BuildSystemPrompt joins passages in retrieval order, separated by blank
// lines, into the grounding instruction block.
func BuildSystemPrompt(passages []string) string {
	return fmt.Sprintf(systemPromptFmt, strings.Join(passages, "\n\n"))
}

// Generate sends a two-message exchange (grounding system prompt + user
// query) and returns the single generated message.
func (g *Generator) Generate(ctx context.Context, query string, passages []string) (string, error) {
	if query == "" {
		return "", types.E(types.StageGenerate, types.KindInput,
			errors.New("empty query"))
	}

	system := BuildSystemPrompt(passages)

	if n, err := countTokens(system + query); err == nil {
		g.logger.Info("sending prompt", "model", g.model, "prompt_tokens", n, "passages", len(passages))
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", types.E(types.StageGenerate, types.KindProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", types.E(types.StageGenerate, types.KindProvider,
			errors.New("provider returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func countTokens(s string) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(s, nil, nil)), nil
}
