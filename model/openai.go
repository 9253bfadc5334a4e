package model

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// OpenAIEmbedder creates embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder fails before any network call when the API key is absent.
func NewOpenAIEmbedder(apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, types.E(types.StageEmbed, types.KindConfig,
			errors.New("OPENAI_API_KEY is required for embeddings"))
	}
	if model == "" {
		return nil, types.E(types.StageEmbed, types.KindConfig,
			errors.New("embedding model is not set"))
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Embed returns one normalized vector per input text, same order. The whole
// batch fails together: a provider error discards every vector. There is no
// caching and no retry.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, types.E(types.StageEmbed, types.KindInput,
			errors.New("nothing to embed"))
	}
	for i, t := range texts {
		if t == "" {
			return nil, types.Ef(types.StageEmbed, types.KindInput,
				"text %d is empty", i)
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, types.E(types.StageEmbed, types.KindProvider, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, types.Ef(types.StageEmbed, types.KindProvider,
			"provider returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, types.Ef(types.StageEmbed, types.KindProvider,
				"provider returned out-of-range index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		// The provider does not guarantee normalized output.
		Normalize(v)
		out[d.Index] = v
	}
	for i, v := range out {
		if v == nil {
			return nil, types.Ef(types.StageEmbed, types.KindProvider,
				"provider returned no embedding for input %d", i)
		}
	}
	return out, nil
}

// EmbedOne is Embed for a single text.
func (e *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func (e *OpenAIEmbedder) String() string {
	return fmt.Sprintf("openai-embedder(%s)", e.model)
}
