package chunker

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// encodingName must match the embedding model family. cl100k_base decodes
// any token window back to text losslessly, which is what lets windows cut
// across words.
const encodingName = "cl100k_base"

type Chunker struct {
	enc *tiktoken.Tiktoken
}

func New() (*Chunker, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, types.E(types.StageChunk, types.KindConfig, err)
	}
	return &Chunker{enc: enc}, nil
}

// Split walks a window of chunkSize tokens over the tokenized text with
// stride chunkSize-overlap and decodes each window independently. A window
// may split semantic units at its edges; the overlap makes that acceptable.
// Empty input yields no chunks. If overlap >= chunkSize the stride would be
// zero or negative, so it falls back to a full chunkSize step (no overlap).
func (c *Chunker) Split(text string, chunkSize, overlap int) []types.Chunk {
	if text == "" {
		return nil
	}

	tokens := c.enc.Encode(text, nil, nil)

	stride := chunkSize - overlap
	if stride <= 0 {
		stride = chunkSize
	}

	var chunks []types.Chunk
	for start := 0; start < len(tokens); start += stride {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[start:end]
		chunks = append(chunks, types.Chunk{
			Position:   len(chunks),
			Text:       c.enc.Decode(window),
			TokenCount: len(window),
		})
	}
	return chunks
}

// CountTokens reports how many tokens text encodes to.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
