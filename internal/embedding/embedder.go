package embedding

import "context"

// Embedder maps text to a fixed-length vector. The similarity semantics of
// the vectors are a property of the provider; the index only assumes a
// consistent ordering.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
