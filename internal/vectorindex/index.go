package vectorindex

import (
	"context"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
)

// Match is one search hit with the metadata stored alongside the vector.
type Match struct {
	Text       string
	Score      float32
	DocumentId string
	Filename   string
	ChunkIndex int
	Page       int
}

// Index persists chunk text plus embedding and supports similarity search
// and deletion by document. Implementations embed through their own
// Embedder; callers never see vectors.
type Index interface {
	// Store embeds and persists every chunk, returning the count stored.
	Store(ctx context.Context, chunks []docmodel.Chunk) (int, error)
	// Search returns up to topK matches by similarity. An empty index
	// yields an empty result, not an error.
	Search(ctx context.Context, query string, topK int) ([]Match, error)
	// DeleteByDocument removes every entry tagged with the document id.
	// Succeeds vacuously when nothing matches.
	DeleteByDocument(ctx context.Context, documentId string) error
}
