package qdrantindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/internal/embedding"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

var dimension = uint64(config.EmbeddingOutputDimensionality)

// Index stores chunks in a Qdrant collection. Chosen over the local on-disk
// index when a Qdrant host is configured.
type Index struct {
	client     *qdrant.Client
	collection string
	embedder   embedding.Embedder
	logger     *logger_i.Logger
}

func New(ctx context.Context, host string, port int, collection string, embedder embedding.Embedder) (*Index, error) {
	logger := logger_i.NewLogger("Qdrant Index")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("Could not instantiate Qdrant client", "error", err)
		return nil, err
	}

	idx := &Index{client: client, collection: collection, embedder: embedder, logger: logger}
	if err := idx.ensureCollection(ctx); err != nil {
		logger.Error("Could not create collection", "collection", collection, "error", err)
		return nil, err
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down Qdrant client")
		if err := client.Close(); err != nil {
			logger.Error("Could not close Qdrant client", "error", err)
		}
	}()
	return idx, nil
}

func (idx *Index) Store(ctx context.Context, chunks []docmodel.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding batch failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":     chunk.Text,
				"document_id": chunk.DocumentId,
				"filename":    chunk.Filename,
				"chunk_index": chunk.ChunkIndex,
				"page":        chunk.Metadata.Page,
			}),
		}
	}

	_, err = idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return len(chunks), nil
}

func (idx *Index) Search(ctx context.Context, query string, topK int) ([]vectorindex.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query failed: %w", err)
	}

	result, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(queryVec...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		idx.logger.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	matches := make([]vectorindex.Match, 0, len(result))
	for _, hit := range result {
		matches = append(matches, vectorindex.Match{
			Text:       hit.Payload["content"].GetStringValue(),
			Score:      hit.Score,
			DocumentId: hit.Payload["document_id"].GetStringValue(),
			Filename:   hit.Payload["filename"].GetStringValue(),
			ChunkIndex: int(hit.Payload["chunk_index"].GetIntegerValue()),
			Page:       int(hit.Payload["page"].GetIntegerValue()),
		})
	}
	return matches, nil
}

func (idx *Index) DeleteByDocument(ctx context.Context, documentId string) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	if idx.collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
