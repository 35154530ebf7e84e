package local

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/internal/embedding"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

const indexFileName = "index.json"

type entry struct {
	Chunk  docmodel.Chunk `json:"chunk"`
	Vector []float32      `json:"vector"`
}

// Index is a brute-force cosine store persisted as a JSON file inside the
// index directory. It is loaded once at construction and shared for the
// process lifetime; every mutation rewrites the file atomically.
type Index struct {
	mu       sync.RWMutex
	entries  []entry
	path     string
	embedder embedding.Embedder
	logger   *logger_i.Logger
}

func New(dir string, embedder embedding.Embedder) (*Index, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	idx := &Index{
		path:     filepath.Join(dir, indexFileName),
		embedder: embedder,
		logger:   logger_i.NewLogger("Local Index"),
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	idx.logger.Info("Local vector index loaded", "entries", len(idx.entries), "path", idx.path)
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

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, c := range chunks {
		idx.entries = append(idx.entries, entry{Chunk: c, Vector: vectors[i]})
	}
	if err := idx.save(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (idx *Index) Search(ctx context.Context, query string, topK int) ([]vectorindex.Match, error) {
	idx.mu.RLock()
	empty := len(idx.entries) == 0
	idx.mu.RUnlock()
	if empty || topK <= 0 {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query failed: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]vectorindex.Match, 0, len(idx.entries))
	for _, e := range idx.entries {
		matches = append(matches, vectorindex.Match{
			Text:       e.Chunk.Text,
			Score:      cosine(queryVec, e.Vector),
			DocumentId: e.Chunk.DocumentId,
			Filename:   e.Chunk.Filename,
			ChunkIndex: e.Chunk.ChunkIndex,
			Page:       e.Chunk.Metadata.Page,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (idx *Index) DeleteByDocument(ctx context.Context, documentId string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.entries[:0]
	removed := 0
	for _, e := range idx.entries {
		if e.Chunk.DocumentId == documentId {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	idx.entries = kept
	if removed == 0 {
		return nil
	}
	idx.logger.Debug("Deleted document entries", "documentId", documentId, "removed", removed)
	return idx.save()
}

func (idx *Index) load() error {
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading index file: %w", err)
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return fmt.Errorf("decoding index file: %w", err)
	}
	return nil
}

// save writes through a temp file + rename so a crash mid-write cannot
// corrupt the index. Callers hold the write lock.
func (idx *Index) save() error {
	data, err := json.Marshal(idx.entries)
	if err != nil {
		return err
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}
	return os.Rename(tmp, idx.path)
}

func cosine(a []float32, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
