package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/jxin/knowledgeqa/internal/catalog"
	"github.com/jxin/knowledgeqa/internal/ingest"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/internal/memory"
	"github.com/jxin/knowledgeqa/internal/reader"
	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/internal/splitter"
	"github.com/jxin/knowledgeqa/internal/vectorindex/local"
)

// letterFreqEmbedder gives texts sharing words similar letter-frequency
// vectors, enough for the local index to rank deterministically.
type letterFreqEmbedder struct{}

func (letterFreqEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

func (e letterFreqEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := e.Embed(ctx, t)
		vectors[i] = v
	}
	return vectors, nil
}

// lookupProvider always asks for one retrieval first, then answers from the
// tool result the way a grounded model would. It records the result payload
// so tests can assert on what the tool actually reported.
type lookupProvider struct {
	toolResult map[string]any
}

func (p *lookupProvider) Chat(_ context.Context, _ string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
	last := msgs[len(msgs)-1]
	if last.ToolResult == nil {
		return llm.Response{ToolCalls: []llm.ToolCall{{
			Id:   "call-1",
			Name: retrieval.ToolName,
			Args: map[string]any{"query": last.Content},
		}}}, nil
	}

	p.toolResult = last.ToolResult.Content
	if has, _ := p.toolResult["has_context"].(bool); has {
		refText, _ := p.toolResult["context"].(string)
		return llm.Response{Content: "According to the documents: " + refText}, nil
	}
	return llm.Response{Content: "From my own knowledge: the capital of France is Paris."}, nil
}

func newPipeline(t *testing.T, provider llm.Provider) (ingest.Service, Service) {
	t.Helper()
	dir := t.TempDir()

	idx, err := local.New(t.TempDir(), letterFreqEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	cat, err := catalog.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	ingestSvc, err := ingest.NewService(reader.New(), splitter.New(500, 100), idx, cat, dir)
	if err != nil {
		t.Fatal(err)
	}

	newMemory := func(string) memory.Store { return memory.NewInMemStore(10) }
	chatSvc := NewService(provider, retrieval.NewTool(idx, 3), newMemory)
	return ingestSvc, chatSvc
}

func TestPipeline_UploadThenAsk(t *testing.T) {
	provider := &lookupProvider{}
	ingestSvc, chatSvc := newPipeline(t, provider)
	ctx := context.Background()

	doc, err := ingestSvc.Upload(ctx, []byte("Paris is the capital of France."), "facts.txt")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if doc.ChunkCount == 0 {
		t.Fatal("document produced no chunks")
	}

	reply := chatSvc.Chat(ctx, "session-1", "What is the capital of France?")
	if !strings.Contains(reply, "Paris") {
		t.Errorf("reply not grounded in the uploaded document: %q", reply)
	}

	if has, _ := provider.toolResult["has_context"].(bool); !has {
		t.Error("tool should report context for an indexed question")
	}
	sources, _ := provider.toolResult["sources"].([]string)
	if len(sources) == 0 || sources[0] != "facts.txt" {
		t.Errorf("tool result not sourced to the uploaded file: %v", sources)
	}
	if refText, _ := provider.toolResult["context"].(string); !strings.Contains(refText, "[Reference 1] (source: facts.txt)") {
		t.Errorf("context missing the numbered reference block: %q", refText)
	}
}

func TestPipeline_EmptyIndexAnswersFromOwnKnowledge(t *testing.T) {
	provider := &lookupProvider{}
	_, chatSvc := newPipeline(t, provider)
	ctx := context.Background()

	reply := chatSvc.Chat(ctx, "session-1", "What is the capital of France?")
	if strings.Contains(reply, "error occurred") {
		t.Fatalf("empty index must not fail the turn: %q", reply)
	}
	if !strings.Contains(reply, "own knowledge") {
		t.Errorf("model was not steered to answer unaided: %q", reply)
	}

	if has, _ := provider.toolResult["has_context"].(bool); has {
		t.Error("tool reported context from an empty index")
	}
	if refText, _ := provider.toolResult["context"].(string); !strings.Contains(refText, "own knowledge") {
		t.Errorf("steering text missing from empty result: %q", refText)
	}
}
