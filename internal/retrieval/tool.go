package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jxin/knowledgeqa/internal/metrics"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

// ToolName is the identifier the language model uses to request a lookup.
const ToolName = "retrieve_knowledge"

// ToolDescription tells the model when a lookup is worthwhile.
const ToolDescription = "Searches the uploaded document knowledge base for passages relevant " +
	"to the user's question. Use it when the question plausibly concerns uploaded documents. " +
	"When it reports no relevant content, answer from your own knowledge."

const noContextText = "No relevant content was found in the knowledge base. " +
	"Answer the user's question from your own knowledge."

// Result is what a lookup hands back to the model. Context is always
// model-ready text, even when the lookup itself failed.
type Result struct {
	HasContext bool     `json:"has_context"`
	Context    string   `json:"context"`
	Sources    []string `json:"sources"`
}

// Tool answers knowledge-base lookups for the chat agent. Failures are
// absorbed into the Result so a broken index degrades a turn instead of
// aborting it.
type Tool struct {
	index  vectorindex.Index
	topK   int
	logger *logger_i.Logger
}

func NewTool(index vectorindex.Index, topK int) *Tool {
	return &Tool{
		index:  index,
		topK:   topK,
		logger: logger_i.NewLogger("retrieval"),
	}
}

func (t *Tool) Retrieve(ctx context.Context, query string) Result {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("knowledge_retrieval", time.Since(start)) }()

	matches, err := t.index.Search(ctx, query, t.topK)
	if err != nil {
		t.logger.Error("knowledge base search failed", "error", err)
		return Result{
			Context: "The knowledge base could not be searched right now. " +
				"Answer the user's question from your own knowledge.",
		}
	}

	if len(matches) == 0 {
		t.logger.Info("no relevant documents found")
		return Result{Context: noContextText}
	}

	blocks := make([]string, 0, len(matches))
	sources := make([]string, 0, len(matches))
	for i, match := range matches {
		source := match.Filename
		if source == "" {
			source = "unknown source"
		}
		blocks = append(blocks, fmt.Sprintf("[Reference %d] (source: %s)\n%s", i+1, source, match.Text))
		sources = append(sources, source)
	}

	t.logger.Info("retrieval complete", "matches", len(matches))
	return Result{
		HasContext: true,
		Context:    strings.Join(blocks, "\n\n"),
		Sources:    sources,
	}
}
