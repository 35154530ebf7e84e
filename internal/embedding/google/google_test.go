package google

import (
	"testing"

	"github.com/jxin/knowledgeqa/internal/config"
)

func TestEmbedConfig_TaskTypes(t *testing.T) {
	doc := embedConfig(taskTypeDocument)
	if doc.TaskType != "RETRIEVAL_DOCUMENT" {
		t.Errorf("document task type got %q", doc.TaskType)
	}

	query := embedConfig(taskTypeQuery)
	if query.TaskType != "RETRIEVAL_QUERY" {
		t.Errorf("query task type got %q", query.TaskType)
	}

	if doc.OutputDimensionality == nil || *doc.OutputDimensionality != config.EmbeddingOutputDimensionality {
		t.Error("output dimensionality not carried into the request config")
	}
}
