package openaiembed

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/jxin/knowledgeqa/internal/customHttpClient"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

// Client is the OpenAI-backed alternative to the Google embedder, selected
// when only an OpenAI key is configured.
type Client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

func New(modelName string, apiKey string) *Client {
	logger := logger_i.NewLogger("openai_embedding")
	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.Pooled()),
	)
	logger.Info("OpenAI embedding client created", "model", modelName)
	return &Client{api: api, model: modelName, logger: logger}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return vectors[0], nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		c.logger.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, err
	}

	vectors := make([][]float32, 0, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
