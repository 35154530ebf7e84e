package google

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

var dimension = config.EmbeddingOutputDimensionality

// Asymmetric retrieval: documents and queries are embedded with different
// task types so the model places them in matching regions of the space.
const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

type Client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

func New(ctx context.Context, modelName string, apiKey string) (*Client, error) {
	logger := logger_i.NewLogger("google_embedding")
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		logger.Error("Error creating Google embedding client", "error", err)
		return nil, err
	}
	logger.Info("Google embedding client created", "model", modelName)
	return &Client{genAi: c, model: modelName, logger: logger}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.doCall(ctx, genai.Text(text), taskTypeQuery)
	if err != nil {
		c.logger.Error("Error getting embedding from Google", "error", err)
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return result.Embeddings[0].Values, nil
}

func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := c.doCall(ctx, getContent(texts), taskTypeDocument)
	if err != nil {
		if isRateLimited(err) {
			c.logger.Warn("Rate limit hit, retrying in 5 seconds")
			time.Sleep(5 * time.Second)
			result, err = c.doCall(ctx, getContent(texts), taskTypeDocument)
		}
		if err != nil {
			c.logger.Error("Error getting batch embeddings from Google", "error", err)
			return nil, err
		}
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, embedConfig(taskType))
}

func embedConfig(taskType string) *genai.EmbedContentConfig {
	return &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             taskType,
	}
}

func getContent(texts []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}
	return contents
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
