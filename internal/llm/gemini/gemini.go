package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

type provider struct {
	client    *genai.Client
	modelName string
	logger    *logger_i.Logger
}

func New(ctx context.Context, modelName string, apiKey string) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &provider{
		client:    c,
		modelName: modelName,
		logger:    logger_i.NewLogger("llm_gemini"),
	}, nil
}

func (p *provider) Chat(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		contents = append(contents, toContent(msg))
	}

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature: genai.Ptr[float32](config.ModelTemperature),
	}
	if len(tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, tool := range tools {
			declarations = append(declarations, toDeclaration(tool))
		}
		contentConfig.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	result, err := p.client.Models.GenerateContent(ctx, p.modelName, contents, contentConfig)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini generate: %w", err)
	}

	response := llm.Response{Content: result.Text()}
	for _, call := range result.FunctionCalls() {
		response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
			Id:   call.ID,
			Name: call.Name,
			Args: call.Args,
		})
	}
	return response, nil
}

func toContent(msg llm.Message) *genai.Content {
	switch {
	case msg.ToolResult != nil:
		return &genai.Content{
			Role: genai.RoleUser,
			Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolResult.Id,
					Name:     msg.ToolResult.Name,
					Response: msg.ToolResult.Content,
				},
			}},
		}
	case len(msg.ToolCalls) > 0:
		parts := make([]*genai.Part, 0, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   call.Id,
					Name: call.Name,
					Args: call.Args,
				},
			})
		}
		return &genai.Content{Role: genai.RoleModel, Parts: parts}
	case msg.Role == llm.RoleAssistant:
		return &genai.Content{
			Role:  genai.RoleModel,
			Parts: []*genai.Part{{Text: msg.Content}},
		}
	default:
		return &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: msg.Content}},
		}
	}
}

func toDeclaration(tool llm.ToolSpec) *genai.FunctionDeclaration {
	properties := make(map[string]*genai.Schema, len(tool.Params))
	required := make([]string, 0, len(tool.Params))
	for _, param := range tool.Params {
		properties[param.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   required,
		},
	}
}
