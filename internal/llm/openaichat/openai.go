package openaichat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/jxin/knowledgeqa/internal/customHttpClient"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

type provider struct {
	client    openai.Client
	modelName string
	logger    *logger_i.Logger
}

func New(modelName string, apiKey string) llm.Provider {
	return &provider{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(customHttpClient.Pooled()),
		),
		modelName: modelName,
		logger:    logger_i.NewLogger("llm_openai"),
	}
}

func (p *provider) Chat(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, msg := range msgs {
		converted, err := toMessageParam(msg)
		if err != nil {
			return llm.Response{}, err
		}
		messages = append(messages, converted)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.modelName),
		Messages: messages,
	}
	for _, tool := range tools {
		params.Tools = append(params.Tools, toToolParam(tool))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("openai chat completion: empty choices")
	}

	choice := completion.Choices[0].Message
	response := llm.Response{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			p.logger.Warn("unparseable tool call arguments", "tool", call.Function.Name, "error", err)
		}
		response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
			Id:   call.ID,
			Name: call.Function.Name,
			Args: args,
		})
	}
	return response, nil
}

func toMessageParam(msg llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch {
	case msg.ToolResult != nil:
		payload, err := json.Marshal(msg.ToolResult.Content)
		if err != nil {
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("encoding tool result: %w", err)
		}
		return openai.ToolMessage(string(payload), msg.ToolResult.Id), nil
	case len(msg.ToolCalls) > 0:
		calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			args, err := json.Marshal(call.Args)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("encoding tool call args: %w", err)
			}
			calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: call.Id,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(args),
					},
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls},
		}, nil
	case msg.Role == llm.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.UserMessage(msg.Content), nil
	}
}

func toToolParam(tool llm.ToolSpec) openai.ChatCompletionToolUnionParam {
	properties := make(map[string]any, len(tool.Params))
	required := make([]string, 0, len(tool.Params))
	for _, param := range tool.Params {
		properties[param.Name] = map[string]any{
			"type":        "string",
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}
	return openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        tool.Name,
		Description: openai.String(tool.Description),
		Parameters: openai.FunctionParameters{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	})
}
