package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

const serverVersion = "0.1.0"

// RetrieveInput is the input schema for the retrieve_knowledge tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the question or phrase to look up in the knowledge base"`
}

// RetrieveOutput mirrors the retrieval result handed to in-process agents.
type RetrieveOutput struct {
	HasContext bool     `json:"has_context"`
	Context    string   `json:"context"`
	Sources    []string `json:"sources"`
}

// Server exposes the knowledge-base retrieval tool to external MCP clients.
type Server struct {
	tool   *retrieval.Tool
	server *mcp.Server
	logger *logger_i.Logger
}

func NewServer(tool *retrieval.Tool) *Server {
	s := &Server{
		tool: tool,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "knowledgeqa",
			Version: serverVersion,
		}, nil),
		logger: logger_i.NewLogger("mcpServer"),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        retrieval.ToolName,
		Description: retrieval.ToolDescription,
	}, s.handleRetrieve)

	return s
}

func (s *Server) handleRetrieve(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	result := s.tool.Retrieve(ctx, input.Query)
	return nil, RetrieveOutput{
		HasContext: result.HasContext,
		Context:    result.Context,
		Sources:    result.Sources,
	}, nil
}

// RunHTTP serves the MCP tool over streamable HTTP until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	s.logger.Info("MCP server listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
