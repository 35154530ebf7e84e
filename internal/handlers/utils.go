package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jxin/knowledgeqa/internal/api"
	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logH.Error("Error encoding response: %v", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Code: httpCode, Message: message})
}

func validateContext(ctx context.Context, log *logger_i.Logger) bool {
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		log.With("traceId", trace)
	}
	if ctx.Err() != nil {
		log.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		log.Warn("context cancelled")
		return false
	default:
		return true
	}
}
