package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jxin/knowledgeqa/internal/adapter/utils"
	"github.com/jxin/knowledgeqa/internal/api"
)

// Chat godoc
// @Summary      Send a chat message
// @Description  Routes the message to the session's agent and returns the reply. Turn-level failures come back as a textual reply, not an error status.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "Session ID and message"
// @Success      200      {object}  api.ChatResponse
// @Failure      400      {object}  api.ErrorResponse  "Missing session_id or message"
// @Router       /chat [post]
func (h *Handler) Chat(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context(), logH) {
		logH.Warn("Invalid Context by request ", "remoteAddr", request.RemoteAddr)
		return
	}

	var requestData api.ChatRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logH.Error("Couldn't close the Chat handler reader :", "error", err)
		}
	}(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.SessionID == "" || requestData.Message == "" {
		logH.Warn("Bad Chat Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	reply := h.chat.Chat(request.Context(), requestData.SessionID, requestData.Message)
	writeJsonResponse(w, http.StatusOK, api.ChatResponse{Reply: reply})
}

// GetHistory godoc
// @Summary      Get session history
// @Tags         Chat
// @Produce      json
// @Param        session_id  path      string  true  "Session ID"
// @Success      200  {object}  api.HistoryResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /chat/{session_id}/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context(), logH) {
		return
	}

	sessionId := utils.GetChiURLParam(r, "session_id")
	messages, err := h.chat.History(r.Context(), sessionId)
	if err != nil {
		logH.Error("failed to load session history", "sessionId", sessionId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not load history")
		return
	}

	out := make([]api.HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, api.HistoryMessage{Role: string(msg.Role), Content: msg.Content})
	}
	writeJsonResponse(w, http.StatusOK, api.HistoryResponse{Messages: out})
}

// ClearHistory godoc
// @Summary      Clear session history
// @Description  Drops the session. A later message under the same id starts a fresh conversation.
// @Tags         Chat
// @Produce      json
// @Param        session_id  path      string  true  "Session ID"
// @Success      200  {object}  map[string]bool
// @Router       /chat/{session_id}/history [delete]
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context(), logH) {
		return
	}

	sessionId := utils.GetChiURLParam(r, "session_id")
	if err := h.chat.Clear(r.Context(), sessionId); err != nil {
		logH.Error("failed to clear session", "sessionId", sessionId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not clear history")
		return
	}
	writeJsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}
