package api

import "time"

type UploadResponse struct {
	Id       string `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Filename string `json:"filename" example:"facts.txt"`
	Chunks   int    `json:"chunks" example:"4"`
}

type DocumentEntry struct {
	Id         string    `json:"id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type DocumentListResponse struct {
	Documents []DocumentEntry `json:"documents"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"unsupported file format"`
}

// requests---------------------

type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type HistoryMessage struct {
	Role    string `json:"role" example:"user"`
	Content string `json:"content"`
}

type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}
