package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jxin/knowledgeqa/internal/adapter/utils"
	"github.com/jxin/knowledgeqa/internal/api"
	"github.com/jxin/knowledgeqa/internal/chat"
	"github.com/jxin/knowledgeqa/internal/ingest"
	"github.com/jxin/knowledgeqa/internal/reader"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

var logH *logger_i.Logger

// allowed upload formats, the error message below names the same set
var allowedUploadExtensions = []string{".pdf", ".txt", ".md"}

const maxUploadSize = 32 << 20 //32mb

type Handler struct {
	ingest ingest.Service
	chat   chat.Service
}

func New(ingestService ingest.Service, chatService chat.Service) *Handler {
	logH = logger_i.NewLogger("handlers")
	return &Handler{ingest: ingestService, chat: chatService}
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// UploadDocument godoc
// @Summary      Upload a document
// @Description  Receives a file via multipart/form-data, extracts its text, chunks and indexes it.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The PDF, TXT or MD file to upload"
// @Success      200  {object}  api.UploadResponse  "Document indexed"
// @Failure      400  {object}  api.ErrorResponse   "Unsupported format or bad request"
// @Failure      500  {object}  api.ErrorResponse   "Ingestion failure"
// @Router       /documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context(), logH) {
		logH.Warn("Invalid Context by request ", "remoteAddr", r.RemoteAddr)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	if !isAllowedUpload(fileMetadata.Filename) {
		WriteErrorResponse(w, http.StatusBadRequest,
			"unsupported file format, allowed: "+strings.Join(allowedUploadExtensions, ", "))
		return
	}

	content, err := io.ReadAll(fileReader)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not read file")
		return
	}

	doc, err := h.ingest.Upload(r.Context(), content, fileMetadata.Filename)
	if err != nil {
		if errors.Is(err, reader.ErrUnsupportedFormat) {
			WriteErrorResponse(w, http.StatusBadRequest,
				"unsupported file format, allowed: "+strings.Join(allowedUploadExtensions, ", "))
			return
		}
		logH.Error("document ingestion failed", "filename", fileMetadata.Filename, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not ingest document")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.UploadResponse{
		Id:       doc.Id,
		Filename: doc.Filename,
		Chunks:   doc.ChunkCount,
	})
}

// ListDocuments godoc
// @Summary      List uploaded documents
// @Tags         Documents
// @Produce      json
// @Success      200  {object}  api.DocumentListResponse
// @Router       /documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context(), logH) {
		return
	}

	docs := h.ingest.List(r.Context())
	entries := make([]api.DocumentEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, api.DocumentEntry{
			Id:         doc.Id,
			Filename:   doc.Filename,
			ChunkCount: doc.ChunkCount,
			CreatedAt:  doc.CreatedAt,
		})
	}
	writeJsonResponse(w, http.StatusOK, api.DocumentListResponse{Documents: entries})
}

// DeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes the document's vector entries, its stored file and its catalog entry.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DeleteResponse
// @Router       /documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context(), logH) {
		return
	}

	id := utils.GetChiURLParam(r, "id")
	success, message := h.ingest.Delete(r.Context(), id)
	writeJsonResponse(w, http.StatusOK, api.DeleteResponse{Success: success, Message: message})
}

func isAllowedUpload(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedUploadExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
