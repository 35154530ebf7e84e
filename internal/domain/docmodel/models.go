package docmodel

import (
	"time"

	"github.com/google/uuid"
)

// Document is the catalog-level record of one ingested file. An entry exists
// in the catalog iff ingestion completed end to end.
type Document struct {
	Id         string    `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewDocument(filename string, path string) Document {
	return Document{
		Id:        uuid.New().String(),
		Filename:  filename,
		Path:      path,
		CreatedAt: time.Now(),
	}
}

// Segment is one unit of extracted text before splitting. Plain text and
// markdown files produce a single segment; PDFs produce one per page.
type Segment struct {
	Text     string
	Metadata SegmentMetadata
}

type SegmentMetadata struct {
	Source     string `json:"source"`
	Page       int    `json:"page,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
}

// Chunk is the unit of embedding and retrieval. ChunkIndex is contiguous
// from 0 within a document and exists for traceability only.
type Chunk struct {
	DocumentId string          `json:"document_id"`
	Filename   string          `json:"filename"`
	ChunkIndex int             `json:"chunk_index"`
	Text       string          `json:"text"`
	Metadata   SegmentMetadata `json:"metadata"`
}
