package splitter

import (
	"strings"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
)

// Separators ordered from "best" to "worst" for semantic meaning. The empty
// string is the hard character cut of last resort.
var defaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", " ", ""}

// Splitter cuts text segments into chunks of at most chunkSize characters
// with chunkOverlap characters carried between consecutive chunks. Splitting
// is purely positional, so the same input and configuration always produce
// the same chunk sequence.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func New(chunkSize int, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// SplitSegments splits every segment and assigns contiguous chunk indexes
// across the whole document. Each chunk keeps its segment's metadata.
func (s *Splitter) SplitSegments(documentId string, filename string, segments []docmodel.Segment) []docmodel.Chunk {
	var chunks []docmodel.Chunk
	for _, segment := range segments {
		for _, text := range s.Split(segment.Text) {
			chunks = append(chunks, docmodel.Chunk{
				DocumentId: documentId,
				Filename:   filename,
				ChunkIndex: len(chunks),
				Text:       text,
				Metadata:   segment.Metadata,
			})
		}
	}
	return chunks
}

// Split cuts one text into bounded chunks, preferring paragraph, then line,
// then sentence-terminal, then whitespace boundaries, falling back to a hard
// character cut.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := ""
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			next = nil
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		pieces = hardCut(text, s.chunkSize, s.chunkOverlap)
	} else {
		parts := strings.Split(text, separator)
		for i, part := range parts {
			if i < len(parts)-1 {
				pieces = append(pieces, part+separator)
			} else if part != "" {
				pieces = append(pieces, part)
			}
		}
	}

	var chunks []string
	var fitting []string
	for _, piece := range pieces {
		if len(piece) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		// an oversized piece: flush what we have, then split it further
		// with the remaining separators
		chunks = append(chunks, s.merge(fitting)...)
		fitting = nil
		chunks = append(chunks, s.split(piece, next)...)
	}
	chunks = append(chunks, s.merge(fitting)...)
	return chunks
}

// merge packs already-fitting pieces into chunks, carrying chunkOverlap
// characters worth of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, piece := range pieces {
		if total+len(piece) > s.chunkSize && total > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for len(window) > 0 && (total > s.chunkOverlap || total+len(piece) > s.chunkSize) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
	}

	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// hardCut steps by limit-overlap so even separator-free text keeps the
// configured overlap between consecutive pieces.
func hardCut(text string, limit int, overlap int) []string {
	step := limit - overlap
	if step <= 0 {
		step = limit
	}
	var pieces []string
	for len(text) > limit {
		pieces = append(pieces, text[:limit])
		text = text[step:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}
