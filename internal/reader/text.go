package reader

import (
	"os"

	"github.com/lu4p/cat"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
)

// TextLoader reads the whole file as a single segment. Used for .txt and
// .md; markdown keeps its own structure, no restructuring happens here.
type TextLoader struct{}

func (l *TextLoader) Load(path string) ([]docmodel.Segment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []docmodel.Segment{
		{
			Text:     string(content),
			Metadata: docmodel.SegmentMetadata{Source: path},
		},
	}, nil
}

// CatLoader extracts plain text from .docx and .rtf files. Page boundaries
// are not recoverable from these formats, so everything lands in one segment.
type CatLoader struct{}

func (l *CatLoader) Load(path string) ([]docmodel.Segment, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, err
	}
	return []docmodel.Segment{
		{
			Text:     text,
			Metadata: docmodel.SegmentMetadata{Source: path},
		},
	}, nil
}
