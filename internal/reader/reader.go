package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

// ErrUnsupportedFormat is returned when no loader is registered for a file
// extension. Handlers map it to a client error before any side effect.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Loader turns a stored file into ordered text segments. New formats plug in
// through Register; nothing else in the pipeline knows about extensions.
type Loader interface {
	Load(path string) ([]docmodel.Segment, error)
}

type Reader struct {
	loaders map[string]Loader
	logger  *logger_i.Logger
}

// New builds a reader with the default loader set: plain text, markdown,
// PDF-to-markdown, and docx/rtf via lu4p/cat.
func New() *Reader {
	r := &Reader{
		loaders: make(map[string]Loader),
		logger:  logger_i.NewLogger("Document Reader"),
	}
	r.Register(".txt", &TextLoader{})
	r.Register(".md", &TextLoader{})
	r.Register(".pdf", &PDFToMarkdownLoader{})
	r.Register(".docx", &CatLoader{})
	r.Register(".rtf", &CatLoader{})
	return r
}

func (r *Reader) Register(ext string, loader Loader) {
	r.loaders[strings.ToLower(ext)] = loader
}

// Supported reports whether a loader is registered for the path's extension.
func (r *Reader) Supported(path string) bool {
	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (r *Reader) Read(path string) ([]docmodel.Segment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	segments, err := loader.Load(path)
	if err != nil {
		r.logger.Error("Loading document failed", "path", path, "error", err)
		return nil, err
	}
	r.logger.Debug("Loaded document", "path", path, "segments", len(segments))
	return segments, nil
}
