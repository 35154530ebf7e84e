package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jxin/knowledgeqa/internal/catalog"
	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/internal/metrics"
	"github.com/jxin/knowledgeqa/internal/reader"
	"github.com/jxin/knowledgeqa/internal/splitter"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

// Service orchestrates upload, listing and deletion of documents. Handlers
// only talk to this interface so the pipeline can be mocked in tests.
type Service interface {
	Upload(ctx context.Context, content []byte, filename string) (docmodel.Document, error)
	List(ctx context.Context) []docmodel.Document
	Delete(ctx context.Context, id string) (bool, string)
}

type service struct {
	reader       *reader.Reader
	splitter     *splitter.Splitter
	index        vectorindex.Index
	catalog      *catalog.Store
	documentsDir string

	// serializes mutations per document id: an ingest racing a delete of
	// the same id is undefined otherwise
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	logger *logger_i.Logger
}

func NewService(r *reader.Reader, s *splitter.Splitter, index vectorindex.Index, cat *catalog.Store, documentsDir string) (Service, error) {
	if err := os.MkdirAll(documentsDir, 0750); err != nil {
		return nil, fmt.Errorf("creating documents dir: %w", err)
	}
	return &service{
		reader:       r,
		splitter:     s,
		index:        index,
		catalog:      cat,
		documentsDir: documentsDir,
		locks:        make(map[string]*sync.Mutex),
		logger:       logger_i.NewLogger("Ingestion Service"),
	}, nil
}

// Upload writes the file, then runs read -> split -> embed -> index and only
// records the document in the catalog once everything succeeded. A failure
// downstream of the file write leaves the file on disk but no catalog entry;
// re-uploading is the retry path.
func (s *service) Upload(ctx context.Context, content []byte, filename string) (docmodel.Document, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	path, resolvedName, err := s.storeFile(content, filename)
	if err != nil {
		return docmodel.Document{}, err
	}

	doc := docmodel.NewDocument(resolvedName, path)
	unlock := s.lockDocument(doc.Id)
	defer unlock()

	s.logger.Debug("Processing document", "filename", resolvedName, "id", doc.Id)

	segments, err := s.reader.Read(path)
	if err != nil {
		return docmodel.Document{}, fmt.Errorf("reading document: %w", err)
	}

	chunks := s.splitter.SplitSegments(doc.Id, resolvedName, segments)

	stored, err := s.index.Store(ctx, chunks)
	if err != nil {
		return docmodel.Document{}, fmt.Errorf("indexing document: %w", err)
	}

	doc.ChunkCount = stored
	if err := s.catalog.Add(doc); err != nil {
		return docmodel.Document{}, fmt.Errorf("recording document: %w", err)
	}

	metrics.CountIngestedDocument(stored)
	s.logger.Info("Document ingested", "filename", resolvedName, "id", doc.Id, "chunks", stored)
	return doc, nil
}

func (s *service) List(ctx context.Context) []docmodel.Document {
	return s.catalog.List()
}

// Delete removes vector entries first, then the backing file, then the
// catalog entry: a crash mid-way leaves at worst a catalog entry pointing at
// nothing, which is detectable, rather than an unindexed stray file.
func (s *service) Delete(ctx context.Context, id string) (bool, string) {
	unlock := s.lockDocument(id)
	defer unlock()

	doc, found := s.catalog.Get(id)
	if !found {
		return false, "document not found"
	}

	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		s.logger.Error("Deleting vector entries failed", "id", id, "error", err)
		return false, "failed to delete indexed chunks"
	}

	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Removing backing file failed", "path", doc.Path, "error", err)
	}

	if _, err := s.catalog.Remove(id); err != nil {
		s.logger.Error("Removing catalog entry failed", "id", id, "error", err)
		return false, "failed to update catalog"
	}

	s.forgetLock(id)
	s.logger.Info("Document deleted", "id", id, "filename", doc.Filename)
	return true, "deleted"
}

// storeFile claims a free path with O_EXCL and writes the upload to it,
// appending _1, _2, ... to the base name on collision. The exclusive create
// is the claim, so concurrent uploads of the same filename cannot land on
// one path, and re-uploads become distinct documents.
func (s *service) storeFile(content []byte, filename string) (string, string, error) {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := base
	for counter := 1; ; counter++ {
		path := filepath.Join(s.documentsDir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
		if err == nil {
			if _, err := f.Write(content); err != nil {
				f.Close()
				return "", "", fmt.Errorf("storing upload: %w", err)
			}
			if err := f.Close(); err != nil {
				return "", "", fmt.Errorf("storing upload: %w", err)
			}
			return path, name, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("storing upload: %w", err)
		}
		name = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}
}

func (s *service) lockDocument(id string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// forgetLock drops the lock entry for a deleted document so the map does not
// grow without bound. Ids are never reused, so a later lockDocument for the
// same id can only come from a lookup that will find nothing.
func (s *service) forgetLock(id string) {
	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()
}
