package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

const catalogFileName = "documents.json"

// Store is the durable record of which documents completed ingestion,
// independent of the vector index. Backed by a JSON file colocated with
// document storage; entries keep insertion order for listing.
type Store struct {
	mu      sync.RWMutex
	entries []docmodel.Document
	path    string
	logger  *logger_i.Logger
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}

	s := &Store{
		path:   filepath.Join(dir, catalogFileName),
		logger: logger_i.NewLogger("Catalog"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.logger.Info("Catalog loaded", "documents", len(s.entries), "path", s.path)
	return s, nil
}

// Add appends a completed document. Appending is the last step of
// ingestion, so a document never appears here half-ingested.
func (s *Store) Add(doc docmodel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, doc)
	return s.save()
}

func (s *Store) Get(id string) (docmodel.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.entries {
		if doc.Id == id {
			return doc, true
		}
	}
	return docmodel.Document{}, false
}

func (s *Store) List() []docmodel.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]docmodel.Document, len(s.entries))
	copy(out, s.entries)
	return out
}

// Remove deletes the entry for id, reporting whether it was present.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range s.entries {
		if doc.Id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true, s.save()
		}
	}
	return false, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading catalog: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decoding catalog: %w", err)
	}
	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return os.Rename(tmp, s.path)
}
