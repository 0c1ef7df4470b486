package api

import (
	"slices"
	"sync"
	"time"

	"github.com/samcharles93/flowkit/internal/document"
)

// DefaultStoreLimit is the number of documents kept when no limit is given.
const DefaultStoreLimit = 256

// DocumentStore keeps decoded documents in memory. Once full, the oldest
// document is evicted.
type DocumentStore struct {
	mu    sync.Mutex
	limit int
	docs  map[string]*StoredDocument
	order []string
	newID func() string
}

func NewDocumentStore(limit int) *DocumentStore {
	if limit <= 0 {
		limit = DefaultStoreLimit
	}
	return &DocumentStore{
		limit: limit,
		docs:  make(map[string]*StoredDocument),
		newID: newDocumentID,
	}
}

// Create stores doc under a fresh id.
func (s *DocumentStore) Create(doc *document.Document, now time.Time) StoredDocument {
	rec := &StoredDocument{
		ID:        s.newID(),
		CreatedAt: now.Unix(),
		Document:  *doc,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.limit {
		delete(s.docs, s.order[0])
		s.order = s.order[1:]
	}
	s.docs[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return *rec
}

func (s *DocumentStore) Get(id string) (StoredDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return StoredDocument{}, false
	}
	return *rec, true
}

func (s *DocumentStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

func (s *DocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
