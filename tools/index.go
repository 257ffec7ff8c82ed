package tools

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/docindex/mcp-server/internal/indexing"
)

// Index abstracts the bleve operations the tools need, so tests can use mocks
type Index interface {
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

// NewBleveIndexWrapper adapts a bleve.Index to Index
func NewBleveIndexWrapper(index bleve.Index) Index {
	return &bleveIndexWrapper{index: index}
}

type bleveIndexWrapper struct {
	index bleve.Index
}

func (w *bleveIndexWrapper) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveIndexWrapper) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndexWrapper) Close() error {
	return w.index.Close()
}

// docState is one immutable generation of loaded documentation.
// A refresh builds a new docState and swaps the pointer; nothing in it is mutated afterwards.
type docState struct {
	catalog  *indexing.Catalog
	fulltext Index // nil when the full-text index could not be built
	warnings []indexing.Warning
	source   string // "local", "embedded" or "download"
	loadedAt time.Time

	// refs counts requests using this state; a retired state closes its index when refs drops to zero
	refs      atomic.Int64
	retired   atomic.Bool
	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

func newDocState(catalog *indexing.Catalog, fulltext Index, warnings []indexing.Warning, source string) *docState {
	return &docState{
		catalog:  catalog,
		fulltext: fulltext,
		warnings: warnings,
		source:   source,
		loadedAt: time.Now(),
		closed:   make(chan struct{}),
	}
}

// acquire pins the state for one request. It fails once the state is retired.
func (s *docState) acquire() bool {
	s.refs.Add(1)
	if s.retired.Load() {
		s.release()
		return false
	}
	return true
}

// release unpins the state, closing the index if this was the last request on a retired state
func (s *docState) release() {
	if s.refs.Add(-1) == 0 && s.retired.Load() {
		s.close()
	}
}

// retire stops new requests on the state; its index closes once in-flight requests release it
func (s *docState) retire() {
	s.retired.Store(true)
	if s.refs.Load() == 0 {
		s.close()
	}
}

func (s *docState) close() {
	s.closeOnce.Do(func() {
		defer close(s.closed)
		if s.fulltext == nil {
			return
		}

		s.closeErr = s.fulltext.Close()
		if s.closeErr != nil {
			log.Printf("Warning: Error closing index: %v", s.closeErr)
		} else {
			log.Printf("✓ Index closed (%s payload loaded %s)", s.source, s.loadedAt.Format(time.RFC3339))
		}
	})
}

// wait blocks until a retired state's index is closed and returns the close error
func (s *docState) wait() error {
	<-s.closed
	return s.closeErr
}
