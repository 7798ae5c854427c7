package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/barekit/remedy/pkg/errs"
	"github.com/gofrs/flock"
)

const (
	indexFile    = "index.bin"
	metadataFile = "metadata.json"
	lockFile     = ".lock"
)

// metadata is the companion bundle persisted next to the serialized index.
// The two artifacts are only valid together.
type metadata struct {
	Model        string   `json:"model"`
	Dimension    int      `json:"dimension"`
	TotalVectors int      `json:"total_vectors"`
	Records      []Record `json:"records"`
}

// FileStore is the reference Store: a FlatIndex plus its parallel metadata
// list persisted as two companion files in one directory. Reads may run
// concurrently; appends take both an in-process write lock and a process-level
// file lock so concurrent self-healing writers cannot lose updates.
type FileStore struct {
	dir  string
	flk  *flock.Flock
	mu   sync.RWMutex
	idx  *FlatIndex
	meta metadata
}

// Open loads an existing store from dir. It returns a NotFound error when the
// store has never been initialized, and a hard error when only one of the two
// companion artifacts exists.
func Open(dir string) (*FileStore, error) {
	indexPath := filepath.Join(dir, indexFile)
	metaPath := filepath.Join(dir, metadataFile)

	_, idxErr := os.Stat(indexPath)
	_, metaErr := os.Stat(metaPath)
	switch {
	case os.IsNotExist(idxErr) && os.IsNotExist(metaErr):
		return nil, errs.NotFound("vector store not initialized at %s", dir)
	case os.IsNotExist(idxErr) || os.IsNotExist(metaErr):
		return nil, fmt.Errorf("vector store at %s is missing one of its companion artifacts (%s, %s)", dir, indexFile, metadataFile)
	}

	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	idx := &FlatIndex{}
	if err := idx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}

	rawMeta, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(rawMeta, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	if idx.Len() != len(meta.Records) {
		return nil, fmt.Errorf("vector store corrupt: index has %d vectors but metadata has %d records", idx.Len(), len(meta.Records))
	}

	return &FileStore{
		dir:  dir,
		flk:  flock.New(filepath.Join(dir, lockFile)),
		idx:  idx,
		meta: meta,
	}, nil
}

// Create builds a new store from an initial batch and persists it. records
// and vectors must be parallel; ordinal position i in the index resolves to
// records[i] forever after.
func Create(dir, model string, records []Record, vectors [][]float32) (*FileStore, error) {
	if len(records) != len(vectors) {
		return nil, fmt.Errorf("records and vectors length mismatch: %d != %d", len(records), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cannot create vector store from empty batch")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	idx, err := Build(vectors)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		dir: dir,
		flk: flock.New(filepath.Join(dir, lockFile)),
		idx: idx,
		meta: metadata{
			Model:        model,
			Dimension:    idx.Dimension(),
			TotalVectors: idx.Len(),
			Records:      append([]Record(nil), records...),
		},
	}

	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire store lock: %w", err)
	}
	defer s.flk.Unlock()

	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// Model returns the embedding-model identifier the store was built with.
func (s *FileStore) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Model
}

// Dimension returns the vector dimensionality.
func (s *FileStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Dimension
}

// Count returns the number of stored records.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Len(), nil
}

// Record returns the metadata record at the given ordinal position.
func (s *FileStore) Record(position int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.meta.Records) {
		return Record{}, errs.NotFound("no record at position %d", position)
	}
	return s.meta.Records[position], nil
}

// Search returns up to k matches for the query vector, ascending distance.
func (s *FileStore) Search(_ context.Context, query []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.idx.Search(query, k)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = Match{
			Record:     s.meta.Records[h.Position],
			Position:   h.Position,
			Distance:   h.Distance,
			Similarity: Similarity(h.Distance),
		}
	}
	return matches, nil
}

// Append adds one record and its vector, then persists both artifacts. The
// index append and the metadata append succeed or roll back together: on a
// persistence failure the in-memory pair is restored to the prior persisted
// state before the error is returned.
func (s *FileStore) Append(_ context.Context, rec Record, vector []float32) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}
	defer s.flk.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.idx.Len()
	if err := s.idx.Append(vector); err != nil {
		return err
	}
	s.meta.Records = append(s.meta.Records, rec)
	s.meta.TotalVectors = s.idx.Len()

	if err := s.save(); err != nil {
		s.idx.vecs = s.idx.vecs[:prior]
		s.meta.Records = s.meta.Records[:prior]
		s.meta.TotalVectors = prior
		return err
	}
	return nil
}

// save persists both artifacts as a pair. Both temporary files are staged
// before either rename, so a staging failure leaves the previously persisted
// pair untouched. If the metadata rename fails after the index rename, the
// prior index bytes are restored so the pair on disk stays consistent.
func (s *FileStore) save() error {
	rawIdx, err := s.idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	rawMeta, err := json.Marshal(s.meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	indexPath := filepath.Join(s.dir, indexFile)
	metaPath := filepath.Join(s.dir, metadataFile)
	idxTmp := indexPath + ".tmp"
	metaTmp := metaPath + ".tmp"

	if err := os.WriteFile(idxTmp, rawIdx, 0o644); err != nil {
		return fmt.Errorf("failed to stage index: %w", err)
	}
	if err := os.WriteFile(metaTmp, rawMeta, 0o644); err != nil {
		os.Remove(idxTmp)
		return fmt.Errorf("failed to stage metadata: %w", err)
	}

	priorIdx, priorErr := os.ReadFile(indexPath)

	if err := os.Rename(idxTmp, indexPath); err != nil {
		os.Remove(idxTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("failed to persist index: %w", err)
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(metaTmp)
		if priorErr == nil {
			os.WriteFile(indexPath, priorIdx, 0o644)
		} else {
			os.Remove(indexPath)
		}
		return fmt.Errorf("failed to persist metadata: %w", err)
	}
	return nil
}
