package properties

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

const (
	// TemplatesKey keeps custom templates as a JSON map name -> instructions
	TemplatesKey = "CUSTOM_TEMPLATES"
	// TrainingKey keeps training examples as a JSON list
	TrainingKey = "TRAINING_EXAMPLES"
	// ProjectKey keeps the generative model project id
	ProjectKey = "GCP_PROJECT_ID"
)

var (
	// ErrNotFound is returned when the key or the item does not exist
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for missing or wrong input
	ErrValidation = errors.New("validation failed")
)

// Store is a string key-value property store.
// Writers are not coordinated: read-modify-write callers can overwrite each other.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// MemStore keeps properties in process memory
type MemStore struct {
	lock sync.RWMutex
	data map[string]string
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{data: map[string]string{}}
}

func (s *MemStore) Get(ctx context.Context, key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	res, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return res, nil
}

func (s *MemStore) Set(ctx context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemStore) List(ctx context.Context) ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	res := make([]string, 0, len(s.data))
	for k := range s.data {
		res = append(res, k)
	}
	sort.Strings(res)
	return res, nil
}

func (s *MemStore) Delete(ctx context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.data, key)
	return nil
}
