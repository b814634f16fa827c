package patients

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// MemoryRepository holds patients in memory. Lookups are exact; patient
// identifiers are case-sensitive in the repository even though pedigree links
// are matched case-insensitively.
type MemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]Patient
}

// NewMemoryRepository creates a repository holding the given patients.
func NewMemoryRepository(patients ...Patient) *MemoryRepository {
	r := &MemoryRepository{patients: make(map[string]Patient, len(patients))}
	for _, p := range patients {
		r.patients[p.ID] = p
	}
	return r
}

// LoadFile reads a JSON array of patients. A missing file yields an empty
// repository.
func LoadFile(path string) (*MemoryRepository, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewMemoryRepository(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read patients file")
	}

	var list []Patient
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse patients file %s", path)
	}
	return NewMemoryRepository(list...), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Patient, error) {
	if err := errors.ValidateRecordID("patient", id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, errors.New(errors.ErrCodePatientNotFound, "patient %s not found", id)
	}
	return &p, nil
}

// Put adds or replaces a patient.
func (r *MemoryRepository) Put(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

// All returns every patient sorted by id.
func (r *MemoryRepository) All() []Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ Repository = (*MemoryRepository)(nil)
