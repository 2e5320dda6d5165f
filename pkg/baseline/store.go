package baseline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/voicelens/voicelens/pkg/features"
)

// ErrNotFound is returned when a user has no stored baseline.
var ErrNotFound = errors.New("baseline: not found")

// Store persists per-user baselines. The screening engine receives a
// Store rather than keeping process-global state, so the surrounding
// system decides where baselines live.
type Store interface {
	// Get retrieves a user's baseline. Returns ErrNotFound when the
	// user has never calibrated.
	Get(ctx context.Context, userID string) (*Baseline, error)

	// Save stores a user's baseline, overwriting any previous record.
	Save(ctx context.Context, userID string, b *Baseline) error

	// Delete removes a user's baseline. No error if absent.
	Delete(ctx context.Context, userID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Record is the serialized baseline form: a language-agnostic structure
// callers can also read directly from the backing store.
type Record struct {
	MinSamples   int                  `json:"min_samples" msgpack:"min_samples"`
	MaxSamples   int                  `json:"max_samples" msgpack:"max_samples"`
	SamplesUsed  int                  `json:"samples_used" msgpack:"samples_used"`
	SchemaVer    int                  `json:"schema_version" msgpack:"schema_version"`
	Samples      []map[string]float64 `json:"samples" msgpack:"samples"`
	FeatureMeans map[string]float64   `json:"feature_means" msgpack:"feature_means"`
	FeatureStds  map[string]float64   `json:"feature_stds" msgpack:"feature_stds"`
	CalibratedAt time.Time            `json:"calibrated_at" msgpack:"calibrated_at"`
}

// ToRecord converts a baseline to its serialized form.
func (b *Baseline) ToRecord() *Record {
	r := &Record{
		MinSamples:   b.MinSamples,
		MaxSamples:   b.MaxSamples,
		SamplesUsed:  len(b.Samples),
		SchemaVer:    features.SchemaVersion,
		FeatureMeans: b.Means,
		FeatureStds:  b.Stds,
		CalibratedAt: b.CalibratedAt,
	}
	for _, s := range b.Samples {
		r.Samples = append(r.Samples, s.ToMap())
	}
	return r
}

// FromRecord reconstructs a baseline from its serialized form.
func FromRecord(r *Record) *Baseline {
	b := New(r.MinSamples, r.MaxSamples)
	b.Means = r.FeatureMeans
	b.Stds = r.FeatureStds
	b.CalibratedAt = r.CalibratedAt
	for _, m := range r.Samples {
		b.Samples = append(b.Samples, features.FromMap(m))
	}
	return b
}

// MemoryStore is an in-memory Store, safe for concurrent use. Intended
// for tests and single-process deployments without persistence.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*Record)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Baseline, error) {
	m.mu.RLock()
	r, ok := m.data[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return FromRecord(r), nil
}

func (m *MemoryStore) Save(_ context.Context, userID string, b *Baseline) error {
	r := b.ToRecord()
	m.mu.Lock()
	m.data[userID] = r
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.data, userID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
