// Package allocator provides the application service that runs allocator
// operations against persisted state.
package allocator

import (
	"context"
	"errors"
	"fmt"

	"github.com/elliotchance/pie/v2"
	"go.uber.org/zap"

	"github.com/eykd/mintdraw/internal/domain"
	"github.com/eykd/mintdraw/internal/random"
	"github.com/eykd/mintdraw/internal/slug"
)

// ErrInvalidCount is returned when DrawN is asked for fewer than one draw.
var ErrInvalidCount = errors.New("count must be at least 1")

// Store abstracts allocator persistence.
type Store interface {
	Create(ctx context.Context, name string, capacity uint64) error
	Load(ctx context.Context, name string) (*domain.AllocatorState, error)
	Commit(ctx context.Context, name string, drawn uint64, d domain.Draw) error
	List(ctx context.Context) ([]domain.Summary, error)
}

// Locker abstracts advisory lock acquisition for mutating operations.
type Locker interface {
	TryLock(ctx context.Context) error
	Unlock() error
}

// Seeder supplies fresh entropy for each draw.
type Seeder interface {
	Seed(ctx context.Context) ([]byte, error)
}

// Status describes an allocator at a point in time.
type Status struct {
	Name      string `json:"name" yaml:"name"`
	Key       string `json:"key" yaml:"key"`
	Capacity  uint64 `json:"capacity" yaml:"capacity"`
	Drawn     uint64 `json:"drawn" yaml:"drawn"`
	Remaining uint64 `json:"remaining" yaml:"remaining"`
	Overrides int    `json:"overrides" yaml:"overrides"`
	Exhausted bool   `json:"exhausted" yaml:"exhausted"`
}

// Override is one entry of the sparse override map.
type Override struct {
	Position uint64 `json:"position" yaml:"position"`
	ID       uint64 `json:"id" yaml:"id"`
}

// Snapshot is the full state of an allocator, overrides sorted by position.
type Snapshot struct {
	Status    `yaml:",inline"`
	Overrides []Override `json:"override_map" yaml:"override_map"`
}

// AllocatorService coordinates draws with locking, entropy and persistence.
type AllocatorService struct {
	store   Store
	locker  Locker
	seeder  Seeder
	sources random.Factory
	log     *zap.Logger
	metrics *Metrics
}

// ServiceOption configures optional AllocatorService dependencies.
type ServiceOption func(*AllocatorService)

// WithLogger sets the logger used for draw records.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *AllocatorService) { s.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *AllocatorService) { s.metrics = m }
}

// WithSourceFactory replaces the ChaCha8 source factory.
func WithSourceFactory(f random.Factory) ServiceOption {
	return func(s *AllocatorService) { s.sources = f }
}

// NewAllocatorService creates an AllocatorService with the given dependencies.
func NewAllocatorService(st Store, locker Locker, seeder Seeder, opts ...ServiceOption) *AllocatorService {
	s := &AllocatorService{
		store:   st,
		locker:  locker,
		seeder:  seeder,
		sources: random.NewFactory(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the named allocator over [0, capacity).
func (s *AllocatorService) Init(ctx context.Context, name string, capacity uint64) (*Status, error) {
	if err := s.locker.TryLock(ctx); err != nil {
		return nil, err
	}
	defer s.locker.Unlock()

	if err := s.store.Create(ctx, name, capacity); err != nil {
		return nil, err
	}
	key, _ := slug.Key(name)
	s.log.Debug("allocator created",
		zap.String("allocator", key),
		zap.Uint64("capacity", capacity),
	)
	s.metrics.observeRemaining(key, capacity)

	return &Status{Name: name, Key: key, Capacity: capacity, Remaining: capacity, Exhausted: capacity == 0}, nil
}

// Draw draws one identifier from the named allocator.
func (s *AllocatorService) Draw(ctx context.Context, name string) (uint64, error) {
	ids, err := s.DrawN(ctx, name, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// DrawN performs count independent draws under a single lock. Each draw gets
// its own seed and is committed before the next begins. On error the ids
// already committed are returned alongside it.
func (s *AllocatorService) DrawN(ctx context.Context, name string, count int) ([]uint64, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	key, err := slug.Key(name)
	if err != nil {
		return nil, err
	}

	if err := s.locker.TryLock(ctx); err != nil {
		return nil, err
	}
	defer s.locker.Unlock()

	// count may exceed the ids left; ids grows with the draws made.
	var ids []uint64
	for i := 0; i < count; i++ {
		id, err := s.drawOnce(ctx, name, key)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *AllocatorService) drawOnce(ctx context.Context, name, key string) (uint64, error) {
	state, err := s.store.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	if state.Exhausted() {
		s.metrics.observeExhausted(key)
		s.log.Warn("draw rejected", zap.String("allocator", key), zap.Error(domain.ErrExhausted))
		return 0, fmt.Errorf("%s: %w", key, domain.ErrExhausted)
	}

	seed, err := s.seeder.Seed(ctx)
	if err != nil {
		return 0, fmt.Errorf("seeding draw: %w", err)
	}

	d, err := state.Draw(s.sources(seed))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if err := s.store.Commit(ctx, name, state.Drawn, d); err != nil {
		return 0, err
	}

	s.metrics.observeDraw(key, state.Window())
	s.log.Info(fmt.Sprintf("Token id: %d", d.ID),
		zap.String("allocator", key),
		zap.Uint64("id", d.ID),
		zap.Uint64("drawn", state.Drawn),
	)
	return d.ID, nil
}

// Status reports the current state of the named allocator.
func (s *AllocatorService) Status(ctx context.Context, name string) (*Status, error) {
	state, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	key, _ := slug.Key(name)
	st := newStatus(name, key, state)
	s.metrics.observeRemaining(key, st.Remaining)
	return st, nil
}

// List reports every stored allocator, sorted by key.
func (s *AllocatorService) List(ctx context.Context) ([]Status, error) {
	summaries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, len(summaries))
	for i, sum := range summaries {
		out[i] = Status{
			Name:      sum.Name,
			Key:       sum.Key,
			Capacity:  sum.Capacity,
			Drawn:     sum.Drawn,
			Remaining: sum.Capacity - sum.Drawn,
			Overrides: sum.Overrides,
			Exhausted: sum.Drawn >= sum.Capacity,
		}
	}
	return out, nil
}

// Snapshot returns the full state of the named allocator.
func (s *AllocatorService) Snapshot(ctx context.Context, name string) (*Snapshot, error) {
	state, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	key, _ := slug.Key(name)

	snap := &Snapshot{
		Status:    *newStatus(name, key, state),
		Overrides: make([]Override, 0, len(state.Overrides)),
	}
	for _, pos := range pie.Sort(pie.Keys(state.Overrides)) {
		snap.Overrides = append(snap.Overrides, Override{Position: pos, ID: state.Overrides[pos]})
	}
	return snap, nil
}

func newStatus(name, key string, state *domain.AllocatorState) *Status {
	return &Status{
		Name:      name,
		Key:       key,
		Capacity:  state.Capacity,
		Drawn:     state.Drawn,
		Remaining: state.Window(),
		Overrides: len(state.Overrides),
		Exhausted: state.Exhausted(),
	}
}
