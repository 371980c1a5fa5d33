package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/cinema-showtime-scheduler/internal/model"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/queue"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/repository"
)

// memStore is an in-memory ShowtimeStore.  failWith, when set, is returned
// by every call; block makes calls wait for ctx to expire.
type memStore struct {
	mu       sync.Mutex
	nextID   uint64
	rows     map[uint64]model.Showtime
	order    []uint64
	failWith error
	block    bool
	calls    int
}

func newMemStore() *memStore {
	return &memStore{rows: map[uint64]model.Showtime{}}
}

func (m *memStore) enter(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	fail, block := m.failWith, m.block
	m.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return fail
}

func (m *memStore) Create(ctx context.Context, s *model.Showtime) error {
	if err := m.enter(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	s.ID, s.CreatedAt, s.UpdatedAt = m.nextID, now, now
	m.rows[s.ID] = *s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	return &s, nil
}

func (m *memStore) List(ctx context.Context) ([]model.Showtime, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Showtime{}
	for _, id := range m.order {
		if s, ok := m.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, s *model.Showtime) error {
	if err := m.enter(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[s.ID]
	if !ok {
		return repository.ErrShowtimeNotFound
	}
	s.CreatedAt = cur.CreatedAt
	s.UpdatedAt = time.Now().UTC().Add(time.Millisecond)
	m.rows[s.ID] = *s
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uint64) (*model.Showtime, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	delete(m.rows, id)
	return &s, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memMovies struct {
	movies   map[string]model.MovieSummary
	failWith error
	lookups  int
}

func (m *memMovies) ResolveMovie(_ context.Context, id string) (*model.MovieSummary, error) {
	m.lookups++
	if m.failWith != nil {
		return nil, m.failWith
	}
	mv, ok := m.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &mv, nil
}

type recordingPublisher struct {
	events []queue.ShowtimeEvent
	err    error
}

func (r *recordingPublisher) PublishShowtimeEvent(_ context.Context, ev queue.ShowtimeEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

// stalledPublisher blocks until its context ends, like a broker that
// accepts connections but never answers.
type stalledPublisher struct {
	hadDeadline bool
}

func (p *stalledPublisher) PublishShowtimeEvent(ctx context.Context, _ queue.ShowtimeEvent) error {
	_, p.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}
