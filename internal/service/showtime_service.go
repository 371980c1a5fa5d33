// Package service implements showtime scheduling: the validation gate in
// front of the store and the typed errors the HTTP layer translates.
package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cinema-showtime-scheduler/internal/model"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/queue"
	"github.com/iliyamo/cinema-showtime-scheduler/internal/repository"
)

// ShowtimeStore is the persistence the service needs.  Implementations
// return repository.ErrShowtimeNotFound for unknown ids.
type ShowtimeStore interface {
	Create(ctx context.Context, s *model.Showtime) error
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	List(ctx context.Context) ([]model.Showtime, error)
	Update(ctx context.Context, s *model.Showtime) error
	Delete(ctx context.Context, id uint64) (*model.Showtime, error)
}

// MovieResolver looks up catalog details for display.  It returns
// repository.ErrMovieNotFound when the id does not resolve.
type MovieResolver interface {
	ResolveMovie(ctx context.Context, id string) (*model.MovieSummary, error)
}

// EventPublisher receives a notice after each successful mutation.
// Failures are the publisher's to log; they never fail the operation.
type EventPublisher interface {
	PublishShowtimeEvent(ctx context.Context, ev queue.ShowtimeEvent) error
}

// CreateShowtimeInput carries the raw create request.  Tags name the
// request attributes so a failure can be attributed to a form field.
type CreateShowtimeInput struct {
	MovieID  string `field:"movie_id" validate:"required"`
	Theater  string `field:"theater_name" validate:"required"`
	Start    string `field:"start_date" validate:"required"`
	End      string `field:"end_date" validate:"required"`
	ShowDate string `field:"show_date" validate:"required"`
}

// DateRangePatch replaces both endpoints of a showtime's range.  Both must
// be supplied together.
type DateRangePatch struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// ShowtimePatch is a partial update.  Nil fields keep their stored value.
type ShowtimePatch struct {
	MovieID       *string         `json:"movie"`
	Theater       *string         `json:"theater"`
	ShowDateRange *DateRangePatch `json:"showDateRange"`
}

// Service owns showtime records.  It holds no mutable state of its own;
// callers may use it concurrently.
type Service struct {
	store   ShowtimeStore
	movies  MovieResolver
	events  EventPublisher
	timeout time.Duration
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithTimeout bounds every store interaction of an operation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithEvents publishes showtime.created/updated/deleted notices.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// NewShowtimeService wires the store and movie resolver.  It panics on nil
// dependencies since the service cannot run without them.
func NewShowtimeService(store ShowtimeStore, movies MovieResolver, opts ...Option) *Service {
	if store == nil || movies == nil {
		panic("nil dependency passed to NewShowtimeService")
	}
	s := &Service{store: store, movies: movies, timeout: 5 * time.Second, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ListShowtimes returns every showtime in insertion order, each joined
// with its movie.  Any store failure fails the whole listing.
func (s *Service) ListShowtimes(ctx context.Context) ([]model.ShowtimeView, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	list, err := s.store.List(ctx)
	if err != nil {
		return nil, storeErr(KindStoreUnavailable, err)
	}
	resolved := make(map[string]*model.MovieSummary, len(list))
	out := make([]model.ShowtimeView, 0, len(list))
	for _, st := range list {
		m, seen := resolved[st.MovieID]
		if !seen {
			if m, err = s.resolve(ctx, st.MovieID); err != nil {
				return nil, storeErr(KindStoreUnavailable, err)
			}
			resolved[st.MovieID] = m
		}
		out = append(out, model.NewShowtimeView(st, m))
	}
	return out, nil
}

// GetShowtime returns one showtime joined with its movie.
func (s *Service) GetShowtime(ctx context.Context, id uint64) (*model.ShowtimeView, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	st, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, notFoundErr(err)
		}
		return nil, storeErr(KindStoreUnavailable, err)
	}
	m, err := s.resolve(ctx, st.MovieID)
	if err != nil {
		return nil, storeErr(KindStoreUnavailable, err)
	}
	v := model.NewShowtimeView(*st, m)
	return &v, nil
}

// resolve maps a missing movie to nil rather than an error.
func (s *Service) resolve(ctx context.Context, movieID string) (*model.MovieSummary, error) {
	m, err := s.movies.ResolveMovie(ctx, movieID)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return nil, nil
	}
	return m, err
}

// CreateShowtime validates in.  Presence of every field is checked first,
// then start and end are parsed, then the show date, then the range order.
// Only a request passing all four checks reaches the store.
func (s *Service) CreateShowtime(ctx context.Context, in CreateShowtimeInput) (*model.Showtime, error) {
	in.MovieID = strings.TrimSpace(in.MovieID)
	in.Theater = strings.TrimSpace(in.Theater)
	in.Start = strings.TrimSpace(in.Start)
	in.End = strings.TrimSpace(in.End)
	in.ShowDate = strings.TrimSpace(in.ShowDate)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, validationErr(verrs[0].Field(), "missing field")
		}
		return nil, validationErr("", "missing field")
	}
	start, ok := ParseDateTime(in.Start)
	if !ok {
		return nil, validationErr("start_date", "invalid date format")
	}
	end, ok := ParseDateTime(in.End)
	if !ok {
		return nil, validationErr("end_date", "invalid date format")
	}
	if _, ok := ParseDateTime(in.ShowDate); !ok {
		return nil, validationErr("show_date", "invalid show date format")
	}
	dates := model.DateRange{Start: start, End: end}
	if !dates.Valid() {
		return nil, validationErr("end_date", "end before start")
	}

	st := &model.Showtime{
		MovieID:       in.MovieID,
		Theater:       in.Theater,
		ShowDateRange: dates,
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.Create(sctx, st); err != nil {
		return nil, storeErr(KindPersistence, err)
	}
	s.publish(ctx, queue.EventShowtimeCreated, st)
	return st, nil
}

// validatedPatch is a ShowtimePatch whose values have passed the gate.
type validatedPatch struct {
	movieID *string
	theater *string
	dates   *model.DateRange
}

func checkPatch(p ShowtimePatch) (validatedPatch, error) {
	var v validatedPatch
	if p.MovieID != nil {
		id := strings.TrimSpace(*p.MovieID)
		if id == "" {
			return v, validationErr("movie", "missing field")
		}
		v.movieID = &id
	}
	if p.Theater != nil {
		th := strings.TrimSpace(*p.Theater)
		if th == "" {
			return v, validationErr("theater", "missing field")
		}
		v.theater = &th
	}
	if r := p.ShowDateRange; r != nil {
		if r.Start == nil || r.End == nil || strings.TrimSpace(*r.Start) == "" || strings.TrimSpace(*r.End) == "" {
			return v, validationErr("showDateRange", "both start and end required")
		}
		start, ok := ParseDateTime(*r.Start)
		if !ok {
			return v, validationErr("showDateRange.start", "invalid date format")
		}
		end, ok := ParseDateTime(*r.End)
		if !ok {
			return v, validationErr("showDateRange.end", "invalid date format")
		}
		dates := model.DateRange{Start: start, End: end}
		if !dates.Valid() {
			return v, validationErr("showDateRange.end", "end before start")
		}
		v.dates = &dates
	}
	return v, nil
}

// UpdateShowtime applies a partial patch.  The patch is validated before
// the store is consulted, so a rejected patch never costs a round trip and
// never mutates anything.
func (s *Service) UpdateShowtime(ctx context.Context, id uint64, p ShowtimePatch) (*model.Showtime, error) {
	v, err := checkPatch(p)
	if err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	cur, err := s.store.GetByID(sctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, notFoundErr(err)
		}
		return nil, storeErr(KindPersistence, err)
	}

	next := *cur
	if v.movieID != nil {
		next.MovieID = *v.movieID
	}
	if v.theater != nil {
		next.Theater = *v.theater
	}
	if v.dates != nil {
		next.ShowDateRange = *v.dates
	}
	if err := s.store.Update(sctx, &next); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, notFoundErr(err)
		}
		return nil, storeErr(KindPersistence, err)
	}
	s.publish(ctx, queue.EventShowtimeUpdated, &next)
	return &next, nil
}

// DeleteShowtime removes a showtime and returns it as it was.  Deleting
// an id twice yields KindNotFound the second time.
func (s *Service) DeleteShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	st, err := s.store.Delete(sctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return nil, notFoundErr(err)
		}
		return nil, storeErr(KindPersistence, err)
	}
	s.publish(ctx, queue.EventShowtimeDeleted, st)
	return st, nil
}

// publish runs under the same deadline as a store call so an unresponsive
// broker cannot hold a request past it.
func (s *Service) publish(ctx context.Context, typ string, st *model.Showtime) {
	if s.events == nil {
		return
	}
	pctx, cancel := s.storeCtx(ctx)
	defer cancel()
	_ = s.events.PublishShowtimeEvent(pctx, queue.NewShowtimeEvent(typ, *st, s.now()))
}
