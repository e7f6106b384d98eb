// Package booking owns meeting records: guests book, view, edit and cancel
// through a handle, owners list and cancel their own meetings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"grab-a-time/internal/cache"
	"grab-a-time/internal/handle"
	"grab-a-time/internal/metrics"
	"grab-a-time/internal/model"
	"grab-a-time/internal/store"
)

var (
	ErrInPast          = errors.New("cannot book in the past")
	ErrHandleExhausted = errors.New("could not allocate a unique handle")
)

const (
	maxHandleAttempts = 5
	pastGrace         = 5 * time.Minute
)

// Repository is the meeting storage the service needs.
type Repository interface {
	OwnerByID(ctx context.Context, id string) (*model.Owner, error)
	CreateMeeting(ctx context.Context, m *model.Meeting) error
	MeetingByHandle(ctx context.Context, h string) (*model.Meeting, error)
	ListMeetings(ctx context.Context, ownerID string, from, to time.Time) ([]model.Meeting, error)
	// UpdateMeeting runs mutate on the stored meeting while holding whatever
	// lock keeps concurrent writers out, then saves the result.
	UpdateMeeting(ctx context.Context, h string, mutate func(*model.Meeting) error) (*model.Meeting, error)
	CancelMeeting(ctx context.Context, h string, at time.Time) error
}

// Cache is an optional read-through cache keyed by handle. Every Delete
// bumps the handle's version, and Fill stores m only while the version is
// still ver, so a read that raced a write cannot repopulate stale data.
type Cache interface {
	Get(ctx context.Context, h string) (*model.Meeting, error)
	Version(ctx context.Context, h string) (int64, error)
	Fill(ctx context.Context, m *model.Meeting, ver int64) error
	Delete(ctx context.Context, h string) error
}

type Service struct {
	repo  Repository
	cache Cache
	gen   *handle.Generator
	log   *zap.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithGenerator replaces the crypto-backed handle generator.
func WithGenerator(g *handle.Generator) Option { return func(s *Service) { s.gen = g } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(repo Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		gen:  handle.NewGenerator(nil),
		log:  log,
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Book validates in and stores a new meeting with ownerID under a fresh handle.
func (s *Service) Book(ctx context.Context, ownerID string, in model.MeetingInput) (*model.Meeting, error) {
	now := s.now()
	// owner first: an unknown owner is a 404 whatever the input looks like
	if _, err := s.repo.OwnerByID(ctx, ownerID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		m, err := model.NewMeeting(in, s.gen.Generate(), ownerID, now)
		if err != nil {
			metrics.IncBookingRejected("invalid")
			return nil, err
		}
		if m.StartTime.Before(now.Add(-pastGrace)) {
			metrics.IncBookingRejected("past")
			return nil, ErrInPast
		}

		err = s.repo.CreateMeeting(ctx, m)
		switch {
		case err == nil:
			metrics.IncMeetingBooked()
			s.log.Info("meeting booked",
				zap.String("handle", m.Handle),
				zap.String("owner", ownerID),
				zap.Time("start", m.StartTime),
				zap.Int("duration", m.Duration))
			return m, nil
		case errors.Is(err, store.ErrDuplicateHandle):
			metrics.IncHandleCollision()
			s.log.Warn("handle collision, retrying", zap.String("handle", m.Handle), zap.Int("attempt", attempt))
		case errors.Is(err, store.ErrSlotTaken):
			metrics.IncBookingRejected("conflict")
			return nil, err
		default:
			return nil, fmt.Errorf("create meeting: %w", err)
		}
	}
	return nil, ErrHandleExhausted
}

// Get looks a meeting up by a caller-supplied handle.
func (s *Service) Get(ctx context.Context, h string) (*model.Meeting, error) {
	if _, err := handle.Parse(h); err != nil {
		return nil, err
	}
	fill := false
	var ver int64
	if s.cache != nil {
		m, err := s.cache.Get(ctx, h)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("meeting cache read failed", zap.String("handle", h), zap.Error(err))
		}
		// version is taken before the read so a write in between is noticed
		if ver, err = s.cache.Version(ctx, h); err != nil {
			s.log.Warn("meeting cache version failed", zap.String("handle", h), zap.Error(err))
		} else {
			fill = true
		}
	}

	m, err := s.repo.MeetingByHandle(ctx, h)
	if err != nil {
		return nil, err
	}
	if fill {
		err := s.cache.Fill(ctx, m, ver)
		switch {
		case errors.Is(err, cache.ErrStale):
			s.log.Debug("meeting changed during read, not cached", zap.String("handle", h))
		case err != nil:
			s.log.Warn("meeting cache write failed", zap.String("handle", h), zap.Error(err))
		}
	}
	return m, nil
}

// MeetingPatch carries the fields an edit changes; nil fields are kept.
type MeetingPatch struct {
	GuestName  *string `json:"guest_name"`
	GuestEmail *string `json:"guest_email"`
	Note       *string `json:"note"`
	StartTime  *string `json:"start_time"`
	Duration   *int    `json:"duration"`
}

func (p MeetingPatch) apply(m *model.Meeting) error {
	if p.GuestName != nil {
		m.GuestName = *p.GuestName
	}
	if p.GuestEmail != nil {
		if err := model.ValidateEmail(*p.GuestEmail); err != nil {
			return err
		}
		m.GuestEmail = *p.GuestEmail
	}
	if p.Note != nil {
		m.Note = *p.Note
	}
	if p.StartTime != nil {
		start, err := model.ParseTimestamp(*p.StartTime)
		if err != nil {
			return err
		}
		m.StartTime = start
	}
	if p.Duration != nil {
		if err := model.ValidateDuration(*p.Duration); err != nil {
			return err
		}
		m.Duration = *p.Duration
	}
	return nil
}

// Edit applies p to the meeting behind h. The patch is applied to the row as
// it stands under the store's lock, so concurrent edits do not overwrite each
// other. LastUpdated never moves backwards.
func (s *Service) Edit(ctx context.Context, h string, p MeetingPatch) (*model.Meeting, error) {
	if _, err := handle.Parse(h); err != nil {
		return nil, err
	}
	m, err := s.repo.UpdateMeeting(ctx, h, func(m *model.Meeting) error {
		if err := p.apply(m); err != nil {
			metrics.IncBookingRejected("invalid")
			return err
		}
		now := s.now()
		if p.StartTime != nil && m.StartTime.Before(now.Add(-pastGrace)) {
			metrics.IncBookingRejected("past")
			return ErrInPast
		}
		if now.After(m.LastUpdated) {
			m.LastUpdated = now
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			metrics.IncBookingRejected("conflict")
		}
		return nil, err
	}
	s.invalidate(ctx, h)
	metrics.IncMeetingEdited()
	s.log.Info("meeting edited", zap.String("handle", h))
	return m, nil
}

// Cancel cancels the meeting behind h on behalf of its guest.
func (s *Service) Cancel(ctx context.Context, h string) error {
	if _, err := handle.Parse(h); err != nil {
		return err
	}
	return s.cancel(ctx, h, "guest")
}

// CancelForOwner cancels h only if it belongs to ownerID. Other owners'
// meetings look missing.
func (s *Service) CancelForOwner(ctx context.Context, ownerID, h string) error {
	if _, err := s.GetForOwner(ctx, ownerID, h); err != nil {
		return err
	}
	return s.cancel(ctx, h, "owner")
}

func (s *Service) cancel(ctx context.Context, h, by string) error {
	if err := s.repo.CancelMeeting(ctx, h, s.now()); err != nil {
		return err
	}
	s.invalidate(ctx, h)
	metrics.IncMeetingCancelled(by)
	s.log.Info("meeting cancelled", zap.String("handle", h), zap.String("by", by))
	return nil
}

// GetForOwner is Get restricted to meetings owned by ownerID.
func (s *Service) GetForOwner(ctx context.Context, ownerID, h string) (*model.Meeting, error) {
	m, err := s.Get(ctx, h)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return m, nil
}

// ListForOwner returns ownerID's booked meetings inside [from, to]. Zero
// bounds default to 30 days back and 2 months ahead.
func (s *Service) ListForOwner(ctx context.Context, ownerID string, from, to time.Time) ([]model.Meeting, error) {
	now := s.now()
	if from.IsZero() {
		from = now.AddDate(0, 0, -30)
	}
	if to.IsZero() {
		to = now.AddDate(0, 2, 0)
	}
	return s.repo.ListMeetings(ctx, ownerID, from, to)
}

func (s *Service) invalidate(ctx context.Context, h string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, h); err != nil {
		s.log.Warn("meeting cache invalidate failed", zap.String("handle", h), zap.Error(err))
	}
}
