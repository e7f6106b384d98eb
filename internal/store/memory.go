package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"grab-a-time/internal/model"
)

// Memory keeps everything in process memory. It follows the same contract as
// Store and is used when no database is configured.
type Memory struct {
	mu       sync.Mutex
	owners   map[string]model.Owner
	byEmail  map[string]string
	meetings map[string]model.Meeting
	tokens   map[string]RefreshToken // by hash
}

func NewMemory() *Memory {
	return &Memory{
		owners:   make(map[string]model.Owner),
		byEmail:  make(map[string]string),
		meetings: make(map[string]model.Meeting),
		tokens:   make(map[string]RefreshToken),
	}
}

func (s *Memory) CreateOwner(_ context.Context, o *model.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[o.Email]; ok {
		return ErrDuplicateEmail
	}
	now := time.Now()
	cp := *o
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.owners[o.ID] = cp
	s.byEmail[o.Email] = o.ID
	return nil
}

func (s *Memory) OwnerByEmail(_ context.Context, email string) (*model.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrOwnerNotFound
	}
	o := s.owners[id]
	return &o, nil
}

func (s *Memory) OwnerByID(_ context.Context, id string) (*model.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		return nil, ErrOwnerNotFound
	}
	return &o, nil
}

// overlaps must be called with mu held.
func (s *Memory) overlaps(m *model.Meeting) bool {
	start, end := m.StartTime, m.EndTime()
	for h, other := range s.meetings {
		if h == m.Handle || other.OwnerID != m.OwnerID || other.Status != model.StatusBooked {
			continue
		}
		if other.StartTime.Before(end) && other.EndTime().After(start) {
			return true
		}
	}
	return false
}

func (s *Memory) CreateMeeting(_ context.Context, m *model.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[m.OwnerID]; !ok {
		return ErrOwnerNotFound
	}
	if s.overlaps(m) {
		return ErrSlotTaken
	}
	// cancelled handles stay reserved
	if _, ok := s.meetings[m.Handle]; ok {
		return ErrDuplicateHandle
	}
	s.meetings[m.Handle] = *m
	return nil
}

func (s *Memory) MeetingByHandle(_ context.Context, h string) (*model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[h]
	if !ok || m.Status != model.StatusBooked {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *Memory) ListMeetings(_ context.Context, ownerID string, from, to time.Time) ([]model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Meeting
	for _, m := range s.meetings {
		if m.OwnerID != ownerID || m.Status != model.StatusBooked {
			continue
		}
		if m.StartTime.Before(from) || m.EndTime().After(to) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Memory) UpdateMeeting(_ context.Context, h string, mutate func(*model.Meeting) error) (*model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.meetings[h]
	if !ok || cur.Status != model.StatusBooked {
		return nil, ErrNotFound
	}
	upd := cur
	if err := mutate(&upd); err != nil {
		return nil, err
	}
	upd.Handle, upd.OwnerID, upd.Status, upd.CreatedAt = cur.Handle, cur.OwnerID, cur.Status, cur.CreatedAt
	if upd.LastUpdated.Before(cur.LastUpdated) {
		upd.LastUpdated = cur.LastUpdated
	}
	if s.overlaps(&upd) {
		return nil, ErrSlotTaken
	}
	s.meetings[h] = upd
	out := upd
	return &out, nil
}

func (s *Memory) CancelMeeting(_ context.Context, h string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[h]
	if !ok || m.Status != model.StatusBooked {
		return ErrNotFound
	}
	m.Status = model.StatusCancelled
	if at.After(m.LastUpdated) {
		m.LastUpdated = at
	}
	s.meetings[h] = m
	return nil
}

func (s *Memory) CreateRefreshToken(_ context.Context, id, ownerID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = RefreshToken{
		ID: id, OwnerID: ownerID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}
	return nil
}

func (s *Memory) RefreshTokenByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.tokens[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &rt, nil
}

func (s *Memory) RotateRefreshToken(_ context.Context, oldID, newID, ownerID, newHash string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, rt := range s.tokens {
		if rt.ID != oldID {
			continue
		}
		if rt.Revoked {
			return ErrNotFound
		}
		rt.Revoked = true
		rt.ReplacedBy = &newID
		s.tokens[hash] = rt
		s.tokens[newHash] = RefreshToken{
			ID: newID, OwnerID: ownerID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: time.Now(),
		}
		return nil
	}
	return ErrNotFound
}

func (s *Memory) RevokeAllRefreshTokens(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, rt := range s.tokens {
		if rt.OwnerID == ownerID && !rt.Revoked {
			rt.Revoked = true
			s.tokens[hash] = rt
		}
	}
	return nil
}
