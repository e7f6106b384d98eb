package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"grab-a-time/internal/model"
)

const meetingCols = `handle, owner_id, guest_name, guest_email, note,
	start_time, start_offset, duration_minutes, status, last_updated, created_at`

func scanMeeting(row pgx.Row) (*model.Meeting, error) {
	m := &model.Meeting{}
	var offset int
	err := row.Scan(&m.Handle, &m.OwnerID, &m.GuestName, &m.GuestEmail, &m.Note,
		&m.StartTime, &offset, &m.Duration, &m.Status, &m.LastUpdated, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	// timestamptz drops the caller's offset; put it back
	m.StartTime = m.StartTime.In(time.FixedZone("", offset))
	return m, nil
}

// lockOwner serializes meeting writes per owner for the rest of tx.
func lockOwner(ctx context.Context, tx pgx.Tx, ownerID string) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM owners WHERE id = $1 FOR UPDATE`, ownerID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOwnerNotFound
	}
	return err
}

func hasOverlap(ctx context.Context, tx pgx.Tx, m *model.Meeting) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1 FROM meetings
		WHERE owner_id = $1
		  AND status = 'booked'
		  AND start_time < $3
		  AND end_time > $2
		  AND handle != $4)`,
		m.OwnerID, m.StartTime, m.EndTime(), m.Handle,
	).Scan(&exists)
	return exists, err
}

func (s *Store) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockOwner(ctx, tx, m.OwnerID); err != nil {
		return err
	}
	if dup, err := hasOverlap(ctx, tx, m); err != nil {
		return err
	} else if dup {
		return ErrSlotTaken
	}

	_, offset := m.StartTime.Zone()
	_, err = tx.Exec(ctx,
		`INSERT INTO meetings (handle, owner_id, guest_name, guest_email, note,
		   start_time, start_offset, duration_minutes, end_time, status, last_updated, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		m.Handle, m.OwnerID, m.GuestName, m.GuestEmail, m.Note,
		m.StartTime, offset, m.Duration, m.EndTime(), m.Status, m.LastUpdated, m.CreatedAt,
	)
	if isUniqueViolation(err, "meetings_pkey") {
		return ErrDuplicateHandle
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MeetingByHandle returns a booked meeting. Cancelled meetings are not found.
func (s *Store) MeetingByHandle(ctx context.Context, h string) (*model.Meeting, error) {
	m, err := scanMeeting(s.pool.QueryRow(ctx,
		`SELECT `+meetingCols+` FROM meetings WHERE handle = $1 AND status = 'booked'`, h))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *Store) ListMeetings(ctx context.Context, ownerID string, from, to time.Time) ([]model.Meeting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+meetingCols+`
		 FROM meetings
		 WHERE owner_id = $1
		   AND start_time >= $2 AND end_time <= $3
		   AND status = 'booked'
		 ORDER BY start_time`, ownerID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateMeeting re-reads the booked meeting h under its owner's lock, lets
// mutate change it and writes the result back. last_updated never moves
// backwards, whatever mutate sets it to.
func (s *Store) UpdateMeeting(ctx context.Context, h string, mutate func(*model.Meeting) error) (*model.Meeting, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ownerID string
	err = tx.QueryRow(ctx, `SELECT owner_id FROM meetings WHERE handle=$1 AND status='booked'`, h).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// owner before meeting, same order as CreateMeeting
	if err := lockOwner(ctx, tx, ownerID); err != nil {
		return nil, err
	}
	cur, err := scanMeeting(tx.QueryRow(ctx,
		`SELECT `+meetingCols+` FROM meetings WHERE handle=$1 AND status='booked' FOR UPDATE`, h))
	if errors.Is(err, pgx.ErrNoRows) {
		// cancelled while we waited for the lock
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m := *cur
	if err := mutate(&m); err != nil {
		return nil, err
	}
	m.Handle, m.OwnerID, m.Status, m.CreatedAt = cur.Handle, cur.OwnerID, cur.Status, cur.CreatedAt
	if m.LastUpdated.Before(cur.LastUpdated) {
		m.LastUpdated = cur.LastUpdated
	}

	if dup, err := hasOverlap(ctx, tx, &m); err != nil {
		return nil, err
	} else if dup {
		return nil, ErrSlotTaken
	}

	_, offset := m.StartTime.Zone()
	_, err = tx.Exec(ctx,
		`UPDATE meetings
		 SET guest_name=$1, guest_email=$2, note=$3, start_time=$4, start_offset=$5,
		     duration_minutes=$6, end_time=$7, last_updated=GREATEST(last_updated, $8)
		 WHERE handle=$9`,
		m.GuestName, m.GuestEmail, m.Note, m.StartTime, offset,
		m.Duration, m.EndTime(), m.LastUpdated, h,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CancelMeeting(ctx context.Context, h string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE meetings SET status='cancelled', last_updated=GREATEST(last_updated, $2)
		 WHERE handle=$1 AND status='booked'`, h, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
