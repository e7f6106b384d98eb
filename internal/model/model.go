package model

import "time"

type Owner struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

// Meeting is one booking with an owner. The handle is its only external id.
type Meeting struct {
	Handle      string    `json:"handle"`
	OwnerID     string    `json:"owner_id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	Note        string    `json:"note"`
	StartTime   time.Time `json:"start_time"`
	Duration    int       `json:"duration"` // minutes
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Meeting) EndTime() time.Time {
	return m.StartTime.Add(time.Duration(m.Duration) * time.Minute)
}

// MeetingInfo is the wire shape of a meeting.
type MeetingInfo struct {
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	Note        string `json:"note"`
	StartTime   string `json:"start_time"`
	Duration    int    `json:"duration"`
	LastUpdated string `json:"last_updated"`
	Handle      string `json:"handle"`
}

func (m *Meeting) Info() MeetingInfo {
	return MeetingInfo{
		GuestName:   m.GuestName,
		GuestEmail:  m.GuestEmail,
		Note:        m.Note,
		StartTime:   m.StartTime.Format(time.RFC3339),
		Duration:    m.Duration,
		LastUpdated: m.LastUpdated.Format(time.RFC3339),
		Handle:      m.Handle,
	}
}
