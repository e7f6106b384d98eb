package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"grab-a-time/internal/handle"
)

var (
	ErrInvalidField     = errors.New("invalid field")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidDuration  = errors.New("invalid duration")
)

var validate = validator.New()

// accepted ISO-8601 forms; every one of them carries an offset
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// ParseTimestamp parses an ISO-8601 timestamp with an explicit UTC offset.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not ISO-8601 with an offset", ErrInvalidTimestamp, s)
}

func ValidateEmail(s string) error {
	if err := validate.Var(s, "required,email"); err != nil {
		return fmt.Errorf("%w: guest_email %q is not an email address", ErrInvalidField, s)
	}
	return nil
}

func ValidateDuration(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: %d minutes, must be positive", ErrInvalidDuration, minutes)
	}
	return nil
}

// MeetingInput is what a guest supplies when booking.
type MeetingInput struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	Note       string `json:"note"`
	StartTime  string `json:"start_time"`
	Duration   int    `json:"duration"`
}

// NewMeeting validates in and builds a booked meeting stamped with now.
func NewMeeting(in MeetingInput, h, ownerID string, now time.Time) (*Meeting, error) {
	if err := ValidateEmail(in.GuestEmail); err != nil {
		return nil, err
	}
	start, err := ParseTimestamp(in.StartTime)
	if err != nil {
		return nil, err
	}
	if err := ValidateDuration(in.Duration); err != nil {
		return nil, err
	}
	if _, err := handle.Parse(h); err != nil {
		return nil, err
	}
	return &Meeting{
		Handle:      h,
		OwnerID:     ownerID,
		GuestName:   in.GuestName,
		GuestEmail:  in.GuestEmail,
		Note:        in.Note,
		StartTime:   start,
		Duration:    in.Duration,
		LastUpdated: now,
		Status:      StatusBooked,
		CreatedAt:   now,
	}, nil
}

// ParseMeetingInfo validates a meeting received over the wire.
func ParseMeetingInfo(info MeetingInfo) (*Meeting, error) {
	if _, err := handle.Parse(info.Handle); err != nil {
		return nil, err
	}
	if err := ValidateEmail(info.GuestEmail); err != nil {
		return nil, err
	}
	start, err := ParseTimestamp(info.StartTime)
	if err != nil {
		return nil, err
	}
	updated, err := ParseTimestamp(info.LastUpdated)
	if err != nil {
		return nil, err
	}
	if err := ValidateDuration(info.Duration); err != nil {
		return nil, err
	}
	return &Meeting{
		Handle:      info.Handle,
		GuestName:   info.GuestName,
		GuestEmail:  info.GuestEmail,
		Note:        info.Note,
		StartTime:   start,
		Duration:    info.Duration,
		LastUpdated: updated,
		Status:      StatusBooked,
	}, nil
}
