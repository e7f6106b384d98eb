package model_test

import (
	"errors"
	"testing"
	"time"

	"grab-a-time/internal/handle"
	"grab-a-time/internal/model"
)

var now = time.Date(2025, 12, 18, 23, 45, 12, 0, time.FixedZone("", -5*3600))

func validInput() model.MeetingInput {
	return model.MeetingInput{
		GuestName:  "Joe Random",
		GuestEmail: "joe@ran.dom",
		Note:       "Hard-coded.",
		StartTime:  "2025-12-19 12:34:00-05",
		Duration:   30,
	}
}

func TestNewMeeting(t *testing.T) {
	h := handle.Encode(12345)
	m, err := model.NewMeeting(validInput(), h, "owner-1", now)
	if err != nil {
		t.Fatalf("new meeting: %v", err)
	}
	if m.Handle != h || m.OwnerID != "owner-1" {
		t.Errorf("ids: %q %q", m.Handle, m.OwnerID)
	}
	if m.Status != model.StatusBooked {
		t.Errorf("status: %s", m.Status)
	}
	if _, off := m.StartTime.Zone(); off != -5*3600 {
		t.Errorf("offset: got %d", off)
	}
	if !m.EndTime().Equal(m.StartTime.Add(30 * time.Minute)) {
		t.Errorf("end time: %v", m.EndTime())
	}
	if !m.LastUpdated.Equal(now) {
		t.Errorf("last updated: %v", m.LastUpdated)
	}
}

func TestNewMeetingZeroDuration(t *testing.T) {
	in := validInput()
	in.Duration = 0
	_, err := model.NewMeeting(in, handle.Encode(100), "o", now)
	if !errors.Is(err, model.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestNewMeetingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.MeetingInput)
		handle string
		want   error
	}{
		{"negative duration", func(in *model.MeetingInput) { in.Duration = -15 }, handle.Encode(100), model.ErrInvalidDuration},
		{"bad email", func(in *model.MeetingInput) { in.GuestEmail = "joe at ran.dom" }, handle.Encode(100), model.ErrInvalidField},
		{"empty email", func(in *model.MeetingInput) { in.GuestEmail = "" }, handle.Encode(100), model.ErrInvalidField},
		{"no offset", func(in *model.MeetingInput) { in.StartTime = "2025-12-19T12:34:00" }, handle.Encode(100), model.ErrInvalidTimestamp},
		{"garbage time", func(in *model.MeetingInput) { in.StartTime = "tomorrow at noon" }, handle.Encode(100), model.ErrInvalidTimestamp},
		{"bad handle", func(in *model.MeetingInput) {}, "not valid!!", handle.ErrInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := model.NewMeeting(in, tt.handle, "o", now)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		offset int
	}{
		{"2025-12-19T12:34:00Z", 0},
		{"2025-12-19T12:34:00.250+02:00", 2 * 3600},
		{"2025-12-19 12:34:00-05:00", -5 * 3600},
		{"2025-12-19 12:34:00-05", -5 * 3600},
		{"2025-12-19T12:34:00+0530", 5*3600 + 1800},
		{"2025-12-19T12:34+01:00", 3600},
	}
	for _, tt := range tests {
		ts, err := model.ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if _, off := ts.Zone(); off != tt.offset {
			t.Errorf("ParseTimestamp(%q) offset = %d, want %d", tt.in, off, tt.offset)
		}
	}

	for _, bad := range []string{"", "2025-12-19", "2025-12-19 12:34:00", "12:34:00-05"} {
		if _, err := model.ParseTimestamp(bad); !errors.Is(err, model.ErrInvalidTimestamp) {
			t.Errorf("ParseTimestamp(%q) = %v, want ErrInvalidTimestamp", bad, err)
		}
	}
}

func TestInfoWireFields(t *testing.T) {
	m, err := model.NewMeeting(validInput(), handle.Encode(100), "o", now)
	if err != nil {
		t.Fatalf("new meeting: %v", err)
	}
	info := m.Info()
	if info.StartTime != "2025-12-19T12:34:00-05:00" {
		t.Errorf("start_time = %q", info.StartTime)
	}
	if info.Duration != 30 || info.Handle != "AAAAAAAAAGQ" {
		t.Errorf("info = %+v", info)
	}

	back, err := model.ParseMeetingInfo(info)
	if err != nil {
		t.Fatalf("parse info: %v", err)
	}
	if !back.StartTime.Equal(m.StartTime) || back.GuestEmail != m.GuestEmail {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestParseMeetingInfoRejects(t *testing.T) {
	m, _ := model.NewMeeting(validInput(), handle.Encode(100), "o", now)

	info := m.Info()
	info.LastUpdated = "yesterday"
	if _, err := model.ParseMeetingInfo(info); !errors.Is(err, model.ErrInvalidTimestamp) {
		t.Errorf("bad last_updated: got %v", err)
	}

	info = m.Info()
	info.Handle = "AAAA"
	if _, err := model.ParseMeetingInfo(info); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("bad handle: got %v", err)
	}
}
