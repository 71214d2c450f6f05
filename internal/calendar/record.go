// Package calendar turns flat interview lists into month grids, day lists and
// iCalendar feeds. Everything here is pure: no I/O, no shared state.
package calendar

import (
	"strings"
	"time"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

// Record is one interview as seen by a viewer. Name holds the counterpart: the
// candidate for recruiters, the company for job seekers.
type Record struct {
	ID          int64                  `json:"id"`
	Schedule    string                 `json:"schedule"`
	Name        string                 `json:"name"`
	JobTitle    string                 `json:"job_title"`
	Company     string                 `json:"company"`
	Interviewer string                 `json:"interviewer"`
	Status      models.InterviewStatus `json:"status"`
	Type        models.InterviewType   `json:"type"`
	Duration    int                    `json:"duration"`
	MeetingLink string                 `json:"meeting_link,omitempty"`
	Location    string                 `json:"location,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
}

// ScheduledAt returns the interview time in loc, or false when the schedule is
// missing or unparseable.
func (r Record) ScheduledAt(loc *time.Location) (time.Time, bool) {
	return ParseSchedule(r.Schedule, loc)
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
}

// Zone-less values are wall-clock times of the viewer.
var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseSchedule parses an ISO-ish schedule string. Placeholders such as "TBD"
// and empty values report false rather than an error.
func ParseSchedule(raw string, loc *time.Location) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateKey is the YYYY-MM-DD form of t's own calendar fields. Callers convert t
// into the viewer's location first; the key is never derived from UTC.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// RecordFromInterview flattens a stored interview for the given viewer role.
func RecordFromInterview(iv models.Interview, viewer models.Role) Record {
	rec := Record{
		ID:          int64(iv.ID),
		JobTitle:    iv.Job.Title,
		Company:     iv.Job.Company.Name,
		Status:      models.NormalizeStatus(string(iv.Status)),
		Type:        models.NormalizeType(string(iv.Type)),
		Duration:    iv.Duration,
		MeetingLink: iv.MeetingLink,
		Location:    iv.Location,
		Notes:       iv.Notes,
	}
	if iv.ScheduledAt != nil {
		rec.Schedule = iv.ScheduledAt.UTC().Format(time.RFC3339)
	}
	if rec.Duration <= 0 {
		rec.Duration = 60
	}

	switch viewer.(type) {
	case models.JobSeeker:
		rec.Name = orDefault(iv.Job.Company.Name, "Unknown Company")
		rec.Interviewer = orDefault(iv.Recruiter.Name, "TBD")
	case models.Recruiter:
		rec.Name = iv.Seeker.Name
		rec.Interviewer = orDefault(iv.Recruiter.Name, "Recruiter")
	case models.Admin:
		rec.Name = iv.Seeker.Name
		rec.Interviewer = iv.Recruiter.Name
	}
	if rec.JobTitle == "" {
		rec.JobTitle = "Interview"
	}
	return rec
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
