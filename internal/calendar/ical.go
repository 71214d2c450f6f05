package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/justsurfingit/interview-scheduler/internal/models"
)

const productID = "-//interview-scheduler//calendar export//EN"

// WriteICal encodes the scheduled records as VEVENTs. Unscheduled records are
// skipped, same as in the month grid. Times are written in UTC so that no
// TZID definitions are needed.
func WriteICal(w io.Writer, records []Record, name string, now time.Time) (int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	written := 0
	for _, r := range records {
		start, ok := r.ScheduledAt(time.UTC)
		if !ok {
			continue
		}
		duration := r.Duration
		if duration <= 0 {
			duration = 60
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("interview-%d@interview-scheduler", r.ID))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, start.UTC().Add(time.Duration(duration)*time.Minute))
		event.Props.SetText(ical.PropSummary, summary(r))
		event.Props.SetText(ical.PropStatus, icalStatus(r.Status))

		if loc := firstNonEmpty(r.Location, r.MeetingLink); loc != "" {
			event.Props.SetText(ical.PropLocation, loc)
		}
		if desc := description(r); desc != "" {
			event.Props.SetText(ical.PropDescription, desc)
		}
		cal.Children = append(cal.Children, event.Component)
		written++
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("encode calendar: %w", err)
	}
	return written, nil
}

func summary(r Record) string {
	if r.Name == "" {
		return "Interview: " + r.JobTitle
	}
	return fmt.Sprintf("Interview: %s - %s", r.JobTitle, r.Name)
}

func description(r Record) string {
	var parts []string
	if r.MeetingLink != "" {
		parts = append(parts, "Join: "+r.MeetingLink)
	}
	if r.Interviewer != "" {
		parts = append(parts, "Interviewer: "+r.Interviewer)
	}
	if r.Notes != "" {
		parts = append(parts, r.Notes)
	}
	return strings.Join(parts, "\n")
}

// RFC 5545 only knows TENTATIVE, CONFIRMED and CANCELLED for events.
func icalStatus(s models.InterviewStatus) string {
	switch displayStatus(s) {
	case models.StatusCancelled:
		return "CANCELLED"
	case models.StatusConfirmed, models.StatusCompleted:
		return "CONFIRMED"
	}
	return "TENTATIVE"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
