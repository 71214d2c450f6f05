package calendar

import (
	"strings"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

// Style is the render hint for a status badge.
type Style struct {
	Status models.InterviewStatus `json:"status"`
	Label  string                 `json:"label"`
	Color  string                 `json:"color"`
	Icon   string                 `json:"icon"`
}

var statusStyles = map[models.InterviewStatus]Style{
	models.StatusScheduled:   {models.StatusScheduled, "Scheduled", "blue", "calendar"},
	models.StatusConfirmed:   {models.StatusConfirmed, "Confirmed", "green", "check-circle"},
	models.StatusPending:     {models.StatusPending, "Pending", "yellow", "clock"},
	models.StatusCompleted:   {models.StatusCompleted, "Completed", "purple", "check-circle"},
	models.StatusCancelled:   {models.StatusCancelled, "Cancelled", "red", "x-circle"},
	models.StatusRescheduled: {models.StatusRescheduled, "Rescheduled", "orange", "alert-triangle"},
}

var unknownStyle = Style{models.StatusUnknown, "Unknown", "gray", "help-circle"}

// StyleFor never fails: a missing status or anything outside the canonical set
// gets the unknown bucket. Filters use the same reading through displayStatus.
func StyleFor(status models.InterviewStatus) Style {
	if st, ok := statusStyles[displayStatus(status)]; ok {
		return st
	}
	return unknownStyle
}

// displayStatus is how the calendar reads a record's status. Rows coming from
// the backend are normalized at ingest and never blank, so a blank status here
// is data the viewer cannot place and shows as unknown.
func displayStatus(status models.InterviewStatus) models.InterviewStatus {
	if strings.TrimSpace(string(status)) == "" {
		return models.StatusUnknown
	}
	return models.NormalizeStatus(string(status))
}

// TypeIcon maps the meeting type to an icon name, defaulting to video.
func TypeIcon(t models.InterviewType) string {
	switch models.NormalizeType(string(t)) {
	case models.TypePhone:
		return "phone"
	case models.TypeInPerson:
		return "map-pin"
	}
	return "video"
}
