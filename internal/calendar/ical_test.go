package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

func TestWriteICal(t *testing.T) {
	records := []Record{
		{ID: 1, Schedule: "2025-07-15T17:00:00Z", Name: "Ada", JobTitle: "Backend Engineer", Interviewer: "Rita",
			Status: models.StatusConfirmed, Duration: 45, MeetingLink: "https://meet.example.com/abc"},
		{ID: 2, Schedule: "2025-07-16T09:00:00Z", Name: "Alan", JobTitle: "SRE", Status: "canceled", Location: "HQ, Room 4"},
		{ID: 3, Schedule: "", Name: "Grace", JobTitle: "Go Developer"},
	}
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	n, err := WriteICal(&buf, records, "My interviews", now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	var events []*ical.Component
	for _, c := range cal.Children {
		if c.Name == ical.CompEvent {
			events = append(events, c)
		}
	}
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "interview-1@interview-scheduler", first.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "Interview: Backend Engineer - Ada", first.Props.Get(ical.PropSummary).Value)
	assert.Equal(t, "CONFIRMED", first.Props.Get(ical.PropStatus).Value)
	assert.Equal(t, "https://meet.example.com/abc", first.Props.Get(ical.PropLocation).Value)

	start, err := first.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	end, err := first.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2025, 7, 15, 17, 0, 0, 0, time.UTC)))
	assert.Equal(t, 45*time.Minute, end.Sub(start))

	second := events[1]
	assert.Equal(t, "CANCELLED", second.Props.Get(ical.PropStatus).Value)
	assert.Equal(t, "HQ, Room 4", mustText(t, second, ical.PropLocation))
	secondStart, err := second.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	secondEnd, err := second.Props.DateTime(ical.PropDateTimeEnd, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, secondEnd.Sub(secondStart))
}

func TestICalStatus(t *testing.T) {
	assert.Equal(t, "TENTATIVE", icalStatus(models.StatusScheduled))
	assert.Equal(t, "TENTATIVE", icalStatus(""))
	assert.Equal(t, "TENTATIVE", icalStatus(models.StatusRescheduled))
	assert.Equal(t, "CONFIRMED", icalStatus(models.StatusCompleted))
	assert.Equal(t, "CANCELLED", icalStatus(models.StatusCancelled))
}

func mustText(t *testing.T, c *ical.Component, name string) string {
	t.Helper()
	v, err := c.Props.Text(name)
	require.NoError(t, err)
	return v
}
