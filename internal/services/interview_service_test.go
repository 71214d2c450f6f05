package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/justsurfingit/interview-scheduler/internal/dtos"
	"github.com/justsurfingit/interview-scheduler/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestNewInterviewDefaults(t *testing.T) {
	app := models.Application{ID: 7, JobID: 3, SeekerID: 11}

	iv := newInterview(app, 5, &dtos.ScheduleInterviewRequest{ApplicationID: 7, Notes: "  bring laptop "})
	assert.Equal(t, uint(3), iv.JobID)
	assert.Equal(t, uint(11), iv.SeekerID)
	assert.Equal(t, uint(5), iv.RecruiterID)
	assert.Equal(t, models.TypeVideo, iv.Type)
	assert.Equal(t, models.StatusScheduled, iv.Status)
	assert.Equal(t, 60, iv.Duration)
	assert.Equal(t, "bring laptop", iv.Notes)
	assert.Nil(t, iv.ScheduledAt)

	at := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	iv = newInterview(app, 5, &dtos.ScheduleInterviewRequest{ScheduleTime: &at, Type: "phone", Duration: 30})
	assert.Equal(t, models.TypePhone, iv.Type)
	assert.Equal(t, 30, iv.Duration)
	assert.Equal(t, &at, iv.ScheduledAt)
}

func TestUpdateChangesOnlyTouchesSetFields(t *testing.T) {
	at := time.Date(2025, 7, 15, 10, 0, 0, 0, time.FixedZone("x", 2*3600))
	changes := updateChanges(&dtos.UpdateInterviewRequest{
		Status:       ptr("canceled"),
		ScheduleTime: &at,
		Notes:        ptr(" moved "),
	})

	assert.Equal(t, map[string]interface{}{
		"status":       models.StatusCancelled,
		"scheduled_at": at.UTC(),
		"notes":        "moved",
	}, changes)

	assert.Empty(t, updateChanges(&dtos.UpdateInterviewRequest{Outcome: ptr("hired")}))
}

func TestDescribeUpdate(t *testing.T) {
	old := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	before := models.Interview{Status: models.StatusScheduled, ScheduledAt: &old}
	next := old.Add(24 * time.Hour)

	tests := []struct {
		name    string
		req     dtos.UpdateInterviewRequest
		event   string
		details string
	}{
		{"reschedule wins", dtos.UpdateInterviewRequest{ScheduleTime: &next, Status: ptr("rescheduled")},
			models.EventRescheduled, "2025-07-15T10:00:00Z -> 2025-07-16T10:00:00Z"},
		{"status", dtos.UpdateInterviewRequest{Status: ptr("completed")},
			models.EventStatusChange, "scheduled -> completed"},
		{"other fields", dtos.UpdateInterviewRequest{Location: ptr("HQ"), Duration: ptr(30)},
			models.EventUpdated, "changed: duration, location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, details := describeUpdate(before, &tt.req)
			assert.Equal(t, tt.event, event)
			assert.Equal(t, tt.details, details)
		})
	}

	event, details := describeUpdate(models.Interview{}, &dtos.UpdateInterviewRequest{ScheduleTime: &next})
	assert.Equal(t, models.EventRescheduled, event)
	assert.Equal(t, "TBD -> 2025-07-16T10:00:00Z", details)
}

func TestTallyStatuses(t *testing.T) {
	stats := tallyStatuses([]statusCount{
		{Status: "scheduled", Count: 3},
		{Status: "", Count: 1},
		{Status: "canceled", Count: 2},
		{Status: "ghosted", Count: 4},
	})

	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(4), stats.ByStatus[models.StatusScheduled])
	assert.Equal(t, int64(2), stats.ByStatus[models.StatusCancelled])
	assert.Equal(t, int64(4), stats.ByStatus[models.StatusUnknown])
	assert.Equal(t, int64(0), stats.ByStatus[models.StatusPending])
	assert.Len(t, stats.ByStatus, len(models.Statuses)+1)
}

func TestMutationsRejectWrongRole(t *testing.T) {
	s := &InterviewService{}
	seeker := Viewer{UserID: 1, Role: models.JobSeeker{}}
	recruiter := Viewer{UserID: 2, Role: models.Recruiter{}}

	_, err := s.Schedule(context.Background(), seeker, &dtos.ScheduleInterviewRequest{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Update(context.Background(), seeker, 1, &dtos.UpdateInterviewRequest{Notes: ptr("x")})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, s.Delete(context.Background(), Viewer{Role: models.Admin{}}, 1), ErrForbidden)

	_, err = s.UpdateStatus(context.Background(), recruiter, 1, &dtos.UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Update(context.Background(), recruiter, 1, &dtos.UpdateInterviewRequest{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)
}

func TestUpdateStatusRejectsRecruiterOnlyStatuses(t *testing.T) {
	s := &InterviewService{}
	seeker := Viewer{UserID: 1, Role: models.JobSeeker{}}

	for _, st := range []string{"completed", "pending", "scheduled"} {
		_, err := s.UpdateStatus(context.Background(), seeker, 1, &dtos.UpdateStatusRequest{Status: st})
		assert.ErrorIs(t, err, ErrInvalidStatus, st)
	}
}
