package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/calendar"
	"github.com/justsurfingit/interview-scheduler/internal/dtos"
	"github.com/justsurfingit/interview-scheduler/internal/middleware"
	"github.com/justsurfingit/interview-scheduler/internal/models"
	"github.com/justsurfingit/interview-scheduler/internal/services"
)

// InterviewStore is the part of services.InterviewService the handlers use.
type InterviewStore interface {
	Schedule(ctx context.Context, v services.Viewer, req *dtos.ScheduleInterviewRequest) (*models.Interview, error)
	List(ctx context.Context, v services.Viewer) ([]models.Interview, error)
	Update(ctx context.Context, v services.Viewer, id uint, req *dtos.UpdateInterviewRequest) (*models.Interview, error)
	UpdateStatus(ctx context.Context, v services.Viewer, id uint, req *dtos.UpdateStatusRequest) (*models.Interview, error)
	Delete(ctx context.Context, v services.Viewer, id uint) error
	Events(ctx context.Context, v services.Viewer, id uint) ([]models.InterviewEvent, error)
	Stats(ctx context.Context) (*services.InterviewStats, error)
}

type ReminderSender interface {
	SendReminder(ctx context.Context, v services.Viewer, id uint, message string) error
}

type InterviewHandler struct {
	Interviews InterviewStore
	Reminders  ReminderSender
	Log        *zap.Logger
}

func NewInterviewHandler(store InterviewStore, reminders ReminderSender, log *zap.Logger) *InterviewHandler {
	return &InterviewHandler{Interviews: store, Reminders: reminders, Log: log}
}

// Schedule is POST /recruiter/interviews
func (h *InterviewHandler) Schedule(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	var req dtos.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	iv, err := h.Interviews.Schedule(c.Request.Context(), v, &req)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}
	h.Log.Info("interview scheduled", zap.Uint("interview_id", iv.ID), zap.Uint("recruiter_id", v.UserID))
	created(c, calendar.RecordFromInterview(*iv, v.Role))
}

// List is GET /{role}/interviews. It accepts the same search/status/type
// filters as the calendar.
func (h *InterviewHandler) List(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	var f calendar.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, "Invalid filter: "+err.Error())
		return
	}

	interviews, err := h.Interviews.List(c.Request.Context(), v)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, gin.H{"interviews": calendar.Apply(toRecords(interviews, v.Role), f.Predicate())})
}

// Update is PUT /recruiter/interviews/:interview_id
func (h *InterviewHandler) Update(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	id, okID := interviewID(c)
	if !okID {
		return
	}
	var req dtos.UpdateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	iv, err := h.Interviews.Update(c.Request.Context(), v, id, &req)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, calendar.RecordFromInterview(*iv, v.Role))
}

// UpdateStatus is PUT /jobseeker/interviews/:interview_id/status
func (h *InterviewHandler) UpdateStatus(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	id, okID := interviewID(c)
	if !okID {
		return
	}
	var req dtos.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	iv, err := h.Interviews.UpdateStatus(c.Request.Context(), v, id, &req)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, calendar.RecordFromInterview(*iv, v.Role))
}

// Delete is DELETE /recruiter/interviews/:interview_id
func (h *InterviewHandler) Delete(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	id, okID := interviewID(c)
	if !okID {
		return
	}
	if err := h.Interviews.Delete(c.Request.Context(), v, id); err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, gin.H{"message": "Interview deleted"})
}

// Events is GET /{role}/interviews/:interview_id/events
func (h *InterviewHandler) Events(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	id, okID := interviewID(c)
	if !okID {
		return
	}
	events, err := h.Interviews.Events(c.Request.Context(), v, id)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, gin.H{"events": events})
}

// SendReminder is POST /recruiter/interviews/:interview_id/reminder
func (h *InterviewHandler) SendReminder(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	id, okID := interviewID(c)
	if !okID {
		return
	}
	var req dtos.ReminderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	if err := h.Reminders.SendReminder(c.Request.Context(), v, id, req.Message); err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, gin.H{"message": "Reminder sent"})
}

// Stats is GET /admin/interviews/stats
func (h *InterviewHandler) Stats(c *gin.Context) {
	stats, err := h.Interviews.Stats(c.Request.Context())
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}
	ok(c, stats)
}

func toRecords(interviews []models.Interview, role models.Role) []calendar.Record {
	out := make([]calendar.Record, 0, len(interviews))
	for _, iv := range interviews {
		out = append(out, calendar.RecordFromInterview(iv, role))
	}
	return out
}

func viewer(c *gin.Context) (services.Viewer, bool) {
	v, found := middleware.ViewerFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	return v, found
}

func interviewID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("interview_id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid interview id")
		return 0, false
	}
	return uint(id), true
}
