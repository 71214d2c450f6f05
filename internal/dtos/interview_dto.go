package dtos

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

type ScheduleInterviewRequest struct {
	ApplicationID uint       `json:"application_id" binding:"required"`
	ScheduleTime  *time.Time `json:"schedule_time"`

	// Optional fields; type defaults to video, duration to 60 minutes.
	Type        string `json:"type" binding:"omitempty,interview_type"`
	MeetingLink string `json:"meeting_link" binding:"omitempty,url"`
	Location    string `json:"location" binding:"max=255"`
	Notes       string `json:"notes" binding:"max=2000"`
	Duration    int    `json:"duration" binding:"omitempty,min=5,max=480"`
}

// UpdateInterviewRequest is a partial update: nil fields keep their stored value.
type UpdateInterviewRequest struct {
	Status       *string    `json:"status" binding:"omitempty,interview_status"`
	ScheduleTime *time.Time `json:"schedule_time"`
	Type         *string    `json:"type" binding:"omitempty,interview_type"`
	MeetingLink  *string    `json:"meeting_link" binding:"omitempty,max=500"`
	Location     *string    `json:"location" binding:"omitempty,max=255"`
	Notes        *string    `json:"notes" binding:"omitempty,max=2000"`
	Duration     *int       `json:"duration" binding:"omitempty,min=5,max=480"`

	// Outcome moves the candidate's application along.
	Outcome *string `json:"outcome" binding:"omitempty,oneof=under_review shortlisted rejected hired"`
}

func (r UpdateInterviewRequest) IsEmpty() bool {
	return r.Status == nil && r.ScheduleTime == nil && r.Type == nil && r.MeetingLink == nil &&
		r.Location == nil && r.Notes == nil && r.Duration == nil && r.Outcome == nil
}

type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required,interview_status"`
	Notes  *string `json:"notes" binding:"omitempty,max=2000"`
}

type ReminderRequest struct {
	Message string `json:"message" binding:"max=1000"`
}

// RegisterValidators adds the interview_status and interview_type tags. Call it
// once with gin's validator engine before serving.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("interview_status", func(fl validator.FieldLevel) bool {
		return models.InterviewStatus(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("interview_type", func(fl validator.FieldLevel) bool {
		switch models.InterviewType(fl.Field().String()) {
		case models.TypeVideo, models.TypePhone, models.TypeInPerson:
			return true
		}
		return false
	})
}
