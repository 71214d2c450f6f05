package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/interview-scheduler/internal/dtos"
	"github.com/justsurfingit/interview-scheduler/internal/models"
)

var (
	ErrInterviewNotFound   = errors.New("interview not found or access denied")
	ErrApplicationNotFound = errors.New("application not found or access denied")
	ErrForbidden           = errors.New("action not allowed for this role")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrNothingToUpdate     = errors.New("nothing to update")
)

// Viewer is the authenticated caller. Every query is scoped through it.
type Viewer struct {
	UserID uint
	Role   models.Role
}

type InterviewService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewInterviewService(db *gorm.DB) *InterviewService {
	return &InterviewService{DB: db, Now: time.Now}
}

// Schedule books an interview for one of the recruiter's applications and moves
// the application to under_review.
func (s *InterviewService) Schedule(ctx context.Context, v Viewer, req *dtos.ScheduleInterviewRequest) (*models.Interview, error) {
	if _, ok := v.Role.(models.Recruiter); !ok {
		return nil, ErrForbidden
	}

	var created models.Interview
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.Preload("Job").First(&app, req.ApplicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if app.Job.RecruiterID != v.UserID {
			return ErrApplicationNotFound
		}

		created = newInterview(app, v.UserID, req)
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create interview: %w", err)
		}
		if err := tx.Model(&app).Update("status", "under_review").Error; err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		return tx.Create(&models.InterviewEvent{
			InterviewID: created.ID,
			ActorID:     v.UserID,
			EventType:   models.EventScheduled,
			Details:     scheduleDetails(created.ScheduledAt),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, v, created.ID)
}

func newInterview(app models.Application, recruiterID uint, req *dtos.ScheduleInterviewRequest) models.Interview {
	iv := models.Interview{
		JobID:       app.JobID,
		SeekerID:    app.SeekerID,
		RecruiterID: recruiterID,
		ScheduledAt: req.ScheduleTime,
		Type:        models.NormalizeType(req.Type),
		Status:      models.StatusScheduled,
		Duration:    req.Duration,
		MeetingLink: strings.TrimSpace(req.MeetingLink),
		Location:    strings.TrimSpace(req.Location),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if iv.Duration <= 0 {
		iv.Duration = 60
	}
	return iv
}

// List returns the viewer's interviews, latest schedule first and TBD ones last.
func (s *InterviewService) List(ctx context.Context, v Viewer) ([]models.Interview, error) {
	var out []models.Interview
	err := s.withRelations(scope(s.DB.WithContext(ctx), v)).
		Order("interviews.scheduled_at DESC NULLS LAST").
		Order("interviews.created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return out, nil
}

func (s *InterviewService) Get(ctx context.Context, v Viewer, id uint) (*models.Interview, error) {
	var iv models.Interview
	err := s.withRelations(scope(s.DB.WithContext(ctx), v)).First(&iv, "interviews.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, err
	}
	return &iv, nil
}

// Update applies a recruiter's partial update. Absent fields are left alone.
func (s *InterviewService) Update(ctx context.Context, v Viewer, id uint, req *dtos.UpdateInterviewRequest) (*models.Interview, error) {
	if _, ok := v.Role.(models.Recruiter); !ok {
		return nil, ErrForbidden
	}
	if req.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Interview
		if err := scope(tx, v).First(&current, "interviews.id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInterviewNotFound
			}
			return err
		}

		if changes := updateChanges(req); len(changes) > 0 {
			if err := tx.Model(&current).Updates(changes).Error; err != nil {
				return fmt.Errorf("update interview: %w", err)
			}
		}

		if req.Outcome != nil {
			err := tx.Model(&models.Application{}).
				Where("id = (?)", tx.Model(&models.Application{}).Select("id").
					Where("seeker_id = ? AND job_id = ?", current.SeekerID, current.JobID).
					Order("created_at DESC").Limit(1)).
				Update("status", *req.Outcome).Error
			if err != nil {
				return fmt.Errorf("update application outcome: %w", err)
			}
		}

		eventType, details := describeUpdate(current, req)
		return tx.Create(&models.InterviewEvent{
			InterviewID: current.ID,
			ActorID:     v.UserID,
			EventType:   eventType,
			Details:     details,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, v, id)
}

func updateChanges(req *dtos.UpdateInterviewRequest) map[string]interface{} {
	changes := make(map[string]interface{})
	if req.Status != nil {
		changes["status"] = models.NormalizeStatus(*req.Status)
	}
	if req.ScheduleTime != nil {
		changes["scheduled_at"] = req.ScheduleTime.UTC()
	}
	if req.Type != nil {
		changes["type"] = models.NormalizeType(*req.Type)
	}
	if req.MeetingLink != nil {
		changes["meeting_link"] = strings.TrimSpace(*req.MeetingLink)
	}
	if req.Location != nil {
		changes["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Notes != nil {
		changes["notes"] = strings.TrimSpace(*req.Notes)
	}
	if req.Duration != nil {
		changes["duration"] = *req.Duration
	}
	return changes
}

// describeUpdate picks the most significant event for the history: a new time
// beats a status change, which beats any other edit.
func describeUpdate(before models.Interview, req *dtos.UpdateInterviewRequest) (string, string) {
	if req.ScheduleTime != nil {
		return models.EventRescheduled, fmt.Sprintf("%s -> %s",
			formatSchedule(before.ScheduledAt), req.ScheduleTime.UTC().Format(time.RFC3339))
	}
	if req.Status != nil {
		return models.EventStatusChange, fmt.Sprintf("%s -> %s",
			models.NormalizeStatus(string(before.Status)), models.NormalizeStatus(*req.Status))
	}
	var fields []string
	for name, set := range map[string]bool{
		"type":         req.Type != nil,
		"meeting_link": req.MeetingLink != nil,
		"location":     req.Location != nil,
		"notes":        req.Notes != nil,
		"duration":     req.Duration != nil,
		"outcome":      req.Outcome != nil,
	} {
		if set {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return models.EventUpdated, "changed: " + strings.Join(fields, ", ")
}

// UpdateStatus is the job seeker's response to an invitation.
func (s *InterviewService) UpdateStatus(ctx context.Context, v Viewer, id uint, req *dtos.UpdateStatusRequest) (*models.Interview, error) {
	if _, ok := v.Role.(models.JobSeeker); !ok {
		return nil, ErrForbidden
	}
	status := models.NormalizeStatus(req.Status)
	if !models.SeekerSettable(status) {
		return nil, fmt.Errorf("%w: job seekers may not set %q", ErrInvalidStatus, req.Status)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Interview
		if err := scope(tx, v).First(&current, "interviews.id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInterviewNotFound
			}
			return err
		}

		changes := map[string]interface{}{"status": status}
		if req.Notes != nil {
			changes["notes"] = strings.TrimSpace(*req.Notes)
		}
		if err := tx.Model(&current).Updates(changes).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return tx.Create(&models.InterviewEvent{
			InterviewID: current.ID,
			ActorID:     v.UserID,
			EventType:   models.EventStatusChange,
			Details:     fmt.Sprintf("%s -> %s", models.NormalizeStatus(string(current.Status)), status),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, v, id)
}

func (s *InterviewService) Delete(ctx context.Context, v Viewer, id uint) error {
	if _, ok := v.Role.(models.Recruiter); !ok {
		return ErrForbidden
	}
	res := scope(s.DB.WithContext(ctx), v).Delete(&models.Interview{}, "interviews.id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete interview: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInterviewNotFound
	}
	return nil
}

// Events returns the interview's history, oldest first.
func (s *InterviewService) Events(ctx context.Context, v Viewer, id uint) ([]models.InterviewEvent, error) {
	if _, err := s.Get(ctx, v, id); err != nil {
		return nil, err
	}
	var out []models.InterviewEvent
	err := s.DB.WithContext(ctx).Where("interview_id = ?", id).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

func (s *InterviewService) RecordEvent(ctx context.Context, ev *models.InterviewEvent) error {
	return s.DB.WithContext(ctx).Create(ev).Error
}

// DueForReminder lists live interviews starting in [from, to] that have not had
// a reminder yet.
func (s *InterviewService) DueForReminder(ctx context.Context, from, to time.Time) ([]models.Interview, error) {
	var out []models.Interview
	err := s.withRelations(s.DB.WithContext(ctx)).
		Where("interviews.scheduled_at BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Where("interviews.status IN ?", remindable).
		Where("NOT EXISTS (SELECT 1 FROM interview_events e WHERE e.interview_id = interviews.id AND e.event_type = ?)",
			models.EventReminderSent).
		Order("interviews.scheduled_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return out, nil
}

var remindable = []models.InterviewStatus{
	models.StatusScheduled,
	models.StatusConfirmed,
	models.StatusRescheduled,
}

// InterviewStats is the admin summary. ByStatus always has every canonical
// status plus the unknown bucket.
type InterviewStats struct {
	Total    int64                            `json:"total"`
	Upcoming int64                            `json:"upcoming"`
	ByStatus map[models.InterviewStatus]int64 `json:"by_status"`
}

type statusCount struct {
	Status string
	Count  int64
}

func (s *InterviewService) Stats(ctx context.Context) (*InterviewStats, error) {
	var rows []statusCount
	err := s.DB.WithContext(ctx).Model(&models.Interview{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	stats := tallyStatuses(rows)

	err = s.DB.WithContext(ctx).Model(&models.Interview{}).
		Where("scheduled_at > ?", s.Now().UTC()).
		Where("status IN ?", remindable).
		Count(&stats.Upcoming).Error
	if err != nil {
		return nil, fmt.Errorf("count upcoming: %w", err)
	}
	return stats, nil
}

func tallyStatuses(rows []statusCount) *InterviewStats {
	stats := &InterviewStats{ByStatus: make(map[models.InterviewStatus]int64, len(models.Statuses)+1)}
	for _, st := range models.Statuses {
		stats.ByStatus[st] = 0
	}
	stats.ByStatus[models.StatusUnknown] = 0
	for _, r := range rows {
		stats.ByStatus[models.NormalizeStatus(r.Status)] += r.Count
		stats.Total += r.Count
	}
	return stats
}

func (s *InterviewService) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Job.Company").Preload("Seeker").Preload("Recruiter")
}

// scope limits a query to the rows the viewer may see. Admins see everything;
// an unrecognised viewer sees nothing.
func scope(db *gorm.DB, v Viewer) *gorm.DB {
	switch v.Role.(type) {
	case models.Recruiter:
		return db.Where("interviews.recruiter_id = ?", v.UserID)
	case models.JobSeeker:
		return db.Where("interviews.seeker_id = ?", v.UserID)
	case models.Admin:
		return db
	}
	return db.Where("1 = 0")
}

func scheduleDetails(at *time.Time) string {
	return "scheduled for " + formatSchedule(at)
}

func formatSchedule(at *time.Time) string {
	if at == nil {
		return "TBD"
	}
	return at.UTC().Format(time.RFC3339)
}
