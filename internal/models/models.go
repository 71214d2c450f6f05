package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	// Stored as the wire name ("job_seeker", "recruiter", "admin"); use ParseRole to get a Role.
	Role string `gorm:"not null;index" json:"role"`
}

type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"uniqueIndex;not null" json:"company_name"`

	// 'omitempty' prevents infinite loops when fetching a Job -> Company -> Jobs -> ...
	Jobs []Job `json:"jobs,omitempty"`
}

type Job struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID uint    `json:"company_id"`
	Company   Company `json:"company"`

	// Recruiter who operates the posting.
	RecruiterID uint `gorm:"index" json:"recruiter_id"`

	Title  string `gorm:"not null" json:"title"`
	Status string `gorm:"default:'OPEN'" json:"status"`
}

type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JobID    uint `gorm:"index;not null" json:"job_id"`
	Job      Job  `json:"job"`
	SeekerID uint `gorm:"index;not null" json:"seeker_id"`
	Seeker   User `json:"seeker"`

	Status string `gorm:"default:'applied'" json:"status"`
}

// Interview is a scheduled (or to-be-scheduled) meeting between a recruiter and a job seeker.
// ScheduledAt is nil while the slot is still TBD.
type Interview struct {
	ID        uint      `gorm:"primaryKey" json:"interview_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JobID       uint `gorm:"index;not null" json:"job_id"`
	Job         Job  `json:"job"`
	SeekerID    uint `gorm:"index;not null" json:"seeker_id"`
	Seeker      User `json:"seeker"`
	RecruiterID uint `gorm:"index;not null" json:"recruiter_id"`
	Recruiter   User `json:"recruiter"`

	ScheduledAt *time.Time      `gorm:"index" json:"schedule"`
	Type        InterviewType   `gorm:"default:'video'" json:"type"`
	Status      InterviewStatus `gorm:"default:'scheduled'" json:"status"`
	Duration    int             `gorm:"default:60" json:"duration"`
	MeetingLink string          `json:"meeting_link"`
	Location    string          `json:"location"`
	Notes       string          `gorm:"type:text" json:"notes"`
}

// InterviewEvent is the append-only history of an interview (status changes, reschedules, reminders).
type InterviewEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	InterviewID uint      `gorm:"index" json:"interview_id"`
	ActorID     uint      `json:"actor_id"`
	EventType   string    `json:"event_type"`
	Details     string    `gorm:"type:text" json:"details"`
}

const (
	EventScheduled     = "SCHEDULED"
	EventStatusChange  = "STATUS_CHANGE"
	EventRescheduled   = "RESCHEDULED"
	EventUpdated       = "UPDATED"
	EventReminderSent  = "REMINDER_SENT"
	EventReminderError = "REMINDER_FAILED"
)
