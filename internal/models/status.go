package models

import "strings"

// InterviewStatus is the canonical status set shared by the recruiter and job seeker views.
type InterviewStatus string

const (
	StatusScheduled   InterviewStatus = "scheduled"
	StatusConfirmed   InterviewStatus = "confirmed"
	StatusPending     InterviewStatus = "pending"
	StatusCompleted   InterviewStatus = "completed"
	StatusCancelled   InterviewStatus = "cancelled"
	StatusRescheduled InterviewStatus = "rescheduled"

	// StatusUnknown is a display bucket only; it is never stored.
	StatusUnknown InterviewStatus = "unknown"
)

// Statuses lists the storable statuses in display order.
var Statuses = []InterviewStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusPending,
	StatusCompleted,
	StatusCancelled,
	StatusRescheduled,
}

func (s InterviewStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// NormalizeStatus maps raw values from the API or older rows onto the canonical set.
// An empty value means the interview was never touched and reads as scheduled.
// Anything unrecognised becomes StatusUnknown.
func NormalizeStatus(raw string) InterviewStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return StatusScheduled
	case "canceled":
		return StatusCancelled
	case "done", "passed", "failed":
		// legacy "result" values written by the job seeker view
		return StatusCompleted
	}
	st := InterviewStatus(s)
	if st.Valid() {
		return st
	}
	return StatusUnknown
}

// SeekerSettable reports whether a job seeker may move an interview into s.
func SeekerSettable(s InterviewStatus) bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusRescheduled:
		return true
	}
	return false
}

type InterviewType string

const (
	TypeVideo    InterviewType = "video"
	TypePhone    InterviewType = "phone"
	TypeInPerson InterviewType = "in-person"
)

// NormalizeType falls back to video, the default used when scheduling.
func NormalizeType(raw string) InterviewType {
	switch t := InterviewType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeVideo, TypePhone, TypeInPerson:
		return t
	case "in_person", "inperson", "onsite":
		return TypeInPerson
	}
	return TypeVideo
}
