package models

import (
	"fmt"
	"strings"
)

// Role is a closed set: JobSeeker, Recruiter or Admin. The unexported method keeps
// other packages from adding variants, so a type switch over the three is exhaustive.
type Role interface {
	role()
	// Name is the wire/storage form of the role.
	Name() string
}

type JobSeeker struct{}
type Recruiter struct{}
type Admin struct{}

func (JobSeeker) role() {}
func (Recruiter) role() {}
func (Admin) role()     {}

func (JobSeeker) Name() string { return "job_seeker" }
func (Recruiter) Name() string { return "recruiter" }
func (Admin) Name() string     { return "admin" }

// ParseRole accepts the stored role names. "jobseeker" is accepted because the
// registration form historically sent it.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job_seeker", "jobseeker":
		return JobSeeker{}, nil
	case "recruiter":
		return Recruiter{}, nil
	case "admin":
		return Admin{}, nil
	}
	return nil, fmt.Errorf("unknown role %q", s)
}

// RouteSegment returns the API path segment that serves the role's own views.
func RouteSegment(r Role) string {
	switch r.(type) {
	case JobSeeker:
		return "jobseeker"
	case Recruiter:
		return "recruiter"
	case Admin:
		return "admin"
	}
	panic(fmt.Sprintf("unhandled role %T", r))
}
