package calendar

import (
	"strings"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

// Predicate decides whether a record is visible under the active filters.
type Predicate func(Record) bool

// All accepts every record.
func All(Record) bool { return true }

// Filter is the search box plus the status and type dropdowns. Empty or "all"
// disables a dropdown.
type Filter struct {
	Search string `form:"search" json:"search"`
	Status string `form:"status" json:"status"`
	Type   string `form:"type" json:"type"`
}

// Predicate builds the matcher shared by the list and calendar views.
func (f Filter) Predicate() Predicate {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	status, byStatus := dropdown(f.Status)
	typ, byType := dropdown(f.Type)

	var wantStatus models.InterviewStatus
	if byStatus {
		wantStatus = displayStatus(models.InterviewStatus(status))
	}
	var wantType models.InterviewType
	if byType {
		wantType = models.NormalizeType(typ)
	}

	return func(r Record) bool {
		if term != "" && !matchesSearch(r, term) {
			return false
		}
		if byStatus && displayStatus(r.Status) != wantStatus {
			return false
		}
		if byType && models.NormalizeType(string(r.Type)) != wantType {
			return false
		}
		return true
	}
}

// IsActive reports whether any filter narrows the result.
func (f Filter) IsActive() bool {
	_, s := dropdown(f.Status)
	_, t := dropdown(f.Type)
	return strings.TrimSpace(f.Search) != "" || s || t
}

// Apply returns the records accepted by p, in input order. Unscheduled records
// are kept; only the calendar drops them.
func Apply(records []Record, p Predicate) []Record {
	if p == nil {
		p = All
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchesSearch(r Record, term string) bool {
	for _, field := range []string{r.Name, r.JobTitle, r.Company, r.Interviewer} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func dropdown(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return "", false
	}
	return v, true
}
