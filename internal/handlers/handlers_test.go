package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/auth"
	"github.com/justsurfingit/interview-scheduler/internal/dtos"
	"github.com/justsurfingit/interview-scheduler/internal/middleware"
	"github.com/justsurfingit/interview-scheduler/internal/models"
	"github.com/justsurfingit/interview-scheduler/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	interviews []models.Interview
	err        error

	scheduled  *dtos.ScheduleInterviewRequest
	updated    *dtos.UpdateInterviewRequest
	statusReq  *dtos.UpdateStatusRequest
	lastViewer services.Viewer
	deletedID  uint
}

func (f *fakeStore) Schedule(_ context.Context, v services.Viewer, req *dtos.ScheduleInterviewRequest) (*models.Interview, error) {
	f.lastViewer, f.scheduled = v, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Interview{ID: 10, ScheduledAt: req.ScheduleTime, Status: models.StatusScheduled, Seeker: models.User{Name: "Ada"}}, nil
}

func (f *fakeStore) List(_ context.Context, v services.Viewer) ([]models.Interview, error) {
	f.lastViewer = v
	return f.interviews, f.err
}

func (f *fakeStore) Update(_ context.Context, v services.Viewer, id uint, req *dtos.UpdateInterviewRequest) (*models.Interview, error) {
	f.lastViewer, f.updated = v, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Interview{ID: id, Status: models.NormalizeStatus(*req.Status)}, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, v services.Viewer, id uint, req *dtos.UpdateStatusRequest) (*models.Interview, error) {
	f.lastViewer, f.statusReq = v, req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Interview{ID: id, Status: models.InterviewStatus(req.Status)}, nil
}

func (f *fakeStore) Delete(_ context.Context, v services.Viewer, id uint) error {
	f.lastViewer, f.deletedID = v, id
	return f.err
}

func (f *fakeStore) Events(_ context.Context, v services.Viewer, id uint) ([]models.InterviewEvent, error) {
	return []models.InterviewEvent{{InterviewID: id, EventType: models.EventScheduled}}, f.err
}

func (f *fakeStore) Stats(context.Context) (*services.InterviewStats, error) {
	return &services.InterviewStats{Total: 3, ByStatus: map[models.InterviewStatus]int64{models.StatusScheduled: 3}}, f.err
}

type fakeReminders struct {
	id      uint
	message string
	err     error
}

func (f *fakeReminders) SendReminder(_ context.Context, _ services.Viewer, id uint, message string) error {
	f.id, f.message = id, message
	return f.err
}

var testTokens = auth.NewTokenMaker(strings.Repeat("h", 32), time.Hour)

type harness struct {
	router    *gin.Engine
	store     *fakeStore
	reminders *fakeReminders
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := &fakeStore{}
	reminders := &fakeReminders{}
	log := zap.NewNop()

	cal := NewCalendarHandler(store, time.UTC, log)
	cal.Now = func() time.Time { return time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC) }

	r, err := NewRouter(RouterConfig{
		Tokens:     testTokens,
		Interviews: NewInterviewHandler(store, reminders, log),
		Calendar:   cal,
		Log:        log,
	})
	require.NoError(t, err)
	return &harness{router: r, store: store, reminders: reminders}
}

func (h *harness) do(t *testing.T, method, path string, role models.Role, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if role != nil {
		tok, err := testTokens.CreateToken(42, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Envelope {
	t.Helper()
	env := Envelope{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouterRateLimit(t *testing.T) {
	log := zap.NewNop()
	store := &fakeStore{}
	r, err := NewRouter(RouterConfig{
		Tokens:     testTokens,
		Interviews: NewInterviewHandler(store, &fakeReminders{}, log),
		Calendar:   NewCalendarHandler(store, time.UTC, log),
		Log:        log,
		Limiter:    middleware.NewIPRateLimiter(1, 1),
	})
	require.NoError(t, err)

	get := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get("10.0.0.1").Code)
	limited := get("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2").Code)
}

func TestRoleGuards(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		method string
		path   string
		role   models.Role
		status int
	}{
		{"no token", http.MethodGet, "/api/v1/recruiter/interviews", nil, http.StatusUnauthorized},
		{"seeker on recruiter routes", http.MethodGet, "/api/v1/recruiter/interviews", models.JobSeeker{}, http.StatusForbidden},
		{"recruiter on seeker routes", http.MethodGet, "/api/v1/jobseeker/calendar", models.Recruiter{}, http.StatusForbidden},
		{"recruiter on admin stats", http.MethodGet, "/api/v1/admin/interviews/stats", models.Recruiter{}, http.StatusForbidden},
		{"admin stats", http.MethodGet, "/api/v1/admin/interviews/stats", models.Admin{}, http.StatusOK},
		{"seeker list", http.MethodGet, "/api/v1/jobseeker/interviews", models.JobSeeker{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, h.do(t, tt.method, tt.path, tt.role, "").Code)
		})
	}
}

func TestScheduleInterview(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/recruiter/interviews", models.Recruiter{},
		`{"application_id": 3, "schedule_time": "2025-07-20T15:00:00Z", "type": "phone", "notes": "<script>x</script>bring ID"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, h.store.scheduled)
	assert.Equal(t, uint(3), h.store.scheduled.ApplicationID)
	assert.Equal(t, "phone", h.store.scheduled.Type)
	assert.Equal(t, "bring ID", h.store.scheduled.Notes)
	assert.Equal(t, uint(42), h.store.lastViewer.UserID)

	var rec map[string]interface{}
	env := decode(t, w, &rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Ada", rec["name"])
	assert.Equal(t, "2025-07-20T15:00:00Z", rec["schedule"])
}

func TestScheduleInterviewValidation(t *testing.T) {
	h := newHarness(t)

	for _, body := range []string{
		`{}`,
		`{"application_id": 3, "type": "carrier-pigeon"}`,
		`{"application_id": 3, "duration": 1}`,
		`{"application_id": 3, "meeting_link": "not a url"}`,
	} {
		w := h.do(t, http.MethodPost, "/api/v1/recruiter/interviews", models.Recruiter{}, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Nil(t, h.store.scheduled)
}

func TestServiceErrorsMapToStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrInterviewNotFound, http.StatusNotFound},
		{services.ErrApplicationNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrNothingToUpdate, http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newHarness(t)
			h.store.err = tt.err
			w := h.do(t, http.MethodPut, "/api/v1/recruiter/interviews/5", models.Recruiter{}, `{"status":"completed"}`)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", env.Error.Message)
			}
		})
	}
}

func TestUpdateInterview(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPut, "/api/v1/recruiter/interviews/5", models.Recruiter{}, `{"status":"completed","outcome":"hired"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, h.store.updated)
	assert.Equal(t, "completed", *h.store.updated.Status)
	assert.Equal(t, "hired", *h.store.updated.Outcome)
	assert.Nil(t, h.store.updated.Notes)

	w = h.do(t, http.MethodPut, "/api/v1/recruiter/interviews/5", models.Recruiter{}, `{"status":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPut, "/api/v1/recruiter/interviews/abc", models.Recruiter{}, `{"status":"completed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSeekerUpdateStatus(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPut, "/api/v1/jobseeker/interviews/9/status", models.JobSeeker{}, `{"status":"confirmed","notes":"see you"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", h.store.statusReq.Status)
	assert.Equal(t, "see you", *h.store.statusReq.Notes)

	w = h.do(t, http.MethodPut, "/api/v1/jobseeker/interviews/9/status", models.JobSeeker{}, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAndEvents(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodDelete, "/api/v1/recruiter/interviews/12", models.Recruiter{}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(12), h.store.deletedID)

	w = h.do(t, http.MethodGet, "/api/v1/jobseeker/interviews/12/events", models.JobSeeker{}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.EventScheduled)
}

func TestSendReminder(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/recruiter/interviews/4/reminder", models.Recruiter{}, `{"message":"Bring your portfolio"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(4), h.reminders.id)
	assert.Equal(t, "Bring your portfolio", h.reminders.message)

	w = h.do(t, http.MethodPost, "/api/v1/recruiter/interviews/4/reminder", models.Recruiter{}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", h.reminders.message)

	h.reminders.err = services.ErrRemindersDisabled
	w = h.do(t, http.MethodPost, "/api/v1/recruiter/interviews/4/reminder", models.Recruiter{}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func seededInterviews() []models.Interview {
	company := models.Company{Name: "Stripe"}
	return []models.Interview{
		{ID: 1, ScheduledAt: at("2025-07-15T17:00:00Z"), Status: models.StatusConfirmed, Job: models.Job{Title: "Go Developer", Company: company}, Recruiter: models.User{Name: "Rita"}},
		{ID: 2, ScheduledAt: at("2025-07-22T04:30:00Z"), Status: models.StatusScheduled, Job: models.Job{Title: "SRE", Company: company}},
		{ID: 3, ScheduledAt: nil, Status: "", Job: models.Job{Title: "Platform Engineer"}},
		{ID: 4, ScheduledAt: at("2025-07-02T09:00:00Z"), Status: "canceled", Type: models.TypePhone, Job: models.Job{Title: "Data Engineer", Company: models.Company{Name: "Acme"}}},
	}
}

func TestListAppliesFilters(t *testing.T) {
	h := newHarness(t)
	h.store.interviews = seededInterviews()

	var data struct {
		Interviews []struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"interviews"`
	}
	w := h.do(t, http.MethodGet, "/api/v1/jobseeker/interviews?search=stripe", models.JobSeeker{}, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	require.Len(t, data.Interviews, 2)
	assert.Equal(t, "Stripe", data.Interviews[0].Name)

	w = h.do(t, http.MethodGet, "/api/v1/jobseeker/interviews?status=cancelled", models.JobSeeker{}, "")
	decode(t, w, &data)
	require.Len(t, data.Interviews, 1)
	assert.Equal(t, int64(4), data.Interviews[0].ID)
	assert.Equal(t, "cancelled", data.Interviews[0].Status)
}

func TestCalendarMonth(t *testing.T) {
	h := newHarness(t)
	h.store.interviews = seededInterviews()

	var view struct {
		Month    string `json:"month"`
		Timezone string `json:"timezone"`
		Today    string `json:"today"`
		Cells    []struct {
			Date       string `json:"date"`
			Total      int    `json:"total"`
			Interviews []struct {
				ID   int64  `json:"id"`
				Time string `json:"time"`
			} `json:"interviews"`
		} `json:"cells"`
		Interviews []json.RawMessage `json:"interviews"`
		TodayList  []json.RawMessage `json:"today_interviews"`
		Upcoming   []json.RawMessage `json:"upcoming"`
	}

	w := h.do(t, http.MethodGet, "/api/v1/jobseeker/calendar?month=2025-07&tz=America/Los_Angeles", models.JobSeeker{}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)

	assert.Equal(t, "2025-07", view.Month)
	assert.Equal(t, "America/Los_Angeles", view.Timezone)
	assert.Equal(t, "2025-07-15", view.Today)
	require.Len(t, view.Cells, 42)
	assert.Equal(t, "2025-06-29", view.Cells[0].Date)

	totals := map[string]int{}
	for _, c := range view.Cells {
		if c.Total > 0 {
			totals[c.Date] = c.Total
		}
	}
	// 04:30Z on the 22nd is still the 21st in Los Angeles.
	assert.Equal(t, map[string]int{"2025-07-02": 1, "2025-07-15": 1, "2025-07-21": 1}, totals)

	assert.Len(t, view.Interviews, 4)
	assert.Len(t, view.TodayList, 1)
	assert.Len(t, view.Upcoming, 1)
}

func TestCalendarMonthBadInput(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/recruiter/calendar?month=July", models.Recruiter{}, "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/v1/recruiter/calendar?tz=Nowhere/Land", models.Recruiter{}, "").Code)
}

func TestCalendarICS(t *testing.T) {
	h := newHarness(t)
	h.store.interviews = seededInterviews()

	w := h.do(t, http.MethodGet, "/api/v1/recruiter/calendar.ics?status=all", models.Recruiter{}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))

	cal, err := ical.NewDecoder(w.Body).Decode()
	require.NoError(t, err)
	events := 0
	for _, c := range cal.Children {
		if c.Name == ical.CompEvent {
			events++
		}
	}
	assert.Equal(t, 3, events)
}
