package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/calendar"
	"github.com/justsurfingit/interview-scheduler/internal/models"
	"github.com/justsurfingit/interview-scheduler/internal/services"
)

type InterviewLister interface {
	List(ctx context.Context, v services.Viewer) ([]models.Interview, error)
}

// CalendarHandler serves month views and iCalendar feeds of the caller's interviews.
type CalendarHandler struct {
	Interviews      InterviewLister
	DefaultLocation *time.Location
	Now             func() time.Time
	Log             *zap.Logger
}

func NewCalendarHandler(lister InterviewLister, loc *time.Location, log *zap.Logger) *CalendarHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarHandler{Interviews: lister, DefaultLocation: loc, Now: time.Now, Log: log}
}

type monthQuery struct {
	calendar.Filter
	Month string `form:"month"`
	TZ    string `form:"tz"`
}

// Month is GET /{role}/calendar?month=YYYY-MM&tz=&search=&status=&type=
func (h *CalendarHandler) Month(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}
	loc, err := h.location(q.TZ)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	ref, err := calendar.ParseMonth(q.Month, loc, h.Now())
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	records, err := h.records(c.Request.Context(), v)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}

	b := calendar.NewBuilder(loc)
	b.Now = h.Now
	ok(c, b.Month(records, ref, q.Filter))
}

// ICS is GET /{role}/calendar.ics; it honours the same filters as Month.
func (h *CalendarHandler) ICS(c *gin.Context) {
	v, okViewer := viewer(c)
	if !okViewer {
		return
	}
	var f calendar.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}
	records, err := h.records(c.Request.Context(), v)
	if err != nil {
		serviceError(c, h.Log, err)
		return
	}

	var buf bytes.Buffer
	name := fmt.Sprintf("Interviews (%s)", models.RouteSegment(v.Role))
	if _, err := calendar.WriteICal(&buf, calendar.Apply(records, f.Predicate()), name, h.Now()); err != nil {
		serviceError(c, h.Log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="interviews.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h *CalendarHandler) records(ctx context.Context, v services.Viewer) ([]calendar.Record, error) {
	interviews, err := h.Interviews.List(ctx, v)
	if err != nil {
		return nil, err
	}
	return toRecords(interviews, v.Role), nil
}

func (h *CalendarHandler) location(tz string) (*time.Location, error) {
	if tz == "" {
		return h.DefaultLocation, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", tz)
	}
	return loc, nil
}
