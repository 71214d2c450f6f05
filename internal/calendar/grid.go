package calendar

import (
	"fmt"
	"time"
)

const (
	// GridSize is six full weeks, enough for any month starting on any weekday.
	GridSize = 42
	// CellDisplayCap is how many interviews a cell renders before "+N more".
	CellDisplayCap = 2
)

// DayCell is one date of the month grid. Interviews holds every matching
// record; trimming for display happens in View.
type DayCell struct {
	Date           time.Time `json:"-"`
	DateKey        string    `json:"date"`
	IsCurrentMonth bool      `json:"is_current_month"`
	IsToday        bool      `json:"is_today"`
	Interviews     []Record  `json:"interviews"`
}

// Builder holds the viewer's location and clock.
type Builder struct {
	Location *time.Location
	Now      func() time.Time
}

func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{Location: loc, Now: time.Now}
}

// TodayKey is the viewer's current local date.
func (b *Builder) TodayKey() string {
	return DateKey(b.now().In(b.location()))
}

// BuildMonthGrid lays out the 42 days starting on the Sunday on or before the
// first of reference's month. A record lands in a cell when its schedule parses,
// its local date equals the cell's and p accepts it. Records are not modified.
func (b *Builder) BuildMonthGrid(records []Record, reference time.Time, p Predicate) [GridSize]DayCell {
	if p == nil {
		p = All
	}
	loc := b.location()
	ref := reference.In(loc)
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	lead := int(first.Weekday())

	buckets := make(map[string][]Record)
	for _, r := range records {
		at, ok := r.ScheduledAt(loc)
		if !ok || !p(r) {
			continue
		}
		key := DateKey(at)
		buckets[key] = append(buckets[key], r)
	}

	today := b.TodayKey()
	var grid [GridSize]DayCell
	for i := range grid {
		// time.Date normalises day overflow, so DST changes never skip a date.
		day := time.Date(first.Year(), first.Month(), 1-lead+i, 0, 0, 0, 0, loc)
		key := DateKey(day)
		matches := buckets[key]
		if matches == nil {
			matches = []Record{}
		}
		grid[i] = DayCell{
			Date:           day,
			DateKey:        key,
			IsCurrentMonth: day.Year() == ref.Year() && day.Month() == ref.Month(),
			IsToday:        key == today,
			Interviews:     matches,
		}
	}
	return grid
}

// Today returns the accepted records scheduled on the viewer's current date.
func (b *Builder) Today(records []Record, p Predicate) []Record {
	today := b.TodayKey()
	return b.byDay(records, p, func(key string) bool { return key == today })
}

// Upcoming returns the accepted records scheduled after today.
func (b *Builder) Upcoming(records []Record, p Predicate) []Record {
	today := b.TodayKey()
	return b.byDay(records, p, func(key string) bool { return key > today })
}

func (b *Builder) byDay(records []Record, p Predicate, keep func(string) bool) []Record {
	if p == nil {
		p = All
	}
	out := []Record{}
	for _, r := range records {
		at, ok := r.ScheduledAt(b.location())
		if ok && keep(DateKey(at)) && p(r) {
			out = append(out, r)
		}
	}
	return out
}

func (b *Builder) location() *time.Location {
	if b.Location == nil {
		return time.Local
	}
	return b.Location
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// Entry is a record decorated for rendering.
type Entry struct {
	Record
	Time     string `json:"time"`
	Style    Style  `json:"style"`
	TypeIcon string `json:"type_icon"`
}

// CellView is what a calendar cell paints: at most CellDisplayCap entries plus
// the count of hidden ones.
type CellView struct {
	Date           string  `json:"date"`
	Day            int     `json:"day"`
	IsCurrentMonth bool    `json:"is_current_month"`
	IsToday        bool    `json:"is_today"`
	Interviews     []Entry `json:"interviews"`
	Overflow       int     `json:"overflow"`
	Total          int     `json:"total"`
}

// OverflowLabel is "+N more", or empty when nothing is hidden.
func (v CellView) OverflowLabel() string {
	if v.Overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", v.Overflow)
}

// View trims a cell for display.
func (b *Builder) View(cell DayCell) CellView {
	total := len(cell.Interviews)
	shown := cell.Interviews
	if total > CellDisplayCap {
		shown = shown[:CellDisplayCap]
	}
	entries := make([]Entry, 0, len(shown))
	for _, r := range shown {
		entries = append(entries, b.Decorate(r))
	}
	return CellView{
		Date:           cell.DateKey,
		Day:            cell.Date.Day(),
		IsCurrentMonth: cell.IsCurrentMonth,
		IsToday:        cell.IsToday,
		Interviews:     entries,
		Overflow:       total - len(shown),
		Total:          total,
	}
}

// Views maps View over a whole grid.
func (b *Builder) Views(grid [GridSize]DayCell) []CellView {
	out := make([]CellView, 0, GridSize)
	for _, c := range grid {
		out = append(out, b.View(c))
	}
	return out
}

// Decorate attaches the time label and status/type styling. Unscheduled
// records read "TBD".
func (b *Builder) Decorate(r Record) Entry {
	label := "TBD"
	if at, ok := r.ScheduledAt(b.location()); ok {
		label = at.Format("15:04")
	}
	return Entry{
		Record:   r,
		Time:     label,
		Style:    StyleFor(r.Status),
		TypeIcon: TypeIcon(r.Type),
	}
}

// ParseMonth reads "YYYY-MM" as the first day of that month in loc. An empty
// value means the current month.
func ParseMonth(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if value == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", value, err)
	}
	return t, nil
}

// MonthView is everything a calendar page shows for one month.
type MonthView struct {
	Month      string     `json:"month"`
	Timezone   string     `json:"timezone"`
	Today      string     `json:"today"`
	Filter     Filter     `json:"filter"`
	Cells      []CellView `json:"cells"`
	Interviews []Entry    `json:"interviews"`
	TodayList  []Entry    `json:"today_interviews"`
	Upcoming   []Entry    `json:"upcoming"`
}

// Month builds the grid, the filtered list and the today/upcoming lists from a
// single filter so that every section agrees.
func (b *Builder) Month(records []Record, reference time.Time, f Filter) MonthView {
	p := f.Predicate()
	return MonthView{
		Month:      reference.In(b.location()).Format("2006-01"),
		Timezone:   b.location().String(),
		Today:      b.TodayKey(),
		Filter:     f,
		Cells:      b.Views(b.BuildMonthGrid(records, reference, p)),
		Interviews: b.decorateAll(Apply(records, p)),
		TodayList:  b.decorateAll(b.Today(records, p)),
		Upcoming:   b.decorateAll(b.Upcoming(records, p)),
	}
}

func (b *Builder) decorateAll(records []Record) []Entry {
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, b.Decorate(r))
	}
	return out
}
