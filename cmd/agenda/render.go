package main

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/justsurfingit/interview-scheduler/internal/calendar"
)

const (
	cellWidth     = 16
	upcomingLimit = 5
)

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var ansi = map[string]string{
	"blue":   "\033[34m",
	"green":  "\033[32m",
	"yellow": "\033[33m",
	"purple": "\033[35m",
	"red":    "\033[31m",
	"orange": "\033[38;5;208m",
	"gray":   "\033[90m",
	"dim":    "\033[2m",
	"bold":   "\033[1m",
}

const ansiReset = "\033[0m"

// painter wraps text in ANSI colour codes when enabled.
type painter struct {
	enabled bool
}

func (p painter) paint(color, s string) string {
	code, ok := ansi[color]
	if !p.enabled || !ok || s == "" {
		return s
	}
	return code + s + ansiReset
}

// renderMonth writes the 6x7 grid followed by today's and upcoming interviews.
func renderMonth(w io.Writer, v calendar.MonthView, color bool) error {
	p := painter{enabled: color}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		loc = time.Local
	}

	var b strings.Builder
	title := v.Month
	if m, err := time.Parse("2006-01", v.Month); err == nil {
		title = m.Format("January 2006")
	}
	fmt.Fprintf(&b, "%s  (%s)\n", p.paint("bold", title), v.Timezone)
	if f := v.Filter; f.Search != "" || f.Status != "" || f.Type != "" {
		fmt.Fprintf(&b, "filter: search=%q status=%q type=%q\n", f.Search, f.Status, f.Type)
	}

	sep := strings.Repeat("-", (cellWidth+1)*len(weekdays)+1)
	b.WriteString(sep + "\n|")
	for _, d := range weekdays {
		b.WriteString(pad(d) + "|")
	}
	b.WriteString("\n" + sep + "\n")

	for week := 0; week*7 < len(v.Cells); week++ {
		end := week*7 + 7
		if end > len(v.Cells) {
			end = len(v.Cells)
		}
		row := v.Cells[week*7 : end]
		for line := 0; line < calendar.CellDisplayCap+2; line++ {
			b.WriteString("|")
			for _, cell := range row {
				b.WriteString(cellLine(p, cell, line) + "|")
			}
			b.WriteString("\n")
		}
		b.WriteString(sep + "\n")
	}

	writeList(&b, p, "Today", v.TodayList, loc, len(v.TodayList))
	writeList(&b, p, "Upcoming", v.Upcoming, loc, upcomingLimit)

	_, err = io.WriteString(w, b.String())
	return err
}

// cellLine renders one text line of a cell: the day number, then up to
// CellDisplayCap entries, then the overflow label.
func cellLine(p painter, cell calendar.CellView, line int) string {
	switch {
	case line == 0:
		label := fmt.Sprintf("%2d", cell.Day)
		if cell.IsToday {
			label += " today"
		}
		text := pad(label)
		switch {
		case cell.IsToday:
			return p.paint("bold", text)
		case !cell.IsCurrentMonth:
			return p.paint("dim", text)
		}
		return text
	case line <= calendar.CellDisplayCap:
		i := line - 1
		if i >= len(cell.Interviews) {
			return pad("")
		}
		e := cell.Interviews[i]
		return p.paint(e.Style.Color, pad(e.Time+" "+e.Name))
	default:
		return p.paint("gray", pad(cell.OverflowLabel()))
	}
}

func writeList(b *strings.Builder, p painter, heading string, entries []calendar.Entry, loc *time.Location, limit int) {
	fmt.Fprintf(b, "\n%s (%d)\n", p.paint("bold", heading), len(entries))
	if len(entries) == 0 {
		b.WriteString("  none\n")
		return
	}
	for i, e := range entries {
		if i == limit {
			fmt.Fprintf(b, "  ... %d more\n", len(entries)-limit)
			break
		}
		when := "TBD"
		if at, ok := calendar.ParseSchedule(e.Schedule, loc); ok {
			when = at.Format("Mon Jan 2 15:04")
		}
		fmt.Fprintf(b, "  %-16s %s - %s (%s, %s) %s\n",
			when, e.Name, e.JobTitle, e.TypeIcon, e.Interviewer,
			p.paint(e.Style.Color, "["+e.Style.Label+"]"))
	}
}

// pad fits s into exactly cellWidth runes, cutting with "~" when too long.
func pad(s string) string {
	s = " " + s
	if utf8.RuneCountInString(s) > cellWidth {
		r := []rune(s)
		s = string(r[:cellWidth-1]) + "~"
	}
	return fmt.Sprintf("%-*s", cellWidth, s)
}
