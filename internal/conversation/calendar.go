package conversation

import (
	"fmt"
	"strconv"
	"time"
)

const (
	stepDay   = "day"
	stepMonth = "month"
)

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// calendarText is the prompt shown above the picker.
func calendarText(step string) string {
	return fmt.Sprintf("Select %s or /cancel", step)
}

// dayGrid builds a Monday-first month grid. Days before minDate are inert.
func dayGrid(year int, month time.Month, minDate time.Time) [][]Button {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	minMonth := time.Date(minDate.Year(), minDate.Month(), 1, 0, 0, 0, 0, time.UTC)

	prev := noopButton(" ")
	if prevMonth := first.AddDate(0, -1, 0); !prevMonth.Before(minMonth) {
		prev = button("<", Event{Kind: EventCalendarDays, At: prevMonth})
	}
	next := button(">", Event{Kind: EventCalendarDays, At: first.AddDate(0, 1, 0)})
	title := button(fmt.Sprintf("%s %d", month, year), Event{Kind: EventCalendarMonths, At: first})

	rows := [][]Button{{prev, title, next}}

	header := make([]Button, 0, len(weekdayHeader))
	for _, d := range weekdayHeader {
		header = append(header, noopButton(d))
	}
	rows = append(rows, header)

	offset := int(first.Weekday())
	if offset == 0 {
		offset = 7 // make Monday-first grid
	}
	days := daysIn(month, year)
	minDay := time.Date(minDate.Year(), minDate.Month(), minDate.Day(), 0, 0, 0, 0, time.UTC)

	day := 1
	for day <= days {
		row := make([]Button, 0, 7)
		for col := 1; col <= 7; col++ {
			if (len(rows) == 2 && col < offset) || day > days {
				row = append(row, noopButton(" "))
				continue
			}
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if date.Before(minDay) {
				row = append(row, noopButton("·"))
			} else {
				row = append(row, button(strconv.Itoa(day), Event{Kind: EventDatePicked, At: date}))
			}
			day++
		}
		rows = append(rows, row)
	}

	return rows
}

// monthGrid builds a 4x3 grid of months for one year.
func monthGrid(year int, minDate time.Time) [][]Button {
	prev := noopButton(" ")
	if year-1 >= minDate.Year() {
		prev = button("<", Event{Kind: EventCalendarMonths, At: time.Date(year-1, time.January, 1, 0, 0, 0, 0, time.UTC)})
	}
	next := button(">", Event{Kind: EventCalendarMonths, At: time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)})
	rows := [][]Button{{prev, noopButton(strconv.Itoa(year)), next}}

	minMonth := time.Date(minDate.Year(), minDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	row := make([]Button, 0, 3)
	for m := time.January; m <= time.December; m++ {
		at := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		label := m.String()[:3]
		if at.Before(minMonth) {
			row = append(row, noopButton("·"))
		} else {
			row = append(row, button(label, Event{Kind: EventCalendarDays, At: at}))
		}
		if len(row) == 3 {
			rows = append(rows, row)
			row = make([]Button, 0, 3)
		}
	}

	return rows
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
