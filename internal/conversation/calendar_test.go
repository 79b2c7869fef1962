package conversation

import (
	"testing"
	"time"

	"boulderbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayGrid(t *testing.T) {
	minDate := time.Date(2021, 12, 3, 0, 0, 0, 0, time.UTC)
	rows := dayGrid(2021, time.December, minDate)

	// navigation, weekday header, five weeks
	require.Len(t, rows, 7)

	nav := rows[0]
	assert.Equal(t, tokenNoop, nav[0].Data, "cannot go before the month of today")
	assert.Equal(t, "December 2021", nav[1].Text)
	assert.Equal(t, "cal:y:2021", nav[1].Data)
	assert.Equal(t, "cal:m:2022-01", nav[2].Data)

	assert.Equal(t, "Mo", rows[1][0].Text)

	// 1 December 2021 is a Wednesday
	week := rows[2]
	require.Len(t, week, 7)
	assert.Equal(t, tokenNoop, week[0].Data)
	assert.Equal(t, tokenNoop, week[1].Data)
	assert.Equal(t, "·", week[2].Text, "past days are inert")
	assert.Equal(t, tokenNoop, week[2].Data)
	assert.Equal(t, "3", week[4].Text)
	assert.Equal(t, "cal:d:2021-12-03", week[4].Data)

	last := rows[len(rows)-1]
	assert.Equal(t, "31", last[4].Text)
	assert.Equal(t, tokenNoop, last[5].Data)
}

func TestDayGridLaterMonth(t *testing.T) {
	minDate := time.Date(2021, 12, 3, 0, 0, 0, 0, time.UTC)
	rows := dayGrid(2022, time.February, minDate)

	assert.Equal(t, "cal:m:2022-01", rows[0][0].Data)
	// 1 February 2022 is a Tuesday
	assert.Equal(t, "1", rows[2][1].Text)
	assert.Equal(t, "cal:d:2022-02-01", rows[2][1].Data)
}

func TestMonthGrid(t *testing.T) {
	minDate := time.Date(2021, 12, 3, 0, 0, 0, 0, time.UTC)

	rows := monthGrid(2021, minDate)
	require.Len(t, rows, 5)
	assert.Equal(t, tokenNoop, rows[0][0].Data)
	assert.Equal(t, "2021", rows[0][1].Text)
	assert.Equal(t, "cal:y:2022", rows[0][2].Data)
	assert.Equal(t, tokenNoop, rows[1][0].Data, "January is in the past")
	assert.Equal(t, "Dec", rows[4][2].Text)
	assert.Equal(t, "cal:m:2021-12", rows[4][2].Data)

	next := monthGrid(2022, minDate)
	assert.Equal(t, "cal:y:2021", next[0][0].Data)
	assert.Equal(t, "cal:m:2022-01", next[1][0].Data)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, daysIn(time.February, 2024))
	assert.Equal(t, 28, daysIn(time.February, 1900))
	assert.Equal(t, 29, daysIn(time.February, 2000))
	assert.Equal(t, 30, daysIn(time.April, 2021))
	assert.Equal(t, 31, daysIn(time.December, 2021))
}

func TestClampView(t *testing.T) {
	today := time.Date(2021, 12, 3, 0, 0, 0, 0, time.UTC)

	v := clampView(models.CalendarView{Step: stepDay, Year: 2021, Month: 11}, today)
	assert.Equal(t, 12, v.Month)

	v = clampView(models.CalendarView{Step: stepMonth, Year: 2020}, today)
	assert.Equal(t, 2021, v.Year)
	assert.Equal(t, stepMonth, v.Step)

	v = clampView(models.CalendarView{Year: 2022, Month: 3}, today)
	assert.Equal(t, stepDay, v.Step)
	assert.Equal(t, 3, v.Month)
}
