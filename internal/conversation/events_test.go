package conversation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		data string
		kind EventKind
		arg  string
		at   time.Time
	}{
		{"noop", EventNoop, "", time.Time{}},
		{"cal:y:2022", EventCalendarMonths, "", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"cal:m:2021-12", EventCalendarDays, "", time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)},
		{"cal:d:2021-12-06", EventDatePicked, "", time.Date(2021, 12, 6, 0, 0, 0, 0, time.UTC)},
		{"back:cal", EventBackToCalendar, "", time.Time{}},
		{"fac:BASEMENT", EventFacility, "BASEMENT", time.Time{}},
		{"back:fac", EventBackToFacility, "", time.Time{}},
		{"slot:SKB-45-25", EventSlot, "SKB-45-25", time.Time{}},
		{"back:slot", EventBackToSlot, "", time.Time{}},
		{"YES", EventConfirmYes, "", time.Time{}},
		{"NO", EventConfirmNo, "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			ev, err := ParseEvent(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.arg, ev.Arg)
			assert.True(t, tt.at.Equal(ev.At))
			assert.Equal(t, tt.data, ev.Data())
		})
	}
}

func TestParseEventRejectsUnknown(t *testing.T) {
	for _, data := range []string{"", "GO-CALENDAR", "fac:", "slot:", "cal:d:2021-13-01", "cal:y:abc", "cal:m:2021", "yes"} {
		_, err := ParseEvent(data)
		assert.True(t, errors.Is(err, ErrUnknownEvent), data)
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "date_picked", EventDatePicked.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
